package sim

import (
	"github.com/jakecoffman/cp"
)

// BodyKind tags the logical role of a physics body.
type BodyKind int

const (
	KindGround BodyKind = iota
	KindKatamari
	KindItem
)

func (k BodyKind) String() string {
	switch k {
	case KindGround:
		return "ground"
	case KindKatamari:
		return "katamari"
	case KindItem:
		return "item"
	}
	return "unknown"
}

// VisualOwner is the narrow boundary to an entity's renderable
// counterpart. The simulation reads a size and signals collection; it
// never mutates render state. Collected is invoked from inside the
// engine step and must not touch the space.
type VisualOwner interface {
	VisualSize() float64
	Collected()
}

// PhysicsBody pairs an engine body with its logical payload. Exactly
// one exists per logical entity; the static ground shapes are built
// out-of-band and never wrapped.
type PhysicsBody struct {
	ID          int
	Kind        BodyKind
	Size        float64
	Mass        float64
	Collectible bool
	Collected   bool
	Behavior    string

	Body  *cp.Body
	Shape *cp.Shape
	Owner VisualOwner

	inSpace bool
}

// Position returns the engine position, or the zero vector for a
// detached payload.
func (b *PhysicsBody) Position() cp.Vector {
	if b == nil || b.Body == nil {
		return cp.Vector{}
	}
	return b.Body.Position()
}

// Sleeping reports the engine sleep flag.
func (b *PhysicsBody) Sleeping() bool {
	if b == nil || b.Body == nil {
		return false
	}
	return b.Body.IsSleeping()
}

// Static reports whether the underlying engine body is static.
func (b *PhysicsBody) Static() bool {
	if b == nil || b.Body == nil {
		return false
	}
	return b.Body.GetType() == cp.BODY_STATIC
}

// RecoverSize derives an item size from the engine shape: circles and
// segments report their diameter, polygons the largest bounding-box
// extent. Used to repair a corrupt payload size.
func (b *PhysicsBody) RecoverSize() (float64, bool) {
	if b == nil || b.Shape == nil {
		return 0, false
	}
	switch s := b.Shape.Class.(type) {
	case *cp.Circle:
		if r := s.Radius(); r > 0 {
			return r * 2, true
		}
	case *cp.Segment:
		if r := s.Radius(); r > 0 {
			return r * 2, true
		}
	case *cp.PolyShape:
		bb := b.Shape.BB()
		ext := bb.R - bb.L
		if h := bb.T - bb.B; h > ext {
			ext = h
		}
		if ext > 0 {
			return ext, true
		}
	}
	return 0, false
}
