package sim

import (
	"log"

	"github.com/jakecoffman/cp"
)

// ContactInfo is the minimal geometry carried with a contact event. The
// normal points from the katamari toward the other body; the point sits
// on the ball surface along that direction.
type ContactInfo struct {
	Normal cp.Vector
	Point  cp.Vector
}

// ContactEvent is a resolved contact between the katamari and another
// tracked body. Self is always the katamari side.
type ContactEvent struct {
	Self    *PhysicsBody
	Other   *PhysicsBody
	Contact ContactInfo
}

// ContactOutcome reports what a contact event turned into.
type ContactOutcome int

const (
	OutcomeIgnored ContactOutcome = iota
	OutcomeCollected
	OutcomeRepulsed
)

func (o ContactOutcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCollected:
		return "collected"
	case OutcomeRepulsed:
		return "repulsed"
	}
	return "unknown"
}

// setupHandlers registers the katamari-item contact pair. Shapes are
// resolved back to payloads through the tracked lookup, so a shape with
// no entry simply falls through to plain physics.
func (w *World) setupHandlers() {
	if w == nil || w.handlersReady || w.space == nil {
		return
	}

	handler := w.space.NewCollisionHandler(collisionTypeKatamari, collisionTypeItem)
	handler.UserData = w
	handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return true
		}
		return world.handleContact(arb)
	}
	handler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return true
		}
		return world.handleContact(arb)
	}

	w.handlersReady = true
}

// handleContact translates an arbiter into a ContactEvent and resolves
// it. The return value feeds the solver: false drops the physical
// contact, which is what a just-collected item needs.
func (w *World) handleContact(arb *cp.Arbiter) bool {
	if w == nil || arb == nil {
		return true
	}
	shapeA, shapeB := arb.Shapes()
	bodyA := w.shapeToBody[shapeA]
	bodyB := w.shapeToBody[shapeB]

	var self, other *PhysicsBody
	normal := arb.Normal()
	switch {
	case bodyA != nil && bodyA.Kind == KindKatamari:
		self, other = bodyA, bodyB
	case bodyB != nil && bodyB.Kind == KindKatamari:
		self, other = bodyB, bodyA
		normal = normal.Neg()
	default:
		return true
	}

	ev := ContactEvent{
		Self:    self,
		Other:   other,
		Contact: ContactInfo{Normal: normal, Point: w.surfacePoint(other)},
	}
	return w.resolveContact(ev) != OutcomeCollected
}

// surfacePoint is where the ball surface meets the line toward the
// other body, used as the approximate contact location.
func (w *World) surfacePoint(other *PhysicsBody) cp.Vector {
	k := w.katamari
	if k == nil || k.Body == nil || other == nil || other.Body == nil {
		return cp.Vector{}
	}
	toward := other.Body.Position().Sub(k.Body.Position())
	l := toward.Length()
	if l <= 1e-9 {
		return k.Body.Position()
	}
	return k.Body.Position().Add(toward.Mult(k.Radius / l))
}

// resolveContact decides collect versus bounce for one contact event.
// Already-collected and non-collectible bodies pass through untouched,
// so a duplicate event for the same item cannot double-grow the ball.
func (w *World) resolveContact(ev ContactEvent) ContactOutcome {
	k := w.katamari
	if k == nil || ev.Other == nil || ev.Other.Kind != KindItem {
		return OutcomeIgnored
	}

	size, ok := w.resolveItemSize(ev.Other)
	if !ok {
		log.Printf("World: contact with item %d dropped, size unrecoverable", ev.Other.ID)
		return OutcomeIgnored
	}

	if !ev.Other.Collectible || ev.Other.Collected {
		return OutcomeIgnored
	}

	if k.CanCollect(size) {
		w.collectItem(ev.Other, size)
		return OutcomeCollected
	}

	w.repulseKatamari(ev.Other)
	return OutcomeRepulsed
}

// resolveItemSize returns a usable item size, repairing the payload
// from the visual owner or the engine shape when it is corrupt.
func (w *World) resolveItemSize(b *PhysicsBody) (float64, bool) {
	if b == nil {
		return 0, false
	}
	if b.Size > 0 {
		return b.Size, true
	}
	if b.Owner != nil {
		if s := b.Owner.VisualSize(); s > 0 {
			b.Size = s
			log.Printf("World: item %d size repaired from owner: %v", b.ID, s)
			return s, true
		}
	}
	if s, ok := b.RecoverSize(); ok {
		b.Size = s
		log.Printf("World: item %d size repaired from shape: %v", b.ID, s)
		return s, true
	}
	return 0, false
}

// collectItem marks the item absorbed, grows the ball, sticks the item
// on the surface and queues the engine removal for after the step.
func (w *World) collectItem(b *PhysicsBody, size float64) {
	k := w.katamari
	b.Collected = true
	w.detachHandler(b)

	k.Collect(size)

	var contactDir cp.Vector
	if k.Body != nil && b.Body != nil {
		contactDir = b.Body.Position().Sub(k.Body.Position())
	}
	k.attach(b.ID, size, contactDir)

	if b.Owner != nil {
		b.Owner.Collected()
	}
	w.pendingRemovals = append(w.pendingRemovals, b)
}

// repulseKatamari bounces the ball off an item too large to absorb with
// a fixed-magnitude impulse along the line between their centers.
func (w *World) repulseKatamari(other *PhysicsBody) {
	k := w.katamari
	if k == nil || k.Body == nil || other == nil || other.Body == nil {
		return
	}
	away := k.Body.Position().Sub(other.Body.Position())
	l := away.Length()
	if l <= 1e-9 {
		away = cp.Vector{X: 0, Y: 1}
		l = 1
	}
	k.Body.ApplyImpulseAtWorldPoint(away.Mult(w.params.Repulsion.Impulse/l), k.Body.Position())
}

// detachHandler removes the contact lookup entry so no callback can
// resolve this body again.
func (w *World) detachHandler(b *PhysicsBody) {
	if b == nil || b.Shape == nil || w.shapeToBody == nil {
		return
	}
	delete(w.shapeToBody, b.Shape)
}

func (w *World) handlerAttached(b *PhysicsBody) bool {
	if b == nil || b.Shape == nil {
		return false
	}
	_, ok := w.shapeToBody[b.Shape]
	return ok
}
