package sim

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/common"
)

// goldenAngle spaces successive orbit slots so attachments spiral
// around the surface instead of piling onto one spot.
const goldenAngle = 2.399963229728653

// maxAttachments bounds the stick-on list; the oldest entries fall off
// first and are visually buried by then anyway.
const maxAttachments = 256

// Attachment carries the visual stick-on parameters for a collected
// item: where it sits on the ball surface, its facing and how much it
// is shrunk. Offsets are in ball-local space and rotate with the body.
type Attachment struct {
	ItemID int
	Size   float64
	Offset cp.Vector
	Angle  float64
	Scale  float64
}

// attach computes stick-on parameters for a newly collected item.
// contactDir points from the ball toward the item at contact time; a
// near-zero vector falls back to the rolling orbit slot.
func (k *Katamari) attach(itemID int, size float64, contactDir cp.Vector) Attachment {
	angle := k.orbitAngle
	if contactDir.Length() > 1e-9 {
		angle = math.Atan2(contactDir.Y, contactDir.X)
	}
	k.orbitAngle += goldenAngle
	if k.orbitAngle > 2*math.Pi {
		k.orbitAngle -= 2 * math.Pi
	}

	a := Attachment{
		ItemID: itemID,
		Size:   size,
		Offset: cp.Vector{
			X: math.Cos(angle) * k.Radius * k.growth.AttachSurfaceFactor,
			Y: math.Sin(angle) * k.Radius * k.growth.AttachSurfaceFactor,
		},
		Angle: angle,
		Scale: common.Clamp(size/k.Radius, k.growth.AttachMinScale, 1),
	}

	k.attachments = append(k.attachments, a)
	if len(k.attachments) > maxAttachments {
		n := copy(k.attachments, k.attachments[len(k.attachments)-maxAttachments:])
		k.attachments = k.attachments[:n]
	}
	return a
}

// Attachments returns the stick-on list in collection order.
func (k *Katamari) Attachments() []Attachment {
	if k == nil {
		return nil
	}
	return k.attachments
}

// AttachmentWorldPosition resolves an attachment offset to world space,
// rotating with the ball.
func (k *Katamari) AttachmentWorldPosition(a Attachment) cp.Vector {
	if k == nil || k.Body == nil {
		return a.Offset
	}
	angle := k.Body.Angle()
	cos, sin := math.Cos(angle), math.Sin(angle)
	rotated := cp.Vector{
		X: a.Offset.X*cos - a.Offset.Y*sin,
		Y: a.Offset.X*sin + a.Offset.Y*cos,
	}
	return k.Body.Position().Add(rotated)
}
