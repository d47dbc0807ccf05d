package sim

import (
	"github.com/jakecoffman/cp"
)

// ManageActivation wakes tracked bodies near the reference point and
// puts distant slow ones to sleep. Bodies in the band between the
// active distance and twice the active distance are left alone so the
// boundary cannot thrash a body awake and asleep on alternate passes.
// Static bodies and the katamari are skipped.
func (w *World) ManageActivation(ref cp.Vector, activeDistance float64) (woken, slept int) {
	if w == nil || w.space == nil || activeDistance <= 0 {
		return 0, 0
	}
	for _, b := range w.tracked {
		if b == nil || b.Body == nil || b.Kind == KindKatamari || b.Static() {
			continue
		}
		d := ref.Distance(b.Body.Position())
		switch {
		case d <= activeDistance:
			if b.Body.IsSleeping() {
				b.Body.Activate()
				woken++
			}
		case d > activeDistance*2:
			if b.Body.IsSleeping() {
				continue
			}
			if b.Body.Velocity().Length() >= w.params.World.IdleSpeedThreshold {
				continue
			}
			b.Body.Sleep()
			slept++
		}
	}
	return woken, slept
}
