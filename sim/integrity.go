package sim

import (
	"fmt"
	"log"

	"github.com/jakecoffman/cp"
)

// ValidationReport summarizes how far the tracked set and the engine
// body list have drifted apart, after leak repair.
type ValidationReport struct {
	BodiesInWorld  int
	BodiesTracked  int
	OrphanedBodies int
	FixedLeaks     int
}

// DeepReport extends validation with a body census and payload audits.
type DeepReport struct {
	ValidationReport
	Sleeping int
	Awake    int
	Static   int
	Dynamic  int
	Issues   []string
}

func (w *World) engineBodies() map[*cp.Body]bool {
	set := make(map[*cp.Body]bool)
	w.space.EachBody(func(b *cp.Body) {
		set[b] = true
	})
	return set
}

// FixTrackingLeaks drops tracked references whose engine body is gone
// or was never set, returning how many were dropped.
func (w *World) FixTrackingLeaks() int {
	if w == nil || w.space == nil {
		return 0
	}
	inWorld := w.engineBodies()
	kept := make([]*PhysicsBody, 0, len(w.tracked))
	dropped := 0
	for _, b := range w.tracked {
		if b != nil && b.Body != nil && inWorld[b.Body] {
			kept = append(kept, b)
			continue
		}
		dropped++
		if b != nil {
			w.detachHandler(b)
			b.inSpace = false
		}
	}
	w.tracked = kept
	if dropped > 0 {
		log.Printf("World: dropped %d leaked tracking refs", dropped)
	}
	return dropped
}

// Validate repairs tracking leaks, then counts both directions of
// divergence between the tracked set and the engine body list. Bodies
// in the engine that tracking has never seen are reported as orphans
// but left alone, since something else may own them.
func (w *World) Validate() ValidationReport {
	report := ValidationReport{}
	if w == nil || w.space == nil {
		return report
	}
	report.FixedLeaks = w.FixTrackingLeaks()

	trackedSet := make(map[*cp.Body]bool, len(w.tracked))
	for _, b := range w.tracked {
		if b != nil && b.Body != nil {
			trackedSet[b.Body] = true
		}
	}

	w.space.EachBody(func(b *cp.Body) {
		report.BodiesInWorld++
		if b.GetType() == cp.BODY_STATIC {
			return
		}
		if !trackedSet[b] {
			report.OrphanedBodies++
		}
	})
	report.BodiesTracked = len(w.tracked)
	return report
}

// DeepIntegrityCheck runs the full census: sleep and body-type counts
// plus payload audits. Beyond the leak repair Validate already does, it
// mutates nothing; findings come back as issue strings.
func (w *World) DeepIntegrityCheck() DeepReport {
	deep := DeepReport{}
	if w == nil || w.space == nil {
		return deep
	}
	deep.ValidationReport = w.Validate()

	w.space.EachBody(func(b *cp.Body) {
		if b.IsSleeping() {
			deep.Sleeping++
		} else {
			deep.Awake++
		}
		if b.GetType() == cp.BODY_STATIC {
			deep.Static++
		} else {
			deep.Dynamic++
		}
	})

	for _, b := range w.tracked {
		if b == nil {
			continue
		}
		if b.Kind == KindItem && b.Size <= 0 {
			deep.Issues = append(deep.Issues, fmt.Sprintf("item %d: non-positive size %v", b.ID, b.Size))
		}
		if b.Mass <= 0 {
			deep.Issues = append(deep.Issues, fmt.Sprintf("%s %d: non-positive mass %v", b.Kind, b.ID, b.Mass))
		}
		if b.Collected && w.handlerAttached(b) {
			deep.Issues = append(deep.Issues, fmt.Sprintf("item %d: collected but contact lookup still attached", b.ID))
		}
		if b.Kind == KindItem && !b.Collected && b.Owner == nil && !w.handlerAttached(b) {
			deep.Issues = append(deep.Issues, fmt.Sprintf("item %d: no owner and no contact lookup, likely leaked", b.ID))
		}
	}
	return deep
}

// checkConfig logs tuning values outside sane bounds. It never
// auto-corrects; these lines are developer diagnostics.
func (w *World) checkConfig() {
	if w == nil || w.space == nil {
		return
	}
	if g := w.space.Gravity(); g.Y >= 0 {
		log.Printf("World: config: gravity y %v is not downward", g.Y)
	}
	if it := w.space.Iterations; it < 1 || it > 100 {
		log.Printf("World: config: solver iterations %d outside [1, 100]", it)
	}
	if f := w.params.World.Friction; f < 0 || f > 2 {
		log.Printf("World: config: friction %v outside [0, 2]", f)
	}
	if e := w.params.World.Elasticity; e < 0 || e > 2 {
		log.Printf("World: config: elasticity %v outside [0, 2]", e)
	}
	if s := w.params.Stepper.FixedStep; s <= 0 || s > 0.1 {
		log.Printf("World: config: fixed step %v outside (0, 0.1]", s)
	}
}
