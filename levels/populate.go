package levels

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/sim"
)

// Populate builds the katamari and every cluster item through the
// world registry. Placement is deterministic: items fan across the
// cluster spread by index with no randomness, so the same spec always
// yields the same pile.
func Populate(w *sim.World, spec *LevelSpec) error {
	if w == nil || spec == nil {
		return fmt.Errorf("levels: populate: nil world or spec")
	}
	if _, err := w.SpawnKatamari(cp.Vector{X: spec.Katamari.X, Y: spec.Katamari.Y}, spec.Katamari.Radius); err != nil {
		return fmt.Errorf("levels: populate %s: %w", spec.Name, err)
	}
	for ci, cluster := range spec.Clusters {
		shape := sim.ShapeBall
		if cluster.Kind == "box" {
			shape = sim.ShapeBox
		}
		for i := 0; i < cluster.Count; i++ {
			if _, err := w.SpawnItem(cluster.Size, clusterSlot(cluster, i), shape, cluster.Behavior, nil); err != nil {
				return fmt.Errorf("levels: populate %s cluster %d: %w", spec.Name, ci, err)
			}
		}
	}
	return nil
}

// Regenerate tears down every tracked body and repopulates the level.
func Regenerate(w *sim.World, spec *LevelSpec) error {
	if w == nil || spec == nil {
		return fmt.Errorf("levels: regenerate: nil world or spec")
	}
	w.RemoveAllMatching(func(*sim.PhysicsBody) bool { return true })
	return Populate(w, spec)
}

// clusterSlot fans items across the spread, stacking overflow rows
// upward with a nudge on odd rows so piles settle instead of balancing.
func clusterSlot(c ClusterSpec, i int) cp.Vector {
	cols := int(math.Max(1, math.Floor(c.Spread/(c.Size*1.2))))
	col := i % cols
	row := i / cols
	x := c.X - c.Spread/2 + (float64(col)+0.5)*(c.Spread/float64(cols))
	if row%2 == 1 {
		x += c.Size * 0.25
	}
	y := c.Size*0.5 + float64(row)*c.Size*1.1
	return cp.Vector{X: x, Y: y}
}
