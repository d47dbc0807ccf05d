package sim

// applyAttraction pulls items that sit inside the attraction range but
// are still too large to collect toward the katamari. The nudge fades
// linearly with distance and scales with item mass so heavy items creep
// at the same rate as light ones.
func (w *World) applyAttraction() {
	k := w.katamari
	if k == nil || k.Body == nil || w.params.Attraction.Impulse <= 0 {
		return
	}
	reach := k.AttractionRange()
	if reach <= 0 {
		return
	}
	kataPos := k.Body.Position()
	for _, b := range w.tracked {
		if b == nil || b.Kind != KindItem || b.Collected || !b.Collectible || b.Body == nil {
			continue
		}
		if k.CanCollect(b.Size) {
			continue
		}
		d := kataPos.Distance(b.Body.Position())
		if d <= 1e-9 || d > reach {
			continue
		}
		dir := kataPos.Sub(b.Body.Position()).Mult(1 / d)
		mag := w.params.Attraction.Impulse * (1 - d/reach) * b.Mass
		if b.Body.IsSleeping() {
			b.Body.Activate()
		}
		b.Body.ApplyImpulseAtWorldPoint(dir.Mult(mag), b.Body.Position())
	}
}
