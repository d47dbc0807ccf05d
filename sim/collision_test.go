package sim

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

type fakeOwner struct {
	size      float64
	collected bool
}

func (f *fakeOwner) VisualSize() float64 { return f.size }
func (f *fakeOwner) Collected()          { f.collected = true }

func spawnPair(t *testing.T, w *World, kataRadius, itemSize float64) (*Katamari, *PhysicsBody) {
	t.Helper()
	k, err := w.SpawnKatamari(cp.Vector{Y: kataRadius}, kataRadius)
	if err != nil {
		t.Fatalf("spawn katamari: %v", err)
	}
	pb, err := w.SpawnItem(itemSize, cp.Vector{X: 20, Y: itemSize / 2}, ShapeBall, "", nil)
	if err != nil {
		t.Fatalf("spawn item: %v", err)
	}
	return k, pb
}

func TestResolveContactCollects(t *testing.T) {
	w := newTestWorld(t)
	k, pb := spawnPair(t, w, 0.5, 0.2)

	outcome := w.resolveContact(ContactEvent{Self: w.KatamariBody(), Other: pb})
	if outcome != OutcomeCollected {
		t.Fatalf("outcome = %v, want collected", outcome)
	}
	if !pb.Collected {
		t.Fatal("item not flagged collected")
	}
	if k.ItemsCollected != 1 {
		t.Fatalf("ItemsCollected = %d, want 1", k.ItemsCollected)
	}
	if k.TargetRadius <= k.Radius {
		t.Fatalf("target radius %v did not grow past %v", k.TargetRadius, k.Radius)
	}
	if w.handlerAttached(pb) {
		t.Fatal("collected item still has a contact lookup entry")
	}
	if len(k.Attachments()) != 1 {
		t.Fatalf("attachment count = %d, want 1", len(k.Attachments()))
	}

	// The engine removal is deferred until after the step.
	if got := w.TrackedCount(); got != 2 {
		t.Fatalf("tracked = %d before flush, want 2", got)
	}
	w.flushPendingRemovals()
	if got := w.TrackedCount(); got != 1 {
		t.Fatalf("tracked = %d after flush, want 1", got)
	}
	report := w.Validate()
	if report.OrphanedBodies != 0 || report.BodiesTracked != report.BodiesInWorld {
		t.Fatalf("tracking diverged after collection: %+v", report)
	}
}

func TestResolveContactIsIdempotent(t *testing.T) {
	w := newTestWorld(t)
	k, pb := spawnPair(t, w, 0.5, 0.2)

	if outcome := w.resolveContact(ContactEvent{Self: w.KatamariBody(), Other: pb}); outcome != OutcomeCollected {
		t.Fatalf("first outcome = %v, want collected", outcome)
	}
	target := k.TargetRadius

	if outcome := w.resolveContact(ContactEvent{Self: w.KatamariBody(), Other: pb}); outcome != OutcomeIgnored {
		t.Fatalf("second outcome = %v, want ignored", outcome)
	}
	if k.ItemsCollected != 1 {
		t.Fatalf("ItemsCollected = %d after duplicate event, want 1", k.ItemsCollected)
	}
	if k.TargetRadius != target {
		t.Fatalf("target radius moved from %v to %v on duplicate event", target, k.TargetRadius)
	}
	if len(w.pendingRemovals) != 1 {
		t.Fatalf("pending removals = %d, want 1", len(w.pendingRemovals))
	}
}

func TestResolveContactRepulsesOversizedItem(t *testing.T) {
	w := newTestWorld(t)
	k, pb := spawnPair(t, w, 5, 10)

	outcome := w.resolveContact(ContactEvent{Self: w.KatamariBody(), Other: pb})
	if outcome != OutcomeRepulsed {
		t.Fatalf("outcome = %v, want repulsed", outcome)
	}
	if pb.Collected {
		t.Fatal("oversized item was absorbed")
	}
	if k.ItemsCollected != 0 {
		t.Fatalf("ItemsCollected = %d, want 0", k.ItemsCollected)
	}

	vel := k.Body.Velocity()
	if vel.Length() == 0 {
		t.Fatal("katamari velocity unchanged by repulsion")
	}
	// The item sits at larger x, so the bounce points toward -x.
	if vel.X >= 0 {
		t.Fatalf("bounce points the wrong way: %+v", vel)
	}
}

func TestResolveContactIgnoresNonItems(t *testing.T) {
	w := newTestWorld(t)
	k, _ := spawnPair(t, w, 0.5, 0.2)

	if outcome := w.resolveContact(ContactEvent{Self: w.KatamariBody(), Other: nil}); outcome != OutcomeIgnored {
		t.Fatalf("nil other outcome = %v, want ignored", outcome)
	}
	if outcome := w.resolveContact(ContactEvent{Self: w.KatamariBody(), Other: w.KatamariBody()}); outcome != OutcomeIgnored {
		t.Fatalf("katamari-kind outcome = %v, want ignored", outcome)
	}
	if k.ItemsCollected != 0 {
		t.Fatalf("ItemsCollected = %d, want 0", k.ItemsCollected)
	}
}

func TestResolveItemSizeRepairsFromOwner(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.SpawnKatamari(cp.Vector{Y: 0.5}, 0.5); err != nil {
		t.Fatalf("spawn katamari: %v", err)
	}
	owner := &fakeOwner{size: 0.35}
	pb, err := w.SpawnItem(0.35, cp.Vector{X: 3, Y: 0.2}, ShapeBall, "", owner)
	if err != nil {
		t.Fatalf("spawn item: %v", err)
	}

	pb.Size = 0
	size, ok := w.resolveItemSize(pb)
	if !ok || size != 0.35 {
		t.Fatalf("repaired size = %v (%v), want 0.35 from owner", size, ok)
	}
	if pb.Size != 0.35 {
		t.Fatalf("payload size not written back: %v", pb.Size)
	}
}

func TestResolveItemSizeRepairsFromShape(t *testing.T) {
	w := newTestWorld(t)
	pb, err := w.SpawnItem(0.4, cp.Vector{X: 3, Y: 0.2}, ShapeBall, "", nil)
	if err != nil {
		t.Fatalf("spawn item: %v", err)
	}

	pb.Size = 0
	size, ok := w.resolveItemSize(pb)
	if !ok || math.Abs(size-0.4) > 1e-9 {
		t.Fatalf("repaired size = %v (%v), want 0.4 from the circle shape", size, ok)
	}
}

func TestOwnerNotifiedOnCollect(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.SpawnKatamari(cp.Vector{Y: 0.5}, 0.5); err != nil {
		t.Fatalf("spawn katamari: %v", err)
	}
	owner := &fakeOwner{size: 0.2}
	pb, err := w.SpawnItem(0.2, cp.Vector{X: 3, Y: 0.1}, ShapeBall, "", owner)
	if err != nil {
		t.Fatalf("spawn item: %v", err)
	}

	if outcome := w.resolveContact(ContactEvent{Self: w.KatamariBody(), Other: pb}); outcome != OutcomeCollected {
		t.Fatalf("outcome = %v, want collected", outcome)
	}
	if !owner.collected {
		t.Fatal("owner was not notified of collection")
	}
}

func TestEngineDrivenCollection(t *testing.T) {
	w := newTestWorld(t)
	k, err := w.SpawnKatamari(cp.Vector{X: 0, Y: 0.5}, 0.5)
	if err != nil {
		t.Fatalf("spawn katamari: %v", err)
	}
	// Overlapping at spawn, so the contact fires on the first step.
	if _, err := w.SpawnItem(0.2, cp.Vector{X: 0.45, Y: 0.4}, ShapeBall, "", nil); err != nil {
		t.Fatalf("spawn item: %v", err)
	}

	dt := w.Params().Stepper.FixedStep
	for i := 0; i < 60 && k.ItemsCollected == 0; i++ {
		if err := w.Update(dt); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	if k.ItemsCollected != 1 {
		t.Fatal("engine contact never produced a collection")
	}
	if got := w.TrackedCount(); got != 1 {
		t.Fatalf("tracked = %d after collection, want 1 (katamari)", got)
	}
	report := w.Validate()
	if report.OrphanedBodies != 0 || report.FixedLeaks != 0 {
		t.Fatalf("collection leaked engine state: %+v", report)
	}
	if k.TargetRadius <= 0.5 {
		t.Fatalf("target radius %v did not grow", k.TargetRadius)
	}
}

func TestSurfacePointSitsOnBall(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.SpawnKatamari(cp.Vector{X: 0, Y: 5}, 5); err != nil {
		t.Fatalf("spawn katamari: %v", err)
	}
	pb, err := w.SpawnItem(10, cp.Vector{X: 12, Y: 5}, ShapeBall, "", nil)
	if err != nil {
		t.Fatalf("spawn item: %v", err)
	}

	got := w.surfacePoint(pb)
	if math.Abs(got.X-5) > 1e-9 || math.Abs(got.Y-5) > 1e-9 {
		t.Fatalf("surface point = %+v, want (5, 5)", got)
	}
}
