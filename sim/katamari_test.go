package sim

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/tuning"
)

func defaultKatamari(radius float64) *Katamari {
	p := tuning.Default()
	return NewKatamari(radius, p.Growth, p.Attraction)
}

func TestCollectionThresholdProgression(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		want   float64
	}{
		{"small ball uses near-base threshold", 0.5, 1.225},
		{"mid ball tightens", 4, 1.4},
		{"threshold caps out", 100, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := defaultKatamari(tt.radius)
			if got := k.CollectionThreshold(); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("threshold at radius %v = %v, want %v", tt.radius, got, tt.want)
			}
		})
	}
}

func TestCanCollect(t *testing.T) {
	tests := []struct {
		name     string
		radius   float64
		itemSize float64
		want     bool
	}{
		{"comfortably small item", 0.5, 0.3, true},
		{"item just under the cutoff", 0.5, 0.4, true},
		{"item just over the cutoff", 0.5, 0.42, false},
		{"huge item", 5, 10, false},
		{"capped threshold still collects half-size", 100, 49, true},
		{"capped threshold rejects over half-size", 100, 51, false},
		{"zero size", 0.5, 0, false},
		{"negative size", 0.5, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := defaultKatamari(tt.radius)
			if got := k.CanCollect(tt.itemSize); got != tt.want {
				t.Fatalf("CanCollect(%v) at radius %v = %v, want %v", tt.itemSize, tt.radius, got, tt.want)
			}
		})
	}
}

func TestCollectGrowthContribution(t *testing.T) {
	k := defaultKatamari(2)
	got := k.Collect(1)

	// By hand: 1 * 0.8 * (1 - 2*0.02) * min(1, 0.5*2) * 0.5 = 0.384,
	// cbrt(8 + 0.384) = 2.0315.
	if math.Abs(got-2.0315) > 5e-4 {
		t.Fatalf("target radius = %v, want about 2.0315", got)
	}

	p := tuning.Default().Growth
	contribution := 1.0 * p.VolumeContributionFactor *
		math.Max(0.1, 1-2*p.DifficultyScaleRate) *
		math.Min(1.0, (1.0/2.0)*p.SizeRatioMultiplier) *
		p.GrowthRateReduction
	want := math.Cbrt(8 + contribution)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("target radius = %v, want %v from the same parameters", got, want)
	}
	if k.ItemsCollected != 1 {
		t.Fatalf("ItemsCollected = %d, want 1", k.ItemsCollected)
	}
}

func TestCollectTargetMonotonic(t *testing.T) {
	k := defaultKatamari(1)
	sizes := []float64{0.5, 3, 0.01, 1.2, 0.0001, 8, 0.3}
	prev := k.TargetRadius
	for _, size := range sizes {
		got := k.Collect(size)
		if got < prev {
			t.Fatalf("target radius shrank from %v to %v after size %v", prev, got, size)
		}
		prev = got
	}
	if k.ItemsCollected != len(sizes) {
		t.Fatalf("ItemsCollected = %d, want %d", k.ItemsCollected, len(sizes))
	}
}

func TestCollectDifficultyFloorAtLargeRadius(t *testing.T) {
	k := defaultKatamari(500)
	before := k.TargetRadius
	k.Collect(100)
	// difficultyScale bottoms out at 0.1 instead of going negative, so
	// growth continues.
	if k.TargetRadius <= before {
		t.Fatalf("huge ball stopped growing: %v -> %v", before, k.TargetRadius)
	}
}

func TestUpdateConvergesWithoutOvershoot(t *testing.T) {
	k := defaultKatamari(2)
	k.TargetRadius = 3

	const dt = 1.0 / 60.0
	prev := k.Radius
	for i := 0; i < 10000; i++ {
		k.Update(dt, 0)
		if k.Radius < prev {
			t.Fatalf("radius shrank from %v to %v on frame %d", prev, k.Radius, i)
		}
		if k.Radius > k.TargetRadius {
			t.Fatalf("radius %v overshot target %v on frame %d", k.Radius, k.TargetRadius, i)
		}
		if rel := math.Abs(k.Mass-massFactor*k.Radius*k.Radius*k.Radius) / k.Mass; rel > 1e-12 {
			t.Fatalf("mass %v out of sync with radius %v on frame %d", k.Mass, k.Radius, i)
		}
		prev = k.Radius
		if k.Radius == k.TargetRadius {
			break
		}
	}
	if k.Radius != k.TargetRadius {
		t.Fatalf("radius %v never snapped to target %v", k.Radius, k.TargetRadius)
	}
}

func TestUpdateMassTracksRadiusCube(t *testing.T) {
	k := defaultKatamari(1)
	k.Collect(2)
	for i := 0; i < 5000 && k.Radius != k.TargetRadius; i++ {
		k.Update(1.0/60.0, 0)
	}
	want := massFactor * k.Radius * k.Radius * k.Radius
	if math.Abs(k.Mass-want) > 1e-9 {
		t.Fatalf("mass = %v, want %v", k.Mass, want)
	}
}

func TestAttractionRange(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		want   float64
	}{
		{"small ball", 0.5, 0.5 * 1.525},
		{"factor caps at max", 40, 40 * 3.0},
		{"tiny ball stays near min factor", 0.01, 0.01 * 1.5005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := defaultKatamari(tt.radius)
			if got := k.AttractionRange(); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("attraction range at radius %v = %v, want %v", tt.radius, got, tt.want)
			}
		})
	}
}

func TestAttachmentsSpiralAndScale(t *testing.T) {
	k := defaultKatamari(2)
	a1 := k.attach(1, 0.3, cp.Vector{})
	a2 := k.attach(2, 3.0, cp.Vector{})

	if a1.Angle == a2.Angle {
		t.Fatal("orbit slots did not advance between attachments")
	}
	if math.Abs(a1.Offset.Length()-2*0.85) > 1e-9 {
		t.Fatalf("offset length = %v, want %v", a1.Offset.Length(), 2*0.85)
	}
	if a1.Scale != 0.25 {
		t.Fatalf("small item scale = %v, want the floor 0.25", a1.Scale)
	}
	if a2.Scale != 1 {
		t.Fatalf("oversized item scale = %v, want the cap 1", a2.Scale)
	}
	if got := len(k.Attachments()); got != 2 {
		t.Fatalf("attachment count = %d, want 2", got)
	}
}

func TestAttachmentListBounded(t *testing.T) {
	k := defaultKatamari(2)
	for i := 0; i < maxAttachments+50; i++ {
		k.attach(i, 0.5, cp.Vector{X: 1})
	}
	if got := len(k.Attachments()); got != maxAttachments {
		t.Fatalf("attachment list grew to %d, want cap %d", got, maxAttachments)
	}
	last := k.Attachments()[maxAttachments-1]
	if last.ItemID != maxAttachments+49 {
		t.Fatalf("newest attachment lost, tail id = %d", last.ItemID)
	}
}
