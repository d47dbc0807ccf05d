package sim

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/common"
	"github.com/milk9111/roller/tuning"
)

// massFactor converts radius to mass so mass stays a pure function of
// the displayed radius.
const massFactor = 12.5

// Katamari is the player ball: a dynamic circle whose radius grows by
// absorbing items. The displayed Radius trails TargetRadius and only
// ever converges upward toward it.
type Katamari struct {
	Radius         float64
	TargetRadius   float64
	Mass           float64
	ItemsCollected int

	Body  *cp.Body
	Shape *cp.Shape

	attachments []Attachment
	orbitAngle  float64

	// radius at the last mass and shape sync
	syncedRadius float64

	growth     tuning.GrowthParams
	attraction tuning.AttractionParams
}

// NewKatamari builds the growth state for a starting radius, which must
// be positive. The engine body is attached by the spawn path.
func NewKatamari(radius float64, growth tuning.GrowthParams, attraction tuning.AttractionParams) *Katamari {
	return &Katamari{
		Radius:       radius,
		TargetRadius: radius,
		Mass:         massFactor * radius * radius * radius,
		syncedRadius: radius,
		growth:       growth,
		attraction:   attraction,
	}
}

// SetParams swaps the tuning mid-run, for live-reloaded configs.
func (k *Katamari) SetParams(growth tuning.GrowthParams, attraction tuning.AttractionParams) {
	if k == nil {
		return
	}
	k.growth = growth
	k.attraction = attraction
}

// CollectionThreshold is the multiplier an item size is held against:
// it starts at the base threshold and tightens as the ball grows, so
// large balls cannot hoover up everything in one pass.
func (k *Katamari) CollectionThreshold() float64 {
	return math.Min(k.growth.MaxThreshold, k.growth.BaseThreshold+k.Radius*k.growth.ProgressiveScalingRate)
}

// CanCollect reports whether an item of the given size is absorbable at
// the current radius.
func (k *Katamari) CanCollect(itemSize float64) bool {
	if k == nil || itemSize <= 0 {
		return false
	}
	return k.Radius >= itemSize*k.CollectionThreshold()
}

// Collect folds an item volume into the target radius and returns the
// new target. Growth is volume conserving but deliberately lossy: the
// contribution shrinks as the ball grows and as the size ratio falls,
// flattening the curve at large radii.
func (k *Katamari) Collect(itemSize float64) float64 {
	if k == nil || itemSize <= 0 {
		return 0
	}
	itemVolume := itemSize * itemSize * itemSize
	difficultyScale := math.Max(0.1, 1-k.Radius*k.growth.DifficultyScaleRate)
	sizeRatio := math.Min(1.0, (itemSize/k.Radius)*k.growth.SizeRatioMultiplier)
	contribution := itemVolume * k.growth.VolumeContributionFactor * difficultyScale * sizeRatio * k.growth.GrowthRateReduction

	// Grow from the pending target volume so rapid pickups can never
	// walk the target backward.
	base := k.TargetRadius * k.TargetRadius * k.TargetRadius
	k.TargetRadius = math.Cbrt(base + contribution)
	k.ItemsCollected++
	return k.TargetRadius
}

// AttractionRange is the reach within which not-yet-collectible items
// get pulled toward the ball.
func (k *Katamari) AttractionRange() float64 {
	if k == nil {
		return 0
	}
	f := common.Clamp(
		k.attraction.MinFactor+k.Radius*k.attraction.GrowthRate,
		k.attraction.MinFactor,
		k.attraction.MaxFactor,
	)
	return k.Radius * f
}

// Update advances the displayed radius toward the target, keeps mass in
// sync and clamps the body above the floor and inside the map bounds.
// It reports whether the radius moved far enough since the last sync to
// need an engine shape rebuild.
func (k *Katamari) Update(dt, boundsHalfExtent float64) bool {
	if k == nil || dt <= 0 {
		return false
	}

	if gap := k.TargetRadius - k.Radius; gap > 0 {
		if gap <= k.growth.SnapEpsilon {
			k.Radius = k.TargetRadius
		} else {
			rate := common.Clamp((k.growth.ConvergeRate+gap*k.growth.ConvergeGapRate)*dt, 0, 1)
			k.Radius += gap * rate
		}
		k.Mass = massFactor * k.Radius * k.Radius * k.Radius
	}

	resized := false
	if math.Abs(k.Radius-k.syncedRadius) > k.growth.SnapEpsilon {
		k.syncedRadius = k.Radius
		if k.Body != nil {
			k.Body.SetMass(k.Mass)
			k.Body.SetMoment(cp.MomentForCircle(k.Mass, 0, k.Radius, cp.Vector{}))
		}
		resized = true
	}

	if k.Body != nil {
		pos := k.Body.Position()
		clamped := pos
		if clamped.Y < k.Radius {
			clamped.Y = k.Radius
		}
		if boundsHalfExtent > 0 {
			clamped.X = common.Clamp(clamped.X, -boundsHalfExtent+k.Radius, boundsHalfExtent-k.Radius)
		}
		if clamped != pos {
			k.Body.SetPosition(clamped)
		}
	}

	return resized
}
