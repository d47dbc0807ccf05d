package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("tuning: invalid params")

// Params is the full numeric tuning surface of the simulation. The world
// takes a copy at construction; hot reloads swap in a new validated copy.
type Params struct {
	World      WorldParams      `yaml:"world"`
	Stepper    StepperParams    `yaml:"stepper"`
	Growth     GrowthParams     `yaml:"growth"`
	Attraction AttractionParams `yaml:"attraction"`
	Activation ActivationParams `yaml:"activation"`
	Repulsion  RepulsionParams  `yaml:"repulsion"`
	Integrity  IntegrityParams  `yaml:"integrity"`
	Behavior   BehaviorParams   `yaml:"behavior"`
}

type WorldParams struct {
	Gravity             float64 `yaml:"gravity"`
	Iterations          int     `yaml:"iterations"`
	SleepTimeThreshold  float64 `yaml:"sleep_time_threshold"`
	IdleSpeedThreshold  float64 `yaml:"idle_speed_threshold"`
	Friction            float64 `yaml:"friction"`
	Elasticity          float64 `yaml:"elasticity"`
	BoundsHalfExtent    float64 `yaml:"bounds_half_extent"`
	BoundsWallHeight    float64 `yaml:"bounds_wall_height"`
}

type StepperParams struct {
	FixedStep        float64 `yaml:"fixed_step"`
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"`
}

type GrowthParams struct {
	BaseThreshold            float64 `yaml:"base_threshold"`
	MaxThreshold             float64 `yaml:"max_threshold"`
	ProgressiveScalingRate   float64 `yaml:"progressive_scaling_rate"`
	VolumeContributionFactor float64 `yaml:"volume_contribution_factor"`
	DifficultyScaleRate      float64 `yaml:"difficulty_scale_rate"`
	SizeRatioMultiplier      float64 `yaml:"size_ratio_multiplier"`
	GrowthRateReduction      float64 `yaml:"growth_rate_reduction"`
	ConvergeRate             float64 `yaml:"converge_rate"`
	ConvergeGapRate          float64 `yaml:"converge_gap_rate"`
	SnapEpsilon              float64 `yaml:"snap_epsilon"`
	AttachSurfaceFactor      float64 `yaml:"attach_surface_factor"`
	AttachMinScale           float64 `yaml:"attach_min_scale"`
}

type AttractionParams struct {
	MinFactor  float64 `yaml:"min_factor"`
	MaxFactor  float64 `yaml:"max_factor"`
	GrowthRate float64 `yaml:"growth_rate"`
	Impulse    float64 `yaml:"impulse"`
}

type ActivationParams struct {
	ActiveDistance float64 `yaml:"active_distance"`
	IntervalFrames int     `yaml:"interval_frames"`
}

type RepulsionParams struct {
	Impulse float64 `yaml:"impulse"`
}

type IntegrityParams struct {
	ValidateIntervalFrames int `yaml:"validate_interval_frames"`
	DeepIntervalFrames     int `yaml:"deep_interval_frames"`
}

type BehaviorParams struct {
	MaxNudge float64 `yaml:"max_nudge"`
}

// Default returns the embedded defaults. It panics on a corrupt embed
// since that is a build defect, not a runtime condition.
func Default() Params {
	p, err := parse(defaultsYAML)
	if err != nil {
		panic("tuning: embedded defaults: " + err.Error())
	}
	return p
}

// Load reads and validates a params file from disk.
func Load(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("tuning: load %s: %w", path, err)
	}
	p, err := parse(data)
	if err != nil {
		return Params{}, fmt.Errorf("tuning: load %s: %w", path, err)
	}
	return p, nil
}

func parse(data []byte) (Params, error) {
	p := Params{}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("tuning: unmarshal: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks every field the simulation depends on. The world
// configuration sanity pass re-checks the live space against the same
// bounds at runtime.
func (p Params) Validate() error {
	if p.World.Iterations < 1 {
		return fmt.Errorf("%w: world.iterations must be >= 1", ErrInvalid)
	}
	if p.World.SleepTimeThreshold <= 0 {
		return fmt.Errorf("%w: world.sleep_time_threshold must be > 0", ErrInvalid)
	}
	if p.World.IdleSpeedThreshold < 0 {
		return fmt.Errorf("%w: world.idle_speed_threshold must be >= 0", ErrInvalid)
	}
	if p.World.Friction < 0 || p.World.Friction > 2 {
		return fmt.Errorf("%w: world.friction must be in [0, 2]", ErrInvalid)
	}
	if p.World.Elasticity < 0 || p.World.Elasticity > 2 {
		return fmt.Errorf("%w: world.elasticity must be in [0, 2]", ErrInvalid)
	}
	if p.World.BoundsHalfExtent <= 0 {
		return fmt.Errorf("%w: world.bounds_half_extent must be > 0", ErrInvalid)
	}
	if p.World.BoundsWallHeight <= 0 {
		return fmt.Errorf("%w: world.bounds_wall_height must be > 0", ErrInvalid)
	}
	if p.Stepper.FixedStep <= 0 {
		return fmt.Errorf("%w: stepper.fixed_step must be > 0", ErrInvalid)
	}
	if p.Stepper.MaxStepsPerFrame < 1 {
		return fmt.Errorf("%w: stepper.max_steps_per_frame must be >= 1", ErrInvalid)
	}
	if p.Growth.BaseThreshold <= 0 {
		return fmt.Errorf("%w: growth.base_threshold must be > 0", ErrInvalid)
	}
	if p.Growth.MaxThreshold < p.Growth.BaseThreshold {
		return fmt.Errorf("%w: growth.max_threshold must be >= growth.base_threshold", ErrInvalid)
	}
	if p.Growth.ProgressiveScalingRate < 0 {
		return fmt.Errorf("%w: growth.progressive_scaling_rate must be >= 0", ErrInvalid)
	}
	if p.Growth.VolumeContributionFactor <= 0 || p.Growth.VolumeContributionFactor > 1 {
		return fmt.Errorf("%w: growth.volume_contribution_factor must be in (0, 1]", ErrInvalid)
	}
	if p.Growth.DifficultyScaleRate < 0 {
		return fmt.Errorf("%w: growth.difficulty_scale_rate must be >= 0", ErrInvalid)
	}
	if p.Growth.SizeRatioMultiplier <= 0 {
		return fmt.Errorf("%w: growth.size_ratio_multiplier must be > 0", ErrInvalid)
	}
	if p.Growth.GrowthRateReduction <= 0 || p.Growth.GrowthRateReduction > 1 {
		return fmt.Errorf("%w: growth.growth_rate_reduction must be in (0, 1]", ErrInvalid)
	}
	if p.Growth.ConvergeRate <= 0 {
		return fmt.Errorf("%w: growth.converge_rate must be > 0", ErrInvalid)
	}
	if p.Growth.ConvergeGapRate < 0 {
		return fmt.Errorf("%w: growth.converge_gap_rate must be >= 0", ErrInvalid)
	}
	if p.Growth.SnapEpsilon <= 0 {
		return fmt.Errorf("%w: growth.snap_epsilon must be > 0", ErrInvalid)
	}
	if p.Growth.AttachSurfaceFactor <= 0 || p.Growth.AttachSurfaceFactor > 1 {
		return fmt.Errorf("%w: growth.attach_surface_factor must be in (0, 1]", ErrInvalid)
	}
	if p.Growth.AttachMinScale <= 0 || p.Growth.AttachMinScale > 1 {
		return fmt.Errorf("%w: growth.attach_min_scale must be in (0, 1]", ErrInvalid)
	}
	if p.Attraction.MinFactor <= 0 {
		return fmt.Errorf("%w: attraction.min_factor must be > 0", ErrInvalid)
	}
	if p.Attraction.MaxFactor < p.Attraction.MinFactor {
		return fmt.Errorf("%w: attraction.max_factor must be >= attraction.min_factor", ErrInvalid)
	}
	if p.Attraction.GrowthRate < 0 {
		return fmt.Errorf("%w: attraction.growth_rate must be >= 0", ErrInvalid)
	}
	if p.Attraction.Impulse < 0 {
		return fmt.Errorf("%w: attraction.impulse must be >= 0", ErrInvalid)
	}
	if p.Activation.ActiveDistance <= 0 {
		return fmt.Errorf("%w: activation.active_distance must be > 0", ErrInvalid)
	}
	if p.Activation.IntervalFrames < 1 {
		return fmt.Errorf("%w: activation.interval_frames must be >= 1", ErrInvalid)
	}
	if p.Repulsion.Impulse < 0 {
		return fmt.Errorf("%w: repulsion.impulse must be >= 0", ErrInvalid)
	}
	if p.Integrity.ValidateIntervalFrames < 1 {
		return fmt.Errorf("%w: integrity.validate_interval_frames must be >= 1", ErrInvalid)
	}
	if p.Integrity.DeepIntervalFrames < 1 {
		return fmt.Errorf("%w: integrity.deep_interval_frames must be >= 1", ErrInvalid)
	}
	if p.Behavior.MaxNudge < 0 {
		return fmt.Errorf("%w: behavior.max_nudge must be >= 0", ErrInvalid)
	}
	return nil
}
