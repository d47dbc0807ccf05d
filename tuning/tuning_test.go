package tuning

import (
	"errors"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("embedded defaults should validate, got %v", err)
	}
	if p.Growth.BaseThreshold != 1.2 {
		t.Fatalf("expected base_threshold 1.2, got %v", p.Growth.BaseThreshold)
	}
	if p.Stepper.MaxStepsPerFrame != 3 {
		t.Fatalf("expected max_steps_per_frame 3, got %v", p.Stepper.MaxStepsPerFrame)
	}
	if p.World.Gravity >= 0 {
		t.Fatalf("expected downward gravity, got %v", p.World.Gravity)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero_iterations", func(p *Params) { p.World.Iterations = 0 }},
		{"zero_sleep_threshold", func(p *Params) { p.World.SleepTimeThreshold = 0 }},
		{"negative_idle_speed", func(p *Params) { p.World.IdleSpeedThreshold = -1 }},
		{"friction_too_high", func(p *Params) { p.World.Friction = 2.5 }},
		{"negative_friction", func(p *Params) { p.World.Friction = -0.1 }},
		{"elasticity_too_high", func(p *Params) { p.World.Elasticity = 3 }},
		{"zero_bounds", func(p *Params) { p.World.BoundsHalfExtent = 0 }},
		{"zero_wall_height", func(p *Params) { p.World.BoundsWallHeight = 0 }},
		{"zero_fixed_step", func(p *Params) { p.Stepper.FixedStep = 0 }},
		{"zero_max_steps", func(p *Params) { p.Stepper.MaxStepsPerFrame = 0 }},
		{"zero_base_threshold", func(p *Params) { p.Growth.BaseThreshold = 0 }},
		{"max_below_base", func(p *Params) { p.Growth.MaxThreshold = 0.5 }},
		{"negative_scaling_rate", func(p *Params) { p.Growth.ProgressiveScalingRate = -1 }},
		{"zero_volume_factor", func(p *Params) { p.Growth.VolumeContributionFactor = 0 }},
		{"volume_factor_above_one", func(p *Params) { p.Growth.VolumeContributionFactor = 1.5 }},
		{"negative_difficulty_rate", func(p *Params) { p.Growth.DifficultyScaleRate = -0.1 }},
		{"zero_size_ratio_mult", func(p *Params) { p.Growth.SizeRatioMultiplier = 0 }},
		{"zero_growth_reduction", func(p *Params) { p.Growth.GrowthRateReduction = 0 }},
		{"zero_converge_rate", func(p *Params) { p.Growth.ConvergeRate = 0 }},
		{"zero_snap_epsilon", func(p *Params) { p.Growth.SnapEpsilon = 0 }},
		{"zero_attach_surface", func(p *Params) { p.Growth.AttachSurfaceFactor = 0 }},
		{"attach_min_scale_above_one", func(p *Params) { p.Growth.AttachMinScale = 2 }},
		{"zero_attraction_min", func(p *Params) { p.Attraction.MinFactor = 0 }},
		{"attraction_max_below_min", func(p *Params) { p.Attraction.MaxFactor = 1.0 }},
		{"negative_attraction_impulse", func(p *Params) { p.Attraction.Impulse = -1 }},
		{"zero_active_distance", func(p *Params) { p.Activation.ActiveDistance = 0 }},
		{"zero_activation_interval", func(p *Params) { p.Activation.IntervalFrames = 0 }},
		{"negative_repulsion", func(p *Params) { p.Repulsion.Impulse = -1 }},
		{"zero_validate_interval", func(p *Params) { p.Integrity.ValidateIntervalFrames = 0 }},
		{"zero_deep_interval", func(p *Params) { p.Integrity.DeepIntervalFrames = 0 }},
		{"negative_max_nudge", func(p *Params) { p.Behavior.MaxNudge = -1 }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Default()
			c.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
