package sim

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/roller/tuning"
)

// Stepper drives the engine at a fixed timestep from variable frame
// deltas. A slow frame can never schedule an unbounded catch-up burst:
// the incoming delta is clamped, the steps per call are capped, and on
// hitting the cap the leftover accumulator is discarded.
type Stepper struct {
	FixedStep        float64
	MaxStepsPerFrame int

	accumulator float64
}

func NewStepper(p tuning.StepperParams) *Stepper {
	return &Stepper{
		FixedStep:        p.FixedStep,
		MaxStepsPerFrame: p.MaxStepsPerFrame,
	}
}

// Advance consumes dt and steps the space zero or more times, returning
// the number of fixed steps executed.
func (s *Stepper) Advance(space *cp.Space, dt float64) int {
	if s == nil || space == nil || s.FixedStep <= 0 || s.MaxStepsPerFrame <= 0 {
		return 0
	}
	if dt < 0 {
		dt = 0
	}
	if limit := 3 * s.FixedStep; dt > limit {
		dt = limit
	}
	s.accumulator += dt

	steps := 0
	for s.accumulator >= s.FixedStep && steps < s.MaxStepsPerFrame {
		space.Step(s.FixedStep)
		s.accumulator -= s.FixedStep
		steps++
	}
	if steps >= s.MaxStepsPerFrame {
		// Drop the leftover rather than carry debt into the next frame.
		s.accumulator = 0
	}
	return steps
}

// Accumulator exposes the pending fraction of a step, for diagnostics.
func (s *Stepper) Accumulator() float64 {
	if s == nil {
		return 0
	}
	return s.accumulator
}
