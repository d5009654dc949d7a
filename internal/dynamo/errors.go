package dynamo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an inventory vector handed to the
	// component map holds a NaN or an infinite inventory.
	ErrInvalidState = errors.New("dynamo: non-finite inventory")

	// ErrUnstable is returned when an Euler step or the residual check
	// produces a non-finite inventory or derivative.
	ErrUnstable = errors.New("dynamo: inventories diverged")

	// ErrParameterBounds is returned for run settings outside their valid
	// range, such as a non-positive step or inverted step bounds.
	ErrParameterBounds = errors.New("dynamo: run setting out of range")

	// ErrContextCanceled is returned when a run or a calibration loop is
	// aborted between steps.
	ErrContextCanceled = errors.New("dynamo: run canceled")

	// ErrStepTooSmall is returned when the residual control keeps the step
	// at MinDt for longer than MaxStalledSteps.
	ErrStepTooSmall = errors.New("dynamo: step stalled at minimum")

	// ErrDimensionMismatch is returned when an inventory vector does not
	// have one entry per component.
	ErrDimensionMismatch = errors.New("dynamo: inventory length does not match component count")
)

// SimulationError records where in the time loop a run failed.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d at t=%.4g s: %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
