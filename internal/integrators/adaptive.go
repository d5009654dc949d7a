package integrators

import (
	"math"

	"github.com/san-kum/fuelcycle/internal/dynamo"
)

const (
	DefaultTolerance   = 1e-6
	DefaultMinDt       = 1e-6
	DefaultMaxDt       = 100.0
	DefaultWarmupTime  = 1000.0
	DefaultWarmupMaxDt = 10.0
)

// order of the forward Euler method, used as the exponent of the step
// rescaling.
const order = 1

// ResidualControl adapts the Euler step from the one-step residual
// ‖y_new − (y + dt·f(y_new))‖. The residual is not an embedded error
// estimate; it measures how much the derivative moved across the step.
//
// Steps are clamped to [MinDt, WarmupMaxDt] while t < WarmupTime and to
// [MinDt, MaxDt] afterwards.
type ResidualControl struct {
	Tolerance   float64
	MinDt       float64
	MaxDt       float64
	WarmupTime  float64
	WarmupMaxDt float64
}

func NewResidualControl() *ResidualControl {
	return &ResidualControl{
		Tolerance:   DefaultTolerance,
		MinDt:       DefaultMinDt,
		MaxDt:       DefaultMaxDt,
		WarmupTime:  DefaultWarmupTime,
		WarmupMaxDt: DefaultWarmupMaxDt,
	}
}

// Next returns the step size for the step after one of size dt taken at t.
// sys must already be committed to xNew.
func (c *ResidualControl) Next(sys dynamo.System, xNew, x dynamo.State, t, dt float64) (float64, error) {
	fNew := sys.Derive(t + dt)
	if !fNew.IsValid() {
		return c.MinDt, dynamo.ErrUnstable
	}

	residual := xNew.Sub(x.Add(fNew.Scale(dt))).Norm()
	limit := c.Cap(t)

	var next float64
	if residual == 0 {
		next = limit
	} else {
		next = dt * math.Pow(c.Tolerance/residual, order)
	}

	return math.Min(limit, math.Max(c.MinDt, next)), nil
}

// Cap is the largest step allowed at simulated time t.
func (c *ResidualControl) Cap(t float64) float64 {
	if t < c.WarmupTime {
		return c.WarmupMaxDt
	}
	return c.MaxDt
}
