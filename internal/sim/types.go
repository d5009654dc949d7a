package sim

import (
	"fmt"

	"github.com/san-kum/fuelcycle/internal/dynamo"
)

type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// Observer is called for every recorded sample of an integration, including
// the initial condition.
type Observer interface {
	OnStep(x dynamo.State, t float64)
}

// AttemptObserver is called once per calibration attempt, after its verdict
// is known and before any restart.
type AttemptObserver interface {
	OnAttempt(a Attempt)
}

type ObserverFunc func(x dynamo.State, t float64)

func (f ObserverFunc) OnStep(x dynamo.State, t float64) { f(x, t) }

type AttemptObserverFunc func(a Attempt)

func (f AttemptObserverFunc) OnAttempt(a Attempt) { f(a) }

type Config struct {
	Dt        float64
	FinalTime float64

	// Adaptive step control. Ignored when Adaptive is false.
	Adaptive        bool
	DtMax           float64
	MinDt           float64
	WarmupTime      float64
	WarmupMaxDt     float64
	StepTolerance   float64
	MaxStalledSteps int

	IReserve           float64
	ReserveTolerance   float64
	MaxSimulations     int
	TBRAccuracy        float64
	TargetDoublingTime float64 // years

	// FuelingName is the reference component for the reserve and doubling
	// checks. Empty selects the first component.
	FuelingName string
	// BlanketName selects the breeding blanket driven by calibration. Empty
	// selects the first blanket in the network.
	BlanketName string
}

func DefaultConfig() Config {
	return Config{
		Dt:                 1,
		FinalTime:          2 * 365 * 24 * 3600,
		Adaptive:           true,
		DtMax:              10000,
		MinDt:              1e-6,
		WarmupTime:         1000,
		WarmupMaxDt:        10,
		StepTolerance:      1e-6,
		MaxStalledSteps:    1000,
		ReserveTolerance:   1e-3,
		MaxSimulations:     100,
		TBRAccuracy:        1e-3,
		TargetDoublingTime: 2,
	}
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, c.Dt)
	}
	if c.FinalTime <= 0 {
		return fmt.Errorf("%w: final time must be positive, got %g", dynamo.ErrParameterBounds, c.FinalTime)
	}
	if c.MaxSimulations < 1 {
		return fmt.Errorf("%w: max simulations must be at least 1, got %d", dynamo.ErrParameterBounds, c.MaxSimulations)
	}
	if c.TBRAccuracy < 0 || c.ReserveTolerance < 0 {
		return fmt.Errorf("%w: accuracies must be non-negative", dynamo.ErrParameterBounds)
	}
	if c.Adaptive {
		if c.StepTolerance <= 0 {
			return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", dynamo.ErrParameterBounds)
		}
		if c.MinDt <= 0 || c.DtMax < c.MinDt || c.WarmupMaxDt < c.MinDt {
			return fmt.Errorf("%w: step bounds min=%g max=%g warmup=%g",
				dynamo.ErrParameterBounds, c.MinDt, c.DtMax, c.WarmupMaxDt)
		}
	}
	return nil
}

// Outcome is the verdict on one calibration attempt.
type Outcome int

const (
	Accepted Outcome = iota
	ReserveDeficit
	SlowDoubling
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case ReserveDeficit:
		return "reserve_deficit"
	case SlowDoubling:
		return "slow_doubling"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Attempt records the parameters and verdict of one forward integration.
type Attempt struct {
	Number       int
	TBR          float64
	IStartup     float64
	DoublingTime float64
	// MinMargin is the smallest fueling inventory minus the reserve.
	MinMargin float64
	Steps     int
	Outcome   Outcome
}

// Trajectory is the recorded output of one forward integration. Times,
// States, DPA and Traps are aligned sample by sample.
type Trajectory struct {
	Times      []float64
	States     []dynamo.State
	DPA        []float64
	Traps      []float64
	StepsTaken int
}

// Column extracts one component's inventory series.
func (tr *Trajectory) Column(i int) []float64 {
	col := make([]float64, len(tr.States))
	for k, x := range tr.States {
		col[k] = x[i]
	}
	return col
}

// trim drops trailing samples recorded after finalTime.
func (tr *Trajectory) trim(finalTime float64) {
	n := len(tr.Times)
	for n > 0 && tr.Times[n-1] > finalTime {
		n--
	}
	tr.Times = tr.Times[:n]
	tr.States = tr.States[:n]
	tr.DPA = tr.DPA[:n]
	tr.Traps = tr.Traps[:n]
}

type Result struct {
	Names []string
	Trajectory

	DoublingTime float64
	TBR          float64
	IStartup     float64
	Outcome      Outcome
	// Converged is false when max simulations ran out before both the
	// reserve and the doubling-time targets were met.
	Converged bool
	Attempts  []Attempt
	Metrics   map[string]float64
}
