package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/fuelcycle/internal/damage"
	"github.com/san-kum/fuelcycle/internal/dynamo"
	"github.com/san-kum/fuelcycle/internal/integrators"
	"github.com/san-kum/fuelcycle/internal/plant"
)

// Simulator owns one plant network and drives its integration and the
// calibration loop around it. It is not safe for concurrent use.
type Simulator struct {
	net        *plant.ComponentMap
	cfg        Config
	integrator dynamo.Integrator
	control    dynamo.StepController
	damage     *damage.Tracker

	fueling    int
	blanket    *plant.BreedingBlanket
	blanketTau float64
	initial    dynamo.State
	iStartup   float64

	time float64
	dt   float64
	traj *Trajectory

	metrics          []Metric
	observers        []Observer
	attemptObservers []AttemptObserver
	logger           *slog.Logger
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTrapModel(m damage.TrapModel) Option {
	return func(s *Simulator) { s.damage.Model = m }
}

// WithDamageRate overrides the dpa accumulation rate (dpa/s) and the trap
// feedback factor.
func WithDamageRate(rate, feedback float64) Option {
	return func(s *Simulator) {
		s.damage.Rate = rate
		s.damage.Feedback = feedback
	}
}

// New validates the network and configuration and snapshots the network's
// inventories as the initial condition. The topology must not change
// afterwards.
func New(net *plant.ComponentMap, cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if net.StateDim() == 0 {
		return nil, fmt.Errorf("%w: empty network", dynamo.ErrParameterBounds)
	}

	s := &Simulator{
		net:        net,
		cfg:        cfg,
		integrator: integrators.NewEuler(),
		control: &integrators.ResidualControl{
			Tolerance:   cfg.StepTolerance,
			MinDt:       cfg.MinDt,
			MaxDt:       cfg.DtMax,
			WarmupTime:  cfg.WarmupTime,
			WarmupMaxDt: cfg.WarmupMaxDt,
		},
		damage: damage.NewTracker(damage.Linear{}),
		logger: slog.New(slog.DiscardHandler),
		dt:     cfg.Dt,
	}
	for _, opt := range opts {
		opt(s)
	}
	net.SetLogger(s.logger)

	if cfg.FuelingName != "" {
		idx, ok := net.Index(cfg.FuelingName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", plant.ErrUnknownComponent, cfg.FuelingName)
		}
		s.fueling = idx
	}
	if err := s.findBlanket(); err != nil {
		return nil, err
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}

	s.initial = net.State()
	s.iStartup = s.initial[s.fueling]
	return s, nil
}

func (s *Simulator) findBlanket() error {
	for _, n := range s.net.Nodes() {
		bb, ok := n.(*plant.BreedingBlanket)
		if !ok {
			continue
		}
		if s.cfg.BlanketName == "" || bb.Name() == s.cfg.BlanketName {
			s.blanket = bb
			s.blanketTau = bb.ResidenceTime
			return nil
		}
	}
	if s.cfg.BlanketName != "" {
		return fmt.Errorf("%w: blanket %s", plant.ErrUnknownComponent, s.cfg.BlanketName)
	}
	return nil
}

func (s *Simulator) AddMetric(m Metric)                   { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)               { s.observers = append(s.observers, o) }
func (s *Simulator) AddAttemptObserver(o AttemptObserver) { s.attemptObservers = append(s.attemptObservers, o) }
func (s *Simulator) Network() *plant.ComponentMap         { return s.net }
func (s *Simulator) Config() Config                       { return s.cfg }
func (s *Simulator) Blanket() *plant.BreedingBlanket      { return s.blanket }
func (s *Simulator) FuelingIndex() int                    { return s.fueling }
func (s *Simulator) IStartup() float64                    { return s.iStartup }
func (s *Simulator) Time() float64                        { return s.time }
func (s *Simulator) Trajectory() *Trajectory              { return s.traj }
func (s *Simulator) InitialCondition() dynamo.State       { return s.initial.Clone() }

// Restart rewinds time, histories, the blanket residence time and every
// inventory to the initial condition. The current startup inventory is
// written into the fueling slot first; TBR is left alone.
func (s *Simulator) Restart() error {
	s.initial[s.fueling] = s.iStartup
	if err := s.net.Reset(s.initial); err != nil {
		return err
	}
	if s.blanket != nil {
		s.blanket.ResidenceTime = s.blanketTau
	}
	s.damage.Reset()
	s.time = 0
	s.dt = s.cfg.Dt
	s.traj = nil
	return nil
}

// Integrate runs one forward Euler integration from the network's current
// state at t=0 until FinalTime. The last sample may lie past FinalTime.
func (s *Simulator) Integrate(ctx context.Context) (*Trajectory, error) {
	s.time = 0
	s.dt = s.cfg.Dt
	s.traj = &Trajectory{}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.net.UpdateFlowRates()
	x := s.net.State()
	s.record(x)

	stalled := 0
	for step := 0; s.time < s.cfg.FinalTime; step++ {
		select {
		case <-ctx.Done():
			return s.traj, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		t, dt := s.time, s.dt
		if s.blanket != nil {
			s.blanket.ResidenceTime += s.damage.ResidenceIncrement(t)
		}
		if err := s.net.Prepare(t, dt); err != nil {
			return s.traj, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: err}
		}
		s.net.StoreFlows()

		xEuler := s.integrator.Step(s.net, x, t, dt)
		if !xEuler.IsValid() {
			return s.traj, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: dynamo.ErrUnstable}
		}

		committed, err := s.net.Commit(xEuler, t, dt)
		if err != nil {
			return s.traj, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: err}
		}
		s.net.UpdateFlowRates()

		next := dt
		if s.cfg.Adaptive {
			next, err = s.control.Next(s.net, xEuler, x, t, dt)
			if err != nil {
				return s.traj, &dynamo.SimulationError{Step: step, Time: t, State: committed, Wrapped: err}
			}
			if next <= s.cfg.MinDt {
				stalled++
			} else {
				stalled = 0
			}
			if s.cfg.MaxStalledSteps > 0 && stalled > s.cfg.MaxStalledSteps {
				return s.traj, &dynamo.SimulationError{Step: step, Time: t, State: committed, Wrapped: dynamo.ErrStepTooSmall}
			}
		}

		x = committed
		s.time = t + dt
		s.dt = next
		s.traj.StepsTaken++
		s.record(x)
	}

	return s.traj, nil
}

func (s *Simulator) record(x dynamo.State) {
	s.damage.Record(s.time)
	s.traj.Times = append(s.traj.Times, s.time)
	s.traj.States = append(s.traj.States, x.Clone())
	s.traj.DPA = append(s.traj.DPA, s.damage.DPA())
	s.traj.Traps = append(s.traj.Traps, s.damage.Trap())

	for _, m := range s.metrics {
		m.Observe(x, s.time)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, s.time)
	}
}
