package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/fuelcycle/internal/config"
	"github.com/san-kum/fuelcycle/internal/damage"
	"github.com/san-kum/fuelcycle/internal/plant"
	"github.com/san-kum/fuelcycle/internal/sim"
)

// Sweep parameter names understood by ApplyParams.
const (
	ParamTBR      = "tbr"
	ParamIStartup = "i_startup"
)

type Experiment struct {
	cfg       *config.Config
	network   *plant.ComponentMap
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup builds the network and simulator from the scenario and attaches the
// registry's default metrics.
func (e *Experiment) Setup(reg *Registry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	net, err := BuildNetwork(reg, e.cfg)
	if err != nil {
		return err
	}

	model, err := reg.GetTrapModel(e.cfg.Simulation.TrapModel)
	if err != nil {
		return err
	}
	opts := []sim.Option{sim.WithLogger(logger), sim.WithTrapModel(model)}
	if e.cfg.Simulation.DamageRate > 0 || e.cfg.Simulation.TrapFeedback > 0 {
		rate := e.cfg.Simulation.DamageRate
		if rate <= 0 {
			rate = damage.DefaultRate
		}
		feedback := e.cfg.Simulation.TrapFeedback
		if feedback <= 0 {
			feedback = damage.DefaultFeedback
		}
		opts = append(opts, sim.WithDamageRate(rate, feedback))
	}

	s, err := sim.New(net, SimConfig(e.cfg.Simulation), opts...)
	if err != nil {
		return err
	}
	name := net.Names()[s.FuelingIndex()]
	for _, m := range reg.DefaultMetrics(name, s.FuelingIndex(), e.cfg.Simulation.IReserve) {
		s.AddMetric(m)
	}

	e.network = net
	e.simulator = s
	return nil
}

// Run executes the calibration loop.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx)
}

// Evaluate runs a single attempt at the scenario's current parameters.
func (e *Experiment) Evaluate(ctx context.Context) (sim.Attempt, error) {
	if e.simulator == nil {
		return sim.Attempt{}, fmt.Errorf("experiment not setup")
	}
	a, _, err := e.simulator.Evaluate(ctx)
	return a, err
}

func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Network() *plant.ComponentMap { return e.network }
func (e *Experiment) Config() *config.Config       { return e.cfg }

// BuildNetwork instantiates every component in declaration order and wires
// the connections, creating ports as they are named.
func BuildNetwork(reg *Registry, cfg *config.Config) (*plant.ComponentMap, error) {
	net := plant.NewComponentMap()
	for _, cc := range cfg.Components {
		n, err := reg.GetComponent(cc)
		if err != nil {
			return nil, err
		}
		if err := net.AddComponent(n); err != nil {
			return nil, err
		}
	}

	for _, conn := range cfg.Connections {
		src, ok := net.Component(conn.From)
		if !ok {
			return nil, fmt.Errorf("%w: %s", plant.ErrUnknownComponent, conn.From)
		}
		dst, ok := net.Component(conn.To)
		if !ok {
			return nil, fmt.Errorf("%w: %s", plant.ErrUnknownComponent, conn.To)
		}
		out, err := ensurePort(src.Base(), conn.OutputPort(), plant.Output, 0)
		if err != nil {
			return nil, err
		}
		in, err := ensurePort(dst.Base(), conn.InputPort(), plant.Input, conn.IncomingFraction())
		if err != nil {
			return nil, err
		}
		if err := net.ConnectPorts(src, out, dst, in); err != nil {
			return nil, err
		}
	}
	return net, nil
}

func ensurePort(c *plant.Component, name string, dir plant.Direction, fraction float64) (*plant.Port, error) {
	if p, ok := c.Port(name); ok {
		if p.Direction() != dir {
			return nil, fmt.Errorf("%w: %s.%s is an %s port", plant.ErrPortOwnership, c.Name(), name, p.Direction())
		}
		return p, nil
	}
	if dir == plant.Output {
		return c.AddOutputPort(name), nil
	}
	return c.AddInputPort(name, fraction), nil
}

func SimConfig(s config.SimulationConfig) sim.Config {
	return sim.Config{
		Dt:                 s.Dt,
		FinalTime:          s.FinalTime,
		Adaptive:           s.Adaptive,
		DtMax:              s.DtMax,
		MinDt:              s.MinDt,
		WarmupTime:         s.WarmupTime,
		WarmupMaxDt:        s.WarmupDtMax,
		StepTolerance:      s.StepTolerance,
		MaxStalledSteps:    s.MaxStalledSteps,
		IReserve:           s.IReserve,
		ReserveTolerance:   s.ReserveTolerance,
		MaxSimulations:     s.MaxSimulations,
		TBRAccuracy:        s.TBRAccuracy,
		TargetDoublingTime: s.TargetDoublingTime,
		FuelingName:        s.Fueling,
		BlanketName:        s.Blanket,
	}
}

// ApplyParams writes sweep parameters into a scenario: tbr goes to the
// calibrated blanket and i_startup to the fueling component's initial
// inventory.
func ApplyParams(cfg *config.Config, params map[string]float64) error {
	for name, v := range params {
		switch name {
		case ParamTBR:
			bb := cfg.Blanket()
			if bb == nil {
				return fmt.Errorf("scenario %s has no blanket", cfg.Name)
			}
			bb.TBR = v
		case ParamIStartup:
			fs := cfg.Component(cfg.Simulation.Fueling)
			if fs == nil && len(cfg.Components) > 0 {
				fs = &cfg.Components[0]
			}
			if fs == nil {
				return fmt.Errorf("scenario %s has no fueling component", cfg.Name)
			}
			fs.InitialInventory = v
		default:
			return fmt.Errorf("unknown parameter: %s", name)
		}
	}
	return nil
}
