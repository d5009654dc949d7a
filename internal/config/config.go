package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt                 = 1.0
	DefaultFinalTime          = 2 * 365 * 24 * 3600.0
	DefaultDtMax              = 10000.0
	DefaultMinDt              = 1e-6
	DefaultWarmupTime         = 1000.0
	DefaultWarmupDtMax        = 10.0
	DefaultStepTolerance      = 1e-6
	DefaultReserveTolerance   = 1e-3
	DefaultMaxSimulations     = 100
	DefaultTBRAccuracy        = 1e-3
	DefaultTargetDoublingTime = 2.0
	DefaultMaxStalledSteps    = 1000
	DefaultTrapFeedback       = 10.0
)

// Component kinds understood by the scenario builder.
const (
	KindComponent = "component"
	KindBlanket   = "blanket"
	KindFueling   = "fueling"
	KindPlasma    = "plasma"
	KindCryopump  = "cryopump"
)

var ErrInvalidScenario = errors.New("config: invalid scenario")

// Config is a complete scenario: integration settings, the components and
// the connections between them.
type Config struct {
	Name        string             `yaml:"name"`
	Simulation  SimulationConfig   `yaml:"simulation"`
	Components  []ComponentConfig  `yaml:"components"`
	Connections []ConnectionConfig `yaml:"connections"`
}

// SimulationConfig can be overridden from FUELCYCLE_* environment variables.
type SimulationConfig struct {
	Dt                 float64 `yaml:"dt" env:"FUELCYCLE_DT"`
	FinalTime          float64 `yaml:"final_time" env:"FUELCYCLE_FINAL_TIME"`
	Adaptive           bool    `yaml:"adaptive" env:"FUELCYCLE_ADAPTIVE"`
	DtMax              float64 `yaml:"dt_max" env:"FUELCYCLE_DT_MAX"`
	MinDt              float64 `yaml:"min_dt" env:"FUELCYCLE_MIN_DT"`
	WarmupTime         float64 `yaml:"warmup_time" env:"FUELCYCLE_WARMUP_TIME"`
	WarmupDtMax        float64 `yaml:"warmup_dt_max" env:"FUELCYCLE_WARMUP_DT_MAX"`
	StepTolerance      float64 `yaml:"step_tolerance" env:"FUELCYCLE_STEP_TOLERANCE"`
	MaxStalledSteps    int     `yaml:"max_stalled_steps" env:"FUELCYCLE_MAX_STALLED_STEPS"`
	IReserve           float64 `yaml:"i_reserve" env:"FUELCYCLE_I_RESERVE"`
	ReserveTolerance   float64 `yaml:"reserve_tolerance" env:"FUELCYCLE_RESERVE_TOLERANCE"`
	MaxSimulations     int     `yaml:"max_simulations" env:"FUELCYCLE_MAX_SIMULATIONS"`
	TBRAccuracy        float64 `yaml:"tbr_accuracy" env:"FUELCYCLE_TBR_ACCURACY"`
	TargetDoublingTime float64 `yaml:"target_doubling_time" env:"FUELCYCLE_TARGET_DOUBLING_TIME"`
	TrapModel          string  `yaml:"trap_model" env:"FUELCYCLE_TRAP_MODEL"`
	DamageRate         float64 `yaml:"damage_rate,omitempty" env:"FUELCYCLE_DAMAGE_RATE"`
	TrapFeedback       float64 `yaml:"trap_feedback" env:"FUELCYCLE_TRAP_FEEDBACK"`
	Fueling            string  `yaml:"fueling" env:"FUELCYCLE_FUELING"`
	Blanket            string  `yaml:"blanket,omitempty" env:"FUELCYCLE_BLANKET"`
}

type ComponentConfig struct {
	Name               string  `yaml:"name"`
	Kind               string  `yaml:"kind"`
	ResidenceTime      float64 `yaml:"residence_time,omitempty"`
	InitialInventory   float64 `yaml:"initial_inventory,omitempty"`
	NonRadioactiveLoss float64 `yaml:"non_radioactive_loss,omitempty"`
	// Lambda defaults to the tritium decay constant when omitted.
	Lambda *float64     `yaml:"lambda,omitempty"`
	NBurn  float64      `yaml:"n_burn,omitempty"`
	TBR    float64      `yaml:"tbr,omitempty"`
	TBE    float64      `yaml:"tbe,omitempty"`
	Pulse  *PulseConfig `yaml:"pulse,omitempty"`
	Pump   *PumpConfig  `yaml:"pump,omitempty"`
}

type PulseConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Duration  float64 `yaml:"duration"`
	Period    float64 `yaml:"period"`
}

type PumpConfig struct {
	MaxCapacity      float64 `yaml:"max_capacity"`
	Throughput       float64 `yaml:"throughput"`
	RegenerationTime float64 `yaml:"regeneration_time"`
	InitialUnits     int     `yaml:"initial_units"`
}

// ConnectionConfig links an output port of From to an input port of To.
// Ports are created on demand; empty names default to "to <To>" and
// "from <From>".
type ConnectionConfig struct {
	From     string   `yaml:"from"`
	FromPort string   `yaml:"from_port,omitempty"`
	To       string   `yaml:"to"`
	ToPort   string   `yaml:"to_port,omitempty"`
	Fraction *float64 `yaml:"fraction,omitempty"`
}

func (c ConnectionConfig) OutputPort() string {
	if c.FromPort != "" {
		return c.FromPort
	}
	return "to " + c.To
}

func (c ConnectionConfig) InputPort() string {
	if c.ToPort != "" {
		return c.ToPort
	}
	return "from " + c.From
}

func (c ConnectionConfig) IncomingFraction() float64 {
	if c.Fraction == nil {
		return 1
	}
	return *c.Fraction
}

func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		Dt:                 DefaultDt,
		FinalTime:          DefaultFinalTime,
		Adaptive:           true,
		DtMax:              DefaultDtMax,
		MinDt:              DefaultMinDt,
		WarmupTime:         DefaultWarmupTime,
		WarmupDtMax:        DefaultWarmupDtMax,
		StepTolerance:      DefaultStepTolerance,
		MaxStalledSteps:    DefaultMaxStalledSteps,
		ReserveTolerance:   DefaultReserveTolerance,
		MaxSimulations:     DefaultMaxSimulations,
		TBRAccuracy:        DefaultTBRAccuracy,
		TargetDoublingTime: DefaultTargetDoublingTime,
		TrapModel:          "linear",
		TrapFeedback:       DefaultTrapFeedback,
		Fueling:            "Fueling System",
	}
}

func DefaultConfig() *Config {
	return &Config{Simulation: DefaultSimulation()}
}

// Load reads a scenario file over the defaults and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides simulation settings from FUELCYCLE_* variables. Unset
// variables leave the current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(&cfg.Simulation); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the scenario's structure. Physical parameters are checked
// when the network is built.
func (c *Config) Validate() error {
	if len(c.Components) == 0 {
		return fmt.Errorf("%w: no components", ErrInvalidScenario)
	}
	names := make(map[string]bool, len(c.Components))
	for _, comp := range c.Components {
		if comp.Name == "" {
			return fmt.Errorf("%w: component without a name", ErrInvalidScenario)
		}
		if names[comp.Name] {
			return fmt.Errorf("%w: duplicate component %q", ErrInvalidScenario, comp.Name)
		}
		names[comp.Name] = true
		switch comp.Kind {
		case KindComponent, KindBlanket, KindFueling, KindPlasma:
		case KindCryopump:
			if comp.Pump == nil {
				return fmt.Errorf("%w: cryopump %q has no pump block", ErrInvalidScenario, comp.Name)
			}
		default:
			return fmt.Errorf("%w: component %q has unknown kind %q", ErrInvalidScenario, comp.Name, comp.Kind)
		}
	}
	for _, conn := range c.Connections {
		if !names[conn.From] || !names[conn.To] {
			return fmt.Errorf("%w: connection %s -> %s references an unknown component", ErrInvalidScenario, conn.From, conn.To)
		}
		if f := conn.IncomingFraction(); f < 0 || f > 1 {
			return fmt.Errorf("%w: connection %s -> %s fraction %g", ErrInvalidScenario, conn.From, conn.To, f)
		}
	}
	if c.Simulation.Fueling != "" && !names[c.Simulation.Fueling] {
		return fmt.Errorf("%w: fueling component %q not declared", ErrInvalidScenario, c.Simulation.Fueling)
	}
	return nil
}

// Component returns a pointer to the named component entry.
func (c *Config) Component(name string) *ComponentConfig {
	for i := range c.Components {
		if c.Components[i].Name == name {
			return &c.Components[i]
		}
	}
	return nil
}

// Blanket returns the blanket driven by calibration: the one named in the
// simulation block, or the first blanket declared.
func (c *Config) Blanket() *ComponentConfig {
	if c.Simulation.Blanket != "" {
		return c.Component(c.Simulation.Blanket)
	}
	for i := range c.Components {
		if c.Components[i].Kind == KindBlanket {
			return &c.Components[i]
		}
	}
	return nil
}

// Clone returns a deep copy, so sweeps can modify parameters per point.
func (c *Config) Clone() *Config {
	out := *c
	out.Components = make([]ComponentConfig, len(c.Components))
	for i, comp := range c.Components {
		if comp.Lambda != nil {
			v := *comp.Lambda
			comp.Lambda = &v
		}
		if comp.Pulse != nil {
			p := *comp.Pulse
			comp.Pulse = &p
		}
		if comp.Pump != nil {
			p := *comp.Pump
			comp.Pump = &p
		}
		out.Components[i] = comp
	}
	out.Connections = make([]ConnectionConfig, len(c.Connections))
	for i, conn := range c.Connections {
		if conn.Fraction != nil {
			f := *conn.Fraction
			conn.Fraction = &f
		}
		out.Connections[i] = conn
	}
	return &out
}

func Float(v float64) *float64 { return &v }
