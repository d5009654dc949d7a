package plant

import (
	"fmt"
	"math"
)

// TritiumDecayConstant is ln 2 over the 12.32 year tritium half-life, in 1/s.
var TritiumDecayConstant = math.Ln2 / (12.32 * 365 * 24 * 3600)

// Node is a component as seen by the network. Inflow, Outflow and
// Derivative read the committed state, plus any discrete state a node
// advanced in Prepare; Commit and Reset mutate it.
type Node interface {
	Name() string
	Base() *Component
	Inventory() float64
	Inflow() float64
	Outflow() float64
	Derivative() float64
	// Commit stores the integrated inventory for a step of size dt that
	// started at t and returns the inventory the component actually holds.
	Commit(inventory, t, dt float64) float64
	Reset(inventory float64)
}

// Component is the generic fuel-cycle node: outflow is inventory divided by
// residence time, losses are a fraction of outflow, decay is Lambda × inventory.
type Component struct {
	name               string
	ResidenceTime      float64
	NonRadioactiveLoss float64
	Lambda             float64
	Pulse              *PulsedSource

	inventory float64

	inputs     []*Port
	outputs    []*Port
	portByName map[string]*Port

	inflowHistory  []float64
	outflowHistory []float64
}

func NewComponent(name string, residenceTime, initialInventory float64) *Component {
	return &Component{
		name:          name,
		ResidenceTime: residenceTime,
		Lambda:        TritiumDecayConstant,
		inventory:     initialInventory,
		portByName:    make(map[string]*Port),
	}
}

func (c *Component) Name() string       { return c.name }
func (c *Component) Base() *Component   { return c }
func (c *Component) Inventory() float64 { return c.inventory }

// AddInputPort registers an input carrying fraction of its peer's flow.
// It panics on a duplicate port name.
func (c *Component) AddInputPort(name string, fraction float64) *Port {
	p := c.addPort(name, Input)
	p.IncomingFraction = fraction
	c.inputs = append(c.inputs, p)
	return p
}

// AddOutputPort registers an output. It panics on a duplicate port name.
func (c *Component) AddOutputPort(name string) *Port {
	p := c.addPort(name, Output)
	p.IncomingFraction = 1
	c.outputs = append(c.outputs, p)
	return p
}

func (c *Component) addPort(name string, dir Direction) *Port {
	if _, ok := c.portByName[name]; ok {
		panic(fmt.Sprintf("component %s already has a port named %q", c.name, name))
	}
	p := &Port{name: name, owner: c, direction: dir}
	c.portByName[name] = p
	return p
}

func (c *Component) Port(name string) (*Port, bool) {
	p, ok := c.portByName[name]
	return p, ok
}

func (c *Component) InputPorts() []*Port  { return c.inputs }
func (c *Component) OutputPorts() []*Port { return c.outputs }

// DutyCycle is 1 unless the component carries a pulsed source.
func (c *Component) DutyCycle() float64 {
	return c.Pulse.DutyCycle()
}

func (c *Component) Inflow() float64 {
	total := 0.0
	for _, p := range c.inputs {
		total += p.flowRate
	}
	return total
}

func (c *Component) Outflow() float64 {
	if c.ResidenceTime <= 0 {
		return 0
	}
	return c.inventory / c.ResidenceTime
}

func (c *Component) Derivative() float64 {
	return c.balance(c.Inflow(), c.Outflow())
}

// balance is dI/dt = in − out·(1+loss) − λI.
func (c *Component) balance(in, out float64) float64 {
	return in - out*(1+c.NonRadioactiveLoss) - c.inventory*c.Lambda
}

func (c *Component) Commit(inventory, t, dt float64) float64 {
	c.inventory = inventory
	return c.inventory
}

func (c *Component) Reset(inventory float64) {
	c.inventory = inventory
	c.inflowHistory = c.inflowHistory[:0]
	c.outflowHistory = c.outflowHistory[:0]
	for _, p := range c.inputs {
		p.flowRate = 0
	}
	for _, p := range c.outputs {
		p.flowRate = 0
	}
}

func (c *Component) storeFlows(in, out float64) {
	c.inflowHistory = append(c.inflowHistory, in)
	c.outflowHistory = append(c.outflowHistory, out)
}

// InflowHistory returns one stored inflow sample per integration step.
func (c *Component) InflowHistory() []float64 { return c.inflowHistory }

// OutflowHistory returns one stored outflow sample per integration step.
func (c *Component) OutflowHistory() []float64 { return c.outflowHistory }

func (c *Component) validate() error {
	if c.ResidenceTime <= 0 {
		return fmt.Errorf("%w: %s residence time %g", ErrInvalidParameter, c.name, c.ResidenceTime)
	}
	return c.validateCommon()
}

func (c *Component) validateCommon() error {
	if c.NonRadioactiveLoss < 0 {
		return fmt.Errorf("%w: %s non-radioactive loss %g", ErrInvalidParameter, c.name, c.NonRadioactiveLoss)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("%w: %s decay constant %g", ErrInvalidParameter, c.name, c.Lambda)
	}
	for _, p := range c.inputs {
		if p.IncomingFraction < 0 || p.IncomingFraction > 1 {
			return fmt.Errorf("%w: %s.%s = %g", ErrInvalidFraction, c.name, p.name, p.IncomingFraction)
		}
	}
	return nil
}
