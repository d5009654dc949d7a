package plant

import (
	"fmt"
	"math"
)

// Plasma burns N_burn × duty cycle of what it is fed and exhausts the rest
// through its outputs in the same step, so its inventory stays where it
// started.
type Plasma struct {
	*Component
	NBurn float64
}

func NewPlasma(name string, nBurn float64) *Plasma {
	c := NewComponent(name, 0, 0)
	c.Lambda = 0
	return &Plasma{Component: c, NBurn: nBurn}
}

func (p *Plasma) Burn() float64 {
	return p.NBurn * p.DutyCycle()
}

// Outflow is the unburnt fuel, never negative.
func (p *Plasma) Outflow() float64 {
	return math.Max(0, p.Inflow()-p.Burn())
}

// Derivative only moves when the plasma is starved of fuel or has losses.
func (p *Plasma) Derivative() float64 {
	in := p.Inflow()
	burnt := math.Min(in, p.Burn())
	return p.balance(in-burnt, p.Outflow())
}

func (p *Plasma) validate() error {
	if p.NBurn < 0 {
		return fmt.Errorf("%w: %s burn rate %g", ErrInvalidParameter, p.name, p.NBurn)
	}
	return p.validateCommon()
}
