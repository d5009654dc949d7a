package plant

import "fmt"

// FuelingSystem stores tritium and injects it into the plasma at
// N_burn/TBE × duty cycle regardless of its own inventory. Its inventory can
// therefore go negative; the calibration loop reads that as a reserve
// violation.
type FuelingSystem struct {
	*Component
	NBurn float64
	TBE   float64
}

func NewFuelingSystem(name string, nBurn, tbe, initialInventory float64) *FuelingSystem {
	c := NewComponent(name, 0, initialInventory)
	return &FuelingSystem{Component: c, NBurn: nBurn, TBE: tbe}
}

// Outflow is the injection rate.
func (f *FuelingSystem) Outflow() float64 {
	if f.TBE <= 0 {
		return 0
	}
	return f.NBurn / f.TBE * f.DutyCycle()
}

func (f *FuelingSystem) Derivative() float64 {
	return f.balance(f.Inflow(), f.Outflow())
}

func (f *FuelingSystem) validate() error {
	if f.TBE <= 0 || f.TBE > 1 {
		return fmt.Errorf("%w: %s burn efficiency %g", ErrInvalidParameter, f.name, f.TBE)
	}
	if f.NBurn < 0 {
		return fmt.Errorf("%w: %s burn rate %g", ErrInvalidParameter, f.name, f.NBurn)
	}
	return f.validateCommon()
}
