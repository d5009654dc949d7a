package plant

import (
	"fmt"
	"log/slog"
)

// CryopumpSystem is a component whose inventory lives in a PumpBank. The
// bank, not the integrator, is authoritative. Prepare runs the bank over
// the step about to be taken, so the release handed downstream and the
// bank's own change use the same dt; Commit reports the bank total back.
type CryopumpSystem struct {
	*Component
	Bank *PumpBank

	outflow  float64
	rate     float64
	lastStep BankStep
}

func NewCryopumpSystem(name string, maxCapacity, throughput, regenerationTime float64, initialUnits int) *CryopumpSystem {
	c := NewComponent(name, regenerationTime, 0)
	c.Lambda = 0
	return &CryopumpSystem{
		Component: c,
		Bank:      NewPumpBank(maxCapacity, throughput, regenerationTime, initialUnits),
	}
}

func (c *CryopumpSystem) SetLogger(l *slog.Logger) {
	c.Bank.SetLogger(l.With(slog.String("component", c.name)))
}

func (c *CryopumpSystem) Inventory() float64 { return c.Bank.Inventory() }

// Outflow is the release rate of the prepared bank step.
func (c *CryopumpSystem) Outflow() float64 { return c.outflow }

// Derivative is the bank's net change over the prepared step, as a rate.
func (c *CryopumpSystem) Derivative() float64 { return c.rate }

// LastStep is the bank report of the most recent Prepare.
func (c *CryopumpSystem) LastStep() BankStep { return c.lastStep }

// Prepare advances the bank over [t, t+dt] with the current inflow.
func (c *CryopumpSystem) Prepare(t, dt float64) error {
	step, err := c.Bank.Step(c.Inflow(), dt, t)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	c.lastStep = step
	c.outflow, c.rate = 0, 0
	if dt > 0 {
		c.outflow = step.Released / dt
		c.rate = step.Change() / dt
	}
	return nil
}

func (c *CryopumpSystem) Commit(_, _, _ float64) float64 {
	c.inventory = c.Bank.Inventory()
	return c.inventory
}

func (c *CryopumpSystem) Reset(inventory float64) {
	c.Bank.Reset(inventory)
	c.outflow, c.rate = 0, 0
	c.lastStep = BankStep{}
	c.Component.Reset(c.Bank.Inventory())
}

func (c *CryopumpSystem) validate() error {
	if err := c.Bank.validate(c.name); err != nil {
		return err
	}
	return c.validateCommon()
}
