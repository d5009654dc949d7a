package plant

import (
	"fmt"
	"log/slog"
	"math"
)

// PumpState is the state of a single cryopump unit.
type PumpState int

const (
	PumpActive PumpState = iota
	PumpRegenerating
)

func (s PumpState) String() string {
	switch s {
	case PumpActive:
		return "active"
	case PumpRegenerating:
		return "regenerating"
	}
	return fmt.Sprintf("PumpState(%d)", int(s))
}

// PumpUnit is one fill/regenerate unit. Its ID is its index in the bank.
type PumpUnit struct {
	ID             int
	Inventory      float64
	State          PumpState
	RegenRemaining float64
	// Released is the amount returned to the stream since the current or
	// last regeneration began.
	Released float64
	// History holds the unit's inventory after every bank step.
	History []float64
}

// PumpEvent records a unit being created or changing state.
type PumpEvent struct {
	Time    float64
	Unit    int
	From    PumpState
	To      PumpState
	Created bool
}

// BankStep summarises one bank update.
type BankStep struct {
	Intake   float64
	Released float64
	Created  int
}

// Change is the net inventory change of the bank over the step.
func (s BankStep) Change() float64 { return s.Intake - s.Released }

// PumpBank owns every pump unit ever created. Units are never removed; the
// active and regenerating sets are queries over the arena.
type PumpBank struct {
	MaxCapacity      float64
	Throughput       float64
	RegenerationTime float64

	units  []PumpUnit
	events []PumpEvent
	logger *slog.Logger
}

func NewPumpBank(maxCapacity, throughput, regenerationTime float64, initialUnits int) *PumpBank {
	b := &PumpBank{
		MaxCapacity:      maxCapacity,
		Throughput:       throughput,
		RegenerationTime: regenerationTime,
		logger:           slog.New(slog.DiscardHandler),
	}
	for i := 0; i < initialUnits; i++ {
		b.units = append(b.units, PumpUnit{ID: i})
	}
	return b
}

func (b *PumpBank) SetLogger(l *slog.Logger) {
	if l != nil {
		b.logger = l
	}
}

func (b *PumpBank) Units() []PumpUnit   { return b.units }
func (b *PumpBank) Events() []PumpEvent { return b.events }
func (b *PumpBank) Len() int            { return len(b.units) }

func (b *PumpBank) Unit(id int) (PumpUnit, bool) {
	if id < 0 || id >= len(b.units) {
		return PumpUnit{}, false
	}
	return b.units[id], true
}

// Count returns how many units are in state s.
func (b *PumpBank) Count(s PumpState) int {
	n := 0
	for i := range b.units {
		if b.units[i].State == s {
			n++
		}
	}
	return n
}

func (b *PumpBank) Inventory() float64 {
	total := 0.0
	for i := range b.units {
		total += b.units[i].Inventory
	}
	return total
}

// Step advances every unit by dt given inflowRate arriving at the bank.
//
// Active units absorb in id order, each taking at most Throughput×dt and
// never beyond MaxCapacity. A unit that fills starts regenerating and
// releases nothing until the next step. Regenerating units release
// MaxCapacity/RegenerationTime×dt per step; on their last step they release
// exactly what they still hold and become active. Inflow nobody can absorb
// spawns new units until all of it is taken. A non-finite inflow or step is
// rejected before any unit changes.
func (b *PumpBank) Step(inflowRate, dt, t float64) (BankStep, error) {
	var step BankStep
	if math.IsNaN(inflowRate) || math.IsInf(inflowRate, 0) || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return step, fmt.Errorf("%w: inflow %g over dt %g", ErrNonFiniteFlow, inflowRate, dt)
	}
	remaining := inflowRate * dt
	eps := 1e-12 * math.Max(1, math.Abs(remaining))

	filled := make([]bool, len(b.units))
	for i := range b.units {
		u := &b.units[i]
		if u.State != PumpActive {
			continue
		}
		take := b.intake(u, remaining, dt)
		remaining -= take
		step.Intake += take
		if u.Inventory >= b.MaxCapacity {
			b.startRegeneration(u, t)
			filled[i] = true
		}
	}

	for i := range filled {
		u := &b.units[i]
		if u.State != PumpRegenerating || filled[i] {
			continue
		}
		step.Released += b.release(u, dt, t)
	}

	for remaining > eps && b.Throughput > 0 && b.MaxCapacity > 0 {
		u := b.addUnit(t)
		take := b.intake(u, remaining, dt)
		remaining -= take
		step.Intake += take
		step.Created++
		if u.Inventory >= b.MaxCapacity {
			b.startRegeneration(u, t)
		}
	}

	if step.Created > 0 {
		b.logger.Info("pump units added",
			slog.Int("created", step.Created),
			slog.Int("total", len(b.units)),
			slog.Int("active", b.Count(PumpActive)),
			slog.Int("regenerating", b.Count(PumpRegenerating)),
			slog.Float64("time", t),
			slog.Float64("released", step.Released),
		)
	}

	for i := range b.units {
		b.units[i].History = append(b.units[i].History, b.units[i].Inventory)
	}

	return step, nil
}

func (b *PumpBank) intake(u *PumpUnit, available, dt float64) float64 {
	take := math.Min(b.Throughput*dt, math.Min(available, b.MaxCapacity-u.Inventory))
	if take <= 0 {
		return 0
	}
	u.Inventory += take
	return take
}

func (b *PumpBank) release(u *PumpUnit, dt, t float64) float64 {
	var out float64
	if u.RegenRemaining-dt <= 0 {
		out = u.Inventory
		u.Inventory = 0
		u.RegenRemaining = 0
		u.Released += out
		b.transition(u, PumpActive, t)
		return out
	}
	out = math.Min(b.MaxCapacity/b.RegenerationTime*dt, u.Inventory)
	u.Inventory -= out
	u.RegenRemaining -= dt
	u.Released += out
	return out
}

func (b *PumpBank) startRegeneration(u *PumpUnit, t float64) {
	u.RegenRemaining = b.RegenerationTime
	u.Released = 0
	b.transition(u, PumpRegenerating, t)
}

func (b *PumpBank) transition(u *PumpUnit, to PumpState, t float64) {
	from := u.State
	u.State = to
	b.events = append(b.events, PumpEvent{Time: t, Unit: u.ID, From: from, To: to})
	b.logger.Debug("pump unit transition",
		slog.Int("unit", u.ID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Float64("inventory", u.Inventory),
		slog.Float64("time", t),
	)
}

func (b *PumpBank) addUnit(t float64) *PumpUnit {
	id := len(b.units)
	b.units = append(b.units, PumpUnit{ID: id})
	b.events = append(b.events, PumpEvent{Time: t, Unit: id, From: PumpActive, To: PumpActive, Created: true})
	return &b.units[id]
}

// Reset empties every unit and makes it active, then loads inventory into
// the units in id order, creating units if the existing ones cannot hold it.
// Units themselves are kept.
func (b *PumpBank) Reset(inventory float64) {
	for i := range b.units {
		b.units[i] = PumpUnit{ID: i}
	}
	b.events = b.events[:0]
	for i := 0; inventory > 0 && b.MaxCapacity > 0; i++ {
		if i == len(b.units) {
			b.units = append(b.units, PumpUnit{ID: i})
		}
		load := math.Min(inventory, b.MaxCapacity)
		b.units[i].Inventory = load
		inventory -= load
	}
}

func (b *PumpBank) validate(name string) error {
	if b.MaxCapacity <= 0 || b.Throughput <= 0 || b.RegenerationTime <= 0 {
		return fmt.Errorf("%w: %s pump geometry capacity=%g throughput=%g regeneration=%g",
			ErrInvalidParameter, name, b.MaxCapacity, b.Throughput, b.RegenerationTime)
	}
	return nil
}
