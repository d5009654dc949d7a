package metrics

import (
	"math"

	"github.com/san-kum/fuelcycle/internal/dynamo"
)

// MinInventory tracks the lowest inventory seen in one component.
type MinInventory struct {
	name  string
	index int
	min   float64
	seen  bool
}

func NewMinInventory(component string, index int) *MinInventory {
	return &MinInventory{name: "min_inventory_" + component, index: index}
}

func (m *MinInventory) Name() string { return m.name }

func (m *MinInventory) Observe(x dynamo.State, t float64) {
	if m.index >= len(x) {
		return
	}
	if !m.seen || x[m.index] < m.min {
		m.min = x[m.index]
		m.seen = true
	}
}

func (m *MinInventory) Value() float64 { return m.min }

func (m *MinInventory) Reset() {
	m.min = 0
	m.seen = false
}

// MaxInventory tracks the highest inventory seen in one component.
type MaxInventory struct {
	name  string
	index int
	max   float64
	seen  bool
}

func NewMaxInventory(component string, index int) *MaxInventory {
	return &MaxInventory{name: "max_inventory_" + component, index: index}
}

func (m *MaxInventory) Name() string { return m.name }

func (m *MaxInventory) Observe(x dynamo.State, t float64) {
	if m.index >= len(x) {
		return
	}
	if !m.seen || x[m.index] > m.max {
		m.max = x[m.index]
		m.seen = true
	}
}

func (m *MaxInventory) Value() float64 { return m.max }

func (m *MaxInventory) Reset() {
	m.max = 0
	m.seen = false
}

type FinalInventory struct {
	name  string
	index int
	last  float64
}

func NewFinalInventory(component string, index int) *FinalInventory {
	return &FinalInventory{name: "final_inventory_" + component, index: index}
}

func (f *FinalInventory) Name() string { return f.name }

func (f *FinalInventory) Observe(x dynamo.State, t float64) {
	if f.index < len(x) {
		f.last = x[f.index]
	}
}

func (f *FinalInventory) Value() float64 { return f.last }
func (f *FinalInventory) Reset()         { f.last = 0 }

// InventoryDrift is the largest relative deviation of the plant total from
// its first observed value. A closed loop without losses should keep it at
// rounding level.
type InventoryDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewInventoryDrift() *InventoryDrift {
	return &InventoryDrift{name: "inventory_drift"}
}

func (d *InventoryDrift) Name() string { return d.name }

func (d *InventoryDrift) Observe(x dynamo.State, t float64) {
	total := x.Sum()
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(total-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *InventoryDrift) Value() float64 { return d.maxDrift }

func (d *InventoryDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
