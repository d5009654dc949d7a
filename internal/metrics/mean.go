package metrics

import "github.com/san-kum/fuelcycle/internal/dynamo"

// MeanInventory averages one component's inventory over the recorded
// samples. Samples are not weighted by step size.
type MeanInventory struct {
	name    string
	index   int
	sum     float64
	samples int
}

func NewMeanInventory(component string, index int) *MeanInventory {
	return &MeanInventory{name: "mean_inventory_" + component, index: index}
}

func (m *MeanInventory) Name() string { return m.name }

func (m *MeanInventory) Observe(x dynamo.State, t float64) {
	if m.index >= len(x) {
		return
	}
	m.sum += x[m.index]
	m.samples++
}

func (m *MeanInventory) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanInventory) Reset() {
	m.sum = 0
	m.samples = 0
}
