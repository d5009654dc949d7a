package metrics

import "github.com/san-kum/fuelcycle/internal/dynamo"

// ReserveCompliance is the fraction of samples at which a component held at
// least the reserve inventory.
type ReserveCompliance struct {
	name       string
	index      int
	reserve    float64
	violations int
	samples    int
}

func NewReserveCompliance(index int, reserve float64) *ReserveCompliance {
	return &ReserveCompliance{
		name:    "reserve_compliance",
		index:   index,
		reserve: reserve,
	}
}

func (r *ReserveCompliance) Name() string { return r.name }

func (r *ReserveCompliance) Observe(x dynamo.State, t float64) {
	if r.index >= len(x) {
		return
	}
	r.samples++
	if x[r.index] < r.reserve {
		r.violations++
	}
}

func (r *ReserveCompliance) Value() float64 {
	if r.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(r.violations)/float64(r.samples)
}

func (r *ReserveCompliance) Reset() {
	r.violations = 0
	r.samples = 0
}
