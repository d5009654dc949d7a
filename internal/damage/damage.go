// Package damage tracks radiation damage in the breeding blanket and the
// trap density it produces. Trap density slows tritium release, which is fed
// back into the blanket residence time every step.
package damage

import (
	"fmt"
	"math"
	"sort"
)

// SecondsPerYear converts simulated seconds to years.
const SecondsPerYear = 60 * 60 * 24 * 365

const (
	// DefaultRate is 10 dpa per year expressed per second.
	DefaultRate = 10.0 / SecondsPerYear
	// DefaultFeedback scales trap density into residence-time growth.
	DefaultFeedback = 10.0
	// trapScale is the dpa at which linear trap density reaches one.
	trapScale = 20.0
)

// TrapModel maps accumulated damage to a normalised trap density.
type TrapModel interface {
	Name() string
	Density(dpa float64) float64
}

// Linear grows trap density proportionally with damage.
type Linear struct{}

func (Linear) Name() string { return "linear" }

func (Linear) Density(dpa float64) float64 {
	if dpa == 0 {
		return 0
	}
	return dpa / trapScale
}

// Logarithmic saturates trap density as damage accumulates.
type Logarithmic struct{}

func (Logarithmic) Name() string { return "logarithmic" }

func (Logarithmic) Density(dpa float64) float64 {
	if dpa == 0 {
		return 0
	}
	return math.Log(dpa+1) / trapScale
}

var models = map[string]TrapModel{
	Linear{}.Name():      Linear{},
	Logarithmic{}.Name(): Logarithmic{},
}

// Model looks up a trap model by name. An empty name selects Linear.
func Model(name string) (TrapModel, error) {
	if name == "" {
		return Linear{}, nil
	}
	m, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("unknown trap model: %s", name)
	}
	return m, nil
}

// Models lists the registered trap model names.
func Models() []string {
	names := make([]string, 0, len(models))
	for n := range models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tracker accumulates dpa and trap density over one integration.
type Tracker struct {
	Rate     float64
	Feedback float64
	Model    TrapModel

	dpa   float64
	trap  float64
	prev  float64
	dpas  []float64
	traps []float64
}

func NewTracker(model TrapModel) *Tracker {
	if model == nil {
		model = Linear{}
	}
	return &Tracker{Rate: DefaultRate, Feedback: DefaultFeedback, Model: model}
}

// ResidenceIncrement is the residence-time growth applied at time t. It uses
// the trap density recorded one sample before t, so the blanket lags the
// damage by a step.
func (tr *Tracker) ResidenceIncrement(t float64) float64 {
	return tr.prev * tr.Feedback * t / SecondsPerYear
}

// Record evaluates damage and trap density at t and appends them to the
// history.
func (tr *Tracker) Record(t float64) {
	tr.prev = tr.trap
	tr.dpa = tr.Rate * t
	tr.trap = tr.Model.Density(tr.dpa)
	tr.dpas = append(tr.dpas, tr.dpa)
	tr.traps = append(tr.traps, tr.trap)
}

func (tr *Tracker) DPA() float64  { return tr.dpa }
func (tr *Tracker) Trap() float64 { return tr.trap }

func (tr *Tracker) DPAHistory() []float64  { return tr.dpas }
func (tr *Tracker) TrapHistory() []float64 { return tr.traps }

// Reset clears the current values and both histories.
func (tr *Tracker) Reset() {
	tr.dpa, tr.trap, tr.prev = 0, 0, 0
	tr.dpas = nil
	tr.traps = nil
}
