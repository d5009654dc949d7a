package dynamo

import "math"

// State holds one tritium inventory per component, ordered as the
// components were declared in the network.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Sum is the total inventory held across all components.
func (s State) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is a component network seen from the integrator. Derive evaluates
// every component's inventory derivative against the network's currently
// committed state; it must not mutate that state.
type System interface {
	Derive(t float64) State
	StateDim() int
}

// Integrator advances a state by one step of size dt.
type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// StepController proposes the next step size after a committed step.
type StepController interface {
	Next(sys System, xNew, x State, t, dt float64) (float64, error)
}
