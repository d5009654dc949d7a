package plant

import "fmt"

// BreedingBlanket breeds tritium at N_burn × TBR × duty cycle. The rate is
// cached in Source and only changes when RecomputeSource is called, so an
// owner that changes TBR must recompute explicitly.
type BreedingBlanket struct {
	*Component
	NBurn  float64
	tbr    float64
	source float64
}

func NewBreedingBlanket(name string, residenceTime, nBurn, tbr float64) *BreedingBlanket {
	b := &BreedingBlanket{
		Component: NewComponent(name, residenceTime, 0),
		NBurn:     nBurn,
		tbr:       tbr,
	}
	b.RecomputeSource()
	return b
}

func (b *BreedingBlanket) TBR() float64 { return b.tbr }

// SetTBR changes the breeding ratio without touching Source.
func (b *BreedingBlanket) SetTBR(tbr float64) { b.tbr = tbr }

// RecomputeSource refreshes the production rate from NBurn, TBR and the
// duty cycle and returns it.
func (b *BreedingBlanket) RecomputeSource() float64 {
	b.source = b.NBurn * b.tbr * b.DutyCycle()
	return b.source
}

func (b *BreedingBlanket) Source() float64 { return b.source }

func (b *BreedingBlanket) Derivative() float64 {
	return b.balance(b.Inflow()+b.source, b.Outflow())
}

func (b *BreedingBlanket) validate() error {
	if b.tbr < 0 || b.NBurn < 0 {
		return fmt.Errorf("%w: %s TBR %g, burn rate %g", ErrInvalidParameter, b.name, b.tbr, b.NBurn)
	}
	return b.Component.validate()
}
