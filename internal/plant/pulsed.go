package plant

// PulsedSource describes a source that is on for PulseDuration out of every
// PulsePeriod. Components hold one optionally and query it for their duty
// cycle.
type PulsedSource struct {
	Amplitude     float64
	PulseDuration float64
	PulsePeriod   float64
}

// NewPulsedSource builds a source from an availability factor, so that
// PulseDuration = availability × period.
func NewPulsedSource(amplitude, availability, period float64) *PulsedSource {
	return &PulsedSource{
		Amplitude:     amplitude,
		PulseDuration: availability * period,
		PulsePeriod:   period,
	}
}

// DutyCycle is the fraction of time the source is on, clamped to [0, 1].
func (p *PulsedSource) DutyCycle() float64 {
	if p == nil || p.PulsePeriod <= 0 {
		return 1
	}
	d := p.PulseDuration / p.PulsePeriod
	switch {
	case d < 0:
		return 0
	case d > 1:
		return 1
	}
	return d
}
