package sim

import (
	"context"
	"log/slog"
	"math"

	"github.com/san-kum/fuelcycle/internal/damage"
)

// Run is the calibration loop. Each attempt restarts the network from the
// initial condition and integrates to FinalTime. A reserve deficit raises
// the startup inventory by the worst shortfall; otherwise a missing or slow
// doubling time raises TBR by TBRAccuracy. The first attempt that passes
// both checks is returned with Converged set. When MaxSimulations runs out
// the last attempt is returned as is.
//
// Calibration failures are reported through the Result, not as errors.
// Errors are reserved for numerical failures and cancellation.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	var attempts []Attempt

	for n := 1; ; n++ {
		a, traj, err := s.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		a.Number = n
		attempts = append(attempts, a)
		s.notify(a)

		canRetry := n < s.cfg.MaxSimulations
		switch {
		case a.Outcome == ReserveDeficit && canRetry:
			s.iStartup -= a.MinMargin
			s.logger.Info("reserve deficit, raising startup inventory",
				slog.Int("attempt", n),
				slog.Float64("deficit", a.MinMargin),
				slog.Float64("i_startup", s.iStartup),
			)
			continue
		case a.Outcome == SlowDoubling && canRetry && s.blanket != nil:
			s.blanket.SetTBR(s.blanket.TBR() + s.cfg.TBRAccuracy)
			s.blanket.RecomputeSource()
			s.logger.Info("doubling time off target, raising TBR",
				slog.Int("attempt", n),
				slog.Float64("doubling_time", a.DoublingTime),
				slog.Float64("tbr", s.blanket.TBR()),
				slog.Float64("tritium_source", s.blanket.Source()),
			)
			continue
		}

		res := s.result(traj, a, attempts)
		if res.Converged {
			s.logger.Info("calibration accepted",
				slog.Int("attempts", n),
				slog.Float64("tbr", a.TBR),
				slog.Float64("i_startup", a.IStartup),
				slog.Float64("doubling_time", a.DoublingTime),
			)
		} else {
			s.logger.Warn("calibration did not converge",
				slog.Int("attempts", n),
				slog.String("outcome", a.Outcome.String()),
				slog.Float64("tbr", a.TBR),
				slog.Float64("i_startup", a.IStartup),
			)
		}
		return res, nil
	}
}

// Evaluate restarts the network, integrates once and judges the attempt
// against the reserve and doubling-time targets. It never changes TBR or the
// startup inventory.
func (s *Simulator) Evaluate(ctx context.Context) (Attempt, *Trajectory, error) {
	if err := s.Restart(); err != nil {
		return Attempt{}, nil, err
	}
	traj, err := s.Integrate(ctx)
	if err != nil {
		return Attempt{}, traj, err
	}
	traj.trim(s.cfg.FinalTime)

	fueling := traj.Column(s.fueling)
	a := Attempt{
		TBR:          s.tbr(),
		IStartup:     s.iStartup,
		DoublingTime: ComputeDoublingTime(traj.Times, fueling, s.iStartup),
		MinMargin:    minMargin(fueling, s.cfg.IReserve),
		Steps:        traj.StepsTaken,
	}
	switch {
	case a.MinMargin < -s.cfg.ReserveTolerance:
		a.Outcome = ReserveDeficit
	case math.IsNaN(a.DoublingTime) || a.DoublingTime > s.cfg.TargetDoublingTime:
		a.Outcome = SlowDoubling
	default:
		a.Outcome = Accepted
	}
	return a, traj, nil
}

func (s *Simulator) result(traj *Trajectory, last Attempt, attempts []Attempt) *Result {
	res := &Result{
		Names:        s.net.Names(),
		Trajectory:   *traj,
		DoublingTime: last.DoublingTime,
		TBR:          last.TBR,
		IStartup:     last.IStartup,
		Outcome:      last.Outcome,
		Converged:    last.Outcome == Accepted,
		Attempts:     attempts,
		Metrics:      make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}

func (s *Simulator) notify(a Attempt) {
	for _, o := range s.attemptObservers {
		o.OnAttempt(a)
	}
}

func (s *Simulator) tbr() float64 {
	if s.blanket == nil {
		return math.NaN()
	}
	return s.blanket.TBR()
}

// ComputeDoublingTime returns the first time, in years, at which inventory
// reaches twice i0, or NaN if it never does.
func ComputeDoublingTime(times, inventory []float64, i0 float64) float64 {
	for i, v := range inventory {
		if i >= len(times) {
			break
		}
		if v-2*i0 >= 0 {
			return times[i] / damage.SecondsPerYear
		}
	}
	return math.NaN()
}

func minMargin(inventory []float64, reserve float64) float64 {
	m := math.Inf(1)
	for _, v := range inventory {
		m = math.Min(m, v-reserve)
	}
	return m
}
