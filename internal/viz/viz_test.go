package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/fuelcycle/internal/damage"
	"github.com/san-kum/fuelcycle/internal/sim"
)

func TestPlotSeries(t *testing.T) {
	out := PlotSeries([]float64{1, 2, 3, 2, 1}, PlotOptions{Height: 5, Width: 20, Caption: "dpa"})
	if !strings.Contains(out, "dpa") {
		t.Errorf("caption missing from chart:\n%s", out)
	}
	if got := PlotSeries([]float64{math.NaN(), math.Inf(1)}, DefaultPlotOptions()); got != "" {
		t.Errorf("expected empty chart for non-finite series, got %q", got)
	}
	if got := PlotSeries(nil, DefaultPlotOptions()); got != "" {
		t.Errorf("expected empty chart for nil series, got %q", got)
	}
}

func TestPlotInventories(t *testing.T) {
	names := []string{"Fueling", "Plasma", "Empty"}
	cols := [][]float64{
		{1, 0.9, 0.8, 0.85},
		{0.1, 0.1, 0.1, 0.1},
		{math.NaN(), math.NaN(), math.NaN(), math.NaN()},
	}
	out := PlotInventories(names, cols, PlotOptions{Height: 6, Width: 30})
	for _, want := range []string{"Fueling", "Plasma"} {
		if !strings.Contains(out, want) {
			t.Errorf("legend %q missing:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Empty") {
		t.Errorf("non-finite column should be skipped:\n%s", out)
	}
	if got := PlotInventories(names[2:], cols[2:], DefaultPlotOptions()); got != "" {
		t.Errorf("expected empty chart, got %q", got)
	}
}

func TestSummary(t *testing.T) {
	res := &sim.Result{
		Names:        []string{"Fueling"},
		TBR:          1.08,
		IStartup:     1.5,
		DoublingTime: math.NaN(),
		Outcome:      sim.SlowDoubling,
		Attempts:     []sim.Attempt{{Number: 1, TBR: 1.08, IStartup: 1.5, DoublingTime: math.NaN(), Outcome: sim.SlowDoubling}},
	}
	out := Summary("baseline", res)
	for _, want := range []string{"baseline", "1.0800", "never", "not converged", "slow_doubling"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	res.Converged = true
	res.Outcome = sim.Accepted
	res.DoublingTime = 2 * damage.SecondsPerYear
	out = Summary("baseline", res)
	if !strings.Contains(out, "2.000 yr") || !strings.Contains(out, "converged") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestAttemptTable(t *testing.T) {
	attempts := []sim.Attempt{
		{Number: 1, TBR: 1.05, IStartup: 1, MinMargin: -0.2, DoublingTime: math.NaN(), Outcome: sim.ReserveDeficit},
		{Number: 2, TBR: 1.05, IStartup: 1.2, MinMargin: 0, DoublingTime: damage.SecondsPerYear, Outcome: sim.Accepted},
	}
	lines := strings.Split(AttemptTable(attempts), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "reserve_deficit") || !strings.Contains(lines[2], "accepted") {
		t.Errorf("unexpected rows:\n%s", strings.Join(lines, "\n"))
	}
}

func TestSparklineChart(t *testing.T) {
	out := SparklineChart([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 4)
	if n := strings.Count(out, "▁") + strings.Count(out, "▃") + strings.Count(out, "▅") + strings.Count(out, "▇"); n != 4 {
		t.Errorf("expected 4 sparkline cells, got %d in %q", n, out)
	}
	if got := SparklineChart(nil, 3); got != "───" {
		t.Errorf("empty sparkline = %q", got)
	}
}

func TestProgressBarClamps(t *testing.T) {
	if got := strings.Count(ProgressBar(2, 10), "█"); got != 10 {
		t.Errorf("filled cells = %d, want 10", got)
	}
	if got := strings.Count(ProgressBar(-1, 10), "░"); got != 10 {
		t.Errorf("empty cells = %d, want 10", got)
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(ThemeReactor.Name)

	if got := GetTheme("nope").Name; got != ThemeReactor.Name {
		t.Errorf("fallback theme = %q", got)
	}
	SetTheme("retro")
	if CurrentTheme.Name != "retro" {
		t.Errorf("current theme = %q, want retro", CurrentTheme.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Errorf("theme names out of sync")
	}
}
