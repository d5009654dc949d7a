package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fuelcycle/internal/damage"
	"github.com/san-kum/fuelcycle/internal/sim"
)

// Summary renders the calibration verdict of a run inside a panel.
func Summary(title string, res *sim.Result) string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(title) + "\n")
	s.WriteString(row("Outcome", outcome(res)))
	s.WriteString(row("TBR", fmt.Sprintf("%.4f", res.TBR)))
	s.WriteString(row("Startup inventory", fmt.Sprintf("%.4g kg", res.IStartup)))
	s.WriteString(row("Doubling time", years(res.DoublingTime)))
	s.WriteString(row("Attempts", fmt.Sprintf("%d", len(res.Attempts))))
	s.WriteString(row("Steps", fmt.Sprintf("%d", res.StepsTaken)))
	if n := len(res.DPA); n > 0 {
		s.WriteString(row("Final dpa", fmt.Sprintf("%.4g", res.DPA[n-1])))
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// AttemptTable renders one line per calibration attempt.
func AttemptTable(attempts []sim.Attempt) string {
	header := fmt.Sprintf("%3s  %-8s  %-12s  %-12s  %-12s  %s", "#", "TBR", "I_startup", "margin", "t_double", "verdict")
	lines := []string{MetricLabel.UnsetWidth().Render(header)}
	for _, a := range attempts {
		line := fmt.Sprintf("%3d  %-8.4f  %-12.4g  %-12.4g  %-12s  ",
			a.Number, a.TBR, a.IStartup, a.MinMargin, years(a.DoublingTime))
		lines = append(lines, line+verdictStyle(a.Outcome).Render(a.Outcome.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func row(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value) + "\n"
}

func outcome(res *sim.Result) string {
	if res.Converged {
		return StatusOK.Render("converged")
	}
	return StatusWarning.Render("not converged (" + res.Outcome.String() + ")")
}

func verdictStyle(o sim.Outcome) lipgloss.Style {
	if o == sim.Accepted {
		return StatusOK
	}
	return StatusWarning
}

func years(seconds float64) string {
	if math.IsNaN(seconds) {
		return "never"
	}
	return fmt.Sprintf("%.3f yr", seconds/damage.SecondsPerYear)
}
