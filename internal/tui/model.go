package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fuelcycle/internal/damage"
	"github.com/san-kum/fuelcycle/internal/sim"
	"github.com/san-kum/fuelcycle/internal/viz"
)

const (
	historyLen   = 120
	barWidth     = 40
	shownAttempt = 8
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type TickMsg time.Time

// Model shows calibration progress: the current attempt's integration
// time, a sparkline of the fueling inventory and the attempts so far.
type Model struct {
	title     string
	finalTime float64
	cancel    context.CancelFunc

	t        float64
	fueling  float64
	total    float64
	history  []float64
	attempts []sim.Attempt
	frame    int

	result *sim.Result
	err    error
	done   bool
}

func NewModel(title string, finalTime float64, cancel context.CancelFunc) Model {
	return Model{
		title:     title,
		finalTime: finalTime,
		cancel:    cancel,
		history:   make([]float64, 0, historyLen),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case StepMsg:
		m.t, m.fueling, m.total = msg.Time, msg.Fueling, msg.Total
		m.history = append(m.history, msg.Fueling)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
	case AttemptMsg:
		m.attempts = append(m.attempts, sim.Attempt(msg))
		m.history = m.history[:0]
		m.t = 0
	case DoneMsg:
		m.result, m.err, m.done = msg.Result, msg.Err, true
		return m, tea.Quit
	}
	return m, nil
}

// Progress is the fraction of the final time reached by the current attempt.
func (m Model) Progress() float64 {
	if m.finalTime <= 0 {
		return 0
	}
	return min(m.t/m.finalTime, 1)
}

func (m Model) Attempts() []sim.Attempt { return m.attempts }
func (m Model) Result() *sim.Result     { return m.result }
func (m Model) Err() error              { return m.err }

func (m Model) View() string {
	var s strings.Builder
	status := viz.StatusOK.Render(spinner[m.frame%len(spinner)] + " calibrating")
	switch {
	case m.err != nil:
		status = viz.StatusFailed.Render("failed: " + m.err.Error())
	case m.result != nil && m.result.Converged:
		status = viz.StatusOK.Render("converged")
	case m.result != nil:
		status = viz.StatusWarning.Render("not converged")
	}
	s.WriteString(viz.HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(status + "\n\n")

	s.WriteString(viz.MetricLabel.Render(fmt.Sprintf("Attempt %d", len(m.attempts)+1)))
	s.WriteString(viz.ProgressBar(m.Progress(), barWidth))
	s.WriteString(fmt.Sprintf(" %5.1f%%\n", 100*m.Progress()))
	s.WriteString(viz.MetricLabel.Render("Time") + viz.MetricValue.Render(fmt.Sprintf("%.3f yr", m.t/damage.SecondsPerYear)) + "\n")
	s.WriteString(viz.MetricLabel.Render("Fueling") + viz.MetricValue.Render(fmt.Sprintf("%.4g kg", m.fueling)) + "\n")
	s.WriteString(viz.MetricLabel.Render("Total") + viz.MetricValue.Render(fmt.Sprintf("%.4g kg", m.total)) + "\n")
	s.WriteString(viz.MetricLabel.Render("") + viz.SparklineChart(m.history, barWidth) + "\n")

	if len(m.attempts) > 0 {
		s.WriteString("\n" + viz.Separator(barWidth+18) + "\n")
		shown := m.attempts
		if len(shown) > shownAttempt {
			shown = shown[len(shown)-shownAttempt:]
		}
		s.WriteString(viz.AttemptTable(shown) + "\n")
	}
	s.WriteString("\n" + viz.KeyHint.Render("q: abort"))
	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}

// Run calibrates s while rendering progress in the terminal. Quitting the
// program cancels the calibration.
func Run(ctx context.Context, title string, s *sim.Simulator, opts ...tea.ProgramOption) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, s.Config().FinalTime, cancel), opts...)
	r := NewLiveRenderer(p.Send, s.FuelingIndex(), 30)
	s.AddObserver(r)
	s.AddAttemptObserver(r)

	var (
		res    *sim.Result
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, runErr = s.Run(ctx)
		p.Send(DoneMsg{Result: res, Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("live view: %w", err)
	}
	cancel()
	<-done
	return res, runErr
}
