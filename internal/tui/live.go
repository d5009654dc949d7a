package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fuelcycle/internal/dynamo"
	"github.com/san-kum/fuelcycle/internal/sim"
)

// StepMsg reports integration progress within the current attempt.
type StepMsg struct {
	Time    float64
	Fueling float64
	Total   float64
}

// AttemptMsg carries a finished calibration attempt.
type AttemptMsg sim.Attempt

// DoneMsg ends the program with the calibrated result or the run error.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// LiveRenderer forwards simulator callbacks to a running program. Step
// samples are throttled to frameRate; attempts are always delivered.
type LiveRenderer struct {
	send      func(tea.Msg)
	fueling   int
	frameRate int
	lastFrame time.Time
	now       func() time.Time
}

func NewLiveRenderer(send func(tea.Msg), fueling, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{
		send:      send,
		fueling:   fueling,
		frameRate: frameRate,
		now:       time.Now,
	}
}

func (r *LiveRenderer) OnStep(x dynamo.State, t float64) {
	now := r.now()
	if now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now

	msg := StepMsg{Time: t, Total: x.Sum()}
	if r.fueling < len(x) {
		msg.Fueling = x[r.fueling]
	}
	r.send(msg)
}

func (r *LiveRenderer) OnAttempt(a sim.Attempt) {
	r.lastFrame = time.Time{}
	r.send(AttemptMsg(a))
}
