package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mant/internal/trial"
)

const frame = 10 * time.Millisecond

var plan = Plan{
	InitialFixation: 100 * time.Millisecond,
	Cue:             50 * time.Millisecond,
	PostCueFixation: 30 * time.Millisecond,
	Target:          200 * time.Millisecond,
}

// drive ticks m every frame from zero, pressing press at pressAt (if set),
// until the machine is done. It returns the final run time and the phases
// entered in order.
func drive(t *testing.T, m *Machine, pressAt time.Duration, press string) (time.Duration, []Phase) {
	t.Helper()
	phases := []Phase{m.Phase()}
	for now := time.Duration(0); now < 10*time.Second; now += frame {
		var keys []string
		if press != "" && now == pressAt {
			keys = []string{press}
		}
		v := m.Tick(now, keys)
		if v != Continue {
			phases = append(phases, m.Phase())
		}
		if m.Done() {
			return now, phases
		}
	}
	t.Fatal("machine never finished")
	return 0, nil
}

func TestMachine_PhaseOrder(t *testing.T) {
	m := New(plan, trial.Left, trial.KeyboardKeys)
	_, phases := drive(t, m, 0, "")
	assert.Equal(t, []Phase{InitialFixation, Cue, PostCueFixation, ResponseWindow, Scoring, Done}, phases)
}

func TestMachine_PhaseMarks(t *testing.T) {
	m := New(plan, trial.Left, trial.KeyboardKeys)
	drive(t, m, 0, "")
	marks := m.Marks()
	assert.Equal(t, time.Duration(0), marks.Start)
	assert.Equal(t, 100*time.Millisecond, marks.Cue)
	assert.Equal(t, 150*time.Millisecond, marks.PostCue)
	assert.Equal(t, 180*time.Millisecond, marks.Target)
}

func TestMachine_CorrectResponse(t *testing.T) {
	m := New(plan, trial.Left, trial.KeyboardKeys)
	drive(t, m, 250*time.Millisecond, "left")

	out := m.Outcome()
	assert.Equal(t, "left", out.Response)
	assert.Equal(t, trial.Correct, out.Correct)
	require.True(t, out.RT.Valid)
	assert.InDelta(t, 0.070, out.RT.Value, 1e-9)
	assert.Equal(t, 250*time.Millisecond, m.Marks().Response)
	assert.False(t, m.Aborted())
}

func TestMachine_KeyPressEndsWindowEarly(t *testing.T) {
	m := New(plan, trial.Right, trial.KeyboardKeys)
	for now := time.Duration(0); now <= 190*time.Millisecond; now += frame {
		m.Tick(now, nil)
	}
	require.Equal(t, ResponseWindow, m.Phase())
	assert.Equal(t, Advance, m.Tick(200*time.Millisecond, []string{"left"}))
	assert.Equal(t, Scoring, m.Phase())
	assert.Equal(t, trial.Incorrect, m.Outcome().Correct)
}

func TestMachine_Miss(t *testing.T) {
	m := New(plan, trial.Right, trial.KeyboardKeys)
	end, _ := drive(t, m, 0, "")

	out := m.Outcome()
	assert.Equal(t, trial.MissResponse, out.Response)
	assert.Equal(t, trial.Miss, out.Correct)
	assert.False(t, out.RT.Valid)
	assert.Equal(t, 390*time.Millisecond, end)
}

func TestMachine_IgnoresKeysOutsideWindow(t *testing.T) {
	m := New(plan, trial.Left, trial.KeyboardKeys)
	for now := time.Duration(0); now <= 180*time.Millisecond; now += frame {
		assert.NotEqual(t, Abort, m.Tick(now, []string{"left", trial.EscapeKey}))
	}
	assert.Equal(t, ResponseWindow, m.Phase())
}

func TestMachine_IgnoresInadmissibleKeys(t *testing.T) {
	m := New(plan, trial.Left, trial.KeyboardKeys)
	drive(t, m, 200*time.Millisecond, "space")
	assert.Equal(t, trial.Miss, m.Outcome().Correct)
}

func TestMachine_EscapeAborts(t *testing.T) {
	m := New(plan, trial.Left, trial.KeyboardKeys)
	for now := time.Duration(0); now < 200*time.Millisecond; now += frame {
		m.Tick(now, nil)
	}
	assert.Equal(t, Abort, m.Tick(200*time.Millisecond, []string{trial.EscapeKey}))
	assert.True(t, m.Done())
	assert.True(t, m.Aborted())

	out := m.Outcome()
	assert.Equal(t, trial.EscapeKey, out.Response)
	assert.Equal(t, trial.Incorrect, out.Correct)
}

func TestMachine_ButtonBox(t *testing.T) {
	m := New(plan, trial.Right, trial.ButtonBoxKeys)
	drive(t, m, 220*time.Millisecond, "6")
	assert.Equal(t, trial.Correct, m.Outcome().Correct)
}

func TestMachine_TrailingFixation(t *testing.T) {
	p := plan
	p.MaxTrial = 600 * time.Millisecond

	m := New(p, trial.Left, trial.KeyboardKeys)
	end, phases := drive(t, m, 230*time.Millisecond, "left")
	assert.Contains(t, phases, TrailingFixation)
	// rt 50ms: trailing is 600 - 50 - 100 = 450ms from the press at 230ms.
	assert.Equal(t, 690*time.Millisecond, end)
}

func TestMachine_DoneIsNoop(t *testing.T) {
	m := New(plan, trial.Left, trial.KeyboardKeys)
	end, _ := drive(t, m, 0, "")
	assert.Equal(t, Continue, m.Tick(end+time.Second, []string{"left"}))
	assert.Equal(t, Done, m.Phase())
	assert.Equal(t, trial.Miss, m.Outcome().Correct)
}

func TestMachine_ZeroInitialFixation(t *testing.T) {
	p := plan
	p.InitialFixation = 0
	m := New(p, trial.Left, trial.KeyboardKeys)
	assert.Equal(t, Advance, m.Tick(0, nil))
	assert.Equal(t, Cue, m.Phase())
}

func TestPlan_Trailing(t *testing.T) {
	p := Plan{InitialFixation: 700 * time.Millisecond, MaxTrial: 3600 * time.Millisecond}

	assert.Equal(t, 2500*time.Millisecond, p.Trailing(trial.Response{Pressed: true, RT: 400 * time.Millisecond}))
	assert.Equal(t, 2900*time.Millisecond, p.Trailing(trial.Response{}))

	p.InitialFixation = 4 * time.Second
	assert.Equal(t, time.Duration(0), p.Trailing(trial.Response{}))

	assert.Equal(t, time.Duration(0), Plan{}.Trailing(trial.Response{}))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "RESPONSE_WINDOW", ResponseWindow.String())
	assert.Equal(t, "UNKNOWN", Phase(42).String())
	assert.Equal(t, "abort", Abort.String())
}
