package timeline

import (
	"slices"
	"time"

	"github.com/roach88/mant/internal/trial"
)

// Plan is the set of phase durations of one trial.
type Plan struct {
	InitialFixation time.Duration
	Cue             time.Duration
	PostCueFixation time.Duration
	Target          time.Duration
	// MaxTrial pads the trial with a trailing fixation up to this length.
	// Zero means no trailing fixation.
	MaxTrial time.Duration
}

// Trailing returns the trailing fixation that follows a response window.
// After a response it is MaxTrial - rt - initial fixation; after a miss it
// is MaxTrial - initial fixation. It is never negative.
func (p Plan) Trailing(resp trial.Response) time.Duration {
	if p.MaxTrial <= 0 {
		return 0
	}
	d := p.MaxTrial - p.InitialFixation
	if resp.Pressed {
		d -= resp.RT
	}
	return max(d, 0)
}

// Marks are the run times at which each phase started. Zero-valued marks
// belong to phases that never started.
type Marks struct {
	Start    time.Duration
	Cue      time.Duration
	PostCue  time.Duration
	Target   time.Duration
	Response time.Duration
	End      time.Duration
}

// Machine is the phase state machine of one trial.
type Machine struct {
	plan      Plan
	direction trial.Direction
	keys      trial.KeyMap

	phase      Phase
	started    bool
	phaseStart time.Duration
	trailing   time.Duration

	response trial.Response
	outcome  trial.Outcome
	aborted  bool
	marks    Marks
}

// New returns a machine for a trial whose target points in direction and
// whose responses come from a device with the given key map.
func New(plan Plan, direction trial.Direction, keys trial.KeyMap) *Machine {
	return &Machine{plan: plan, direction: direction, keys: keys}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Done reports whether the trial has been scored.
func (m *Machine) Done() bool { return m.phase == Done }

// Aborted reports whether escape ended the response window.
func (m *Machine) Aborted() bool { return m.aborted }

// Marks returns the phase start times recorded so far.
func (m *Machine) Marks() Marks { return m.marks }

// Response returns the raw response of the window.
func (m *Machine) Response() trial.Response { return m.response }

// Outcome returns the scored response. It is only meaningful once Done.
func (m *Machine) Outcome() trial.Outcome { return m.outcome }

// Tick moves the machine forward to run time now. keys are the key names
// pressed since the previous tick, oldest first; they are ignored outside the
// response window. The first tick starts the initial fixation. Ticking a
// finished machine is a no-op.
func (m *Machine) Tick(now time.Duration, keys []string) Verdict {
	if !m.started {
		m.started = true
		m.phaseStart = now
		m.marks.Start = now
		if m.plan.InitialFixation <= 0 {
			m.enter(Cue, now)
			return Advance
		}
		return Continue
	}

	elapsed := now - m.phaseStart
	switch m.phase {
	case InitialFixation:
		if elapsed >= m.plan.InitialFixation {
			m.enter(Cue, now)
			return Advance
		}
	case Cue:
		if elapsed >= m.plan.Cue {
			m.enter(PostCueFixation, now)
			return Advance
		}
	case PostCueFixation:
		if elapsed >= m.plan.PostCueFixation {
			m.enter(ResponseWindow, now)
			return Advance
		}
	case ResponseWindow:
		if key, ok := m.firstAdmissible(keys); ok {
			m.response = trial.Response{Pressed: true, Key: key, RT: elapsed}
			m.marks.Response = now
			if key == trial.EscapeKey {
				m.aborted = true
				m.enter(Scoring, now)
				m.enter(Done, now)
				return Abort
			}
			m.leaveWindow(now)
			return Advance
		}
		if elapsed >= m.plan.Target {
			m.leaveWindow(now)
			return Advance
		}
	case TrailingFixation:
		if elapsed >= m.trailing {
			m.enter(Scoring, now)
			return Advance
		}
	case Scoring:
		m.enter(Done, now)
		return Advance
	}
	return Continue
}

func (m *Machine) leaveWindow(now time.Duration) {
	m.trailing = m.plan.Trailing(m.response)
	if m.trailing > 0 {
		m.enter(TrailingFixation, now)
		return
	}
	m.enter(Scoring, now)
}

func (m *Machine) enter(p Phase, now time.Duration) {
	m.phase = p
	m.phaseStart = now
	switch p {
	case Cue:
		m.marks.Cue = now
	case PostCueFixation:
		m.marks.PostCue = now
	case ResponseWindow:
		m.marks.Target = now
	case Scoring:
		m.outcome = trial.Score(m.direction, m.response, m.keys)
	case Done:
		m.marks.End = now
	}
}

func (m *Machine) firstAdmissible(keys []string) (string, bool) {
	admissible := m.keys.Admissible()
	for _, k := range keys {
		if slices.Contains(admissible, k) {
			return k, true
		}
	}
	return "", false
}
