package timeline

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/roach88/mant/internal/config"
)

// Sampler draws one fixation duration per trial.
type Sampler interface {
	Sample() time.Duration
}

// Fixed always returns the same duration.
type Fixed time.Duration

func (f Fixed) Sample() time.Duration { return time.Duration(f) }

// Choice draws uniformly from a list of durations. Repeated entries weigh
// their value.
type Choice struct {
	Durations []time.Duration
	rng       *rand.Rand
}

func (c *Choice) Sample() time.Duration {
	return c.Durations[c.rng.Intn(len(c.Durations))]
}

// Uniform draws from a continuous range, rounded to the millisecond.
type Uniform struct {
	dist distuv.Uniform
}

func (u *Uniform) Sample() time.Duration {
	ms := u.dist.Rand()
	return time.Duration(ms*float64(time.Millisecond)).Round(time.Millisecond)
}

// NewSampler builds the sampler described by j. src is shared by every
// sampler of a session so a seed reproduces the whole schedule.
func NewSampler(j config.Jitter, src rand.Source) (Sampler, error) {
	switch {
	case len(j.ChoicesMS) > 0:
		ds := make([]time.Duration, len(j.ChoicesMS))
		for i, ms := range j.ChoicesMS {
			ds[i] = config.Millis(ms)
		}
		return &Choice{Durations: ds, rng: rand.New(src)}, nil
	case j.MaxMS > 0:
		if j.MaxMS < j.MinMS {
			return nil, fmt.Errorf("jitter range %d-%d ms is inverted", j.MinMS, j.MaxMS)
		}
		return &Uniform{dist: distuv.Uniform{Min: float64(j.MinMS), Max: float64(j.MaxMS), Src: src}}, nil
	default:
		return Fixed(config.Millis(j.FixedMS)), nil
	}
}

// Schedule samples the fixation durations of a trial plan.
type Schedule struct {
	Initial Sampler
	PostCue Sampler
	Cue     time.Duration
	Target  time.Duration
	Max     time.Duration
}

// NewSchedule builds the samplers of a config's timing section.
func NewSchedule(t config.Timing, src rand.Source) (*Schedule, error) {
	initial, err := NewSampler(t.InitialFixation, src)
	if err != nil {
		return nil, fmt.Errorf("initial fixation: %w", err)
	}
	postCue, err := NewSampler(t.PostCueFixation, src)
	if err != nil {
		return nil, fmt.Errorf("post-cue fixation: %w", err)
	}
	return &Schedule{
		Initial: initial,
		PostCue: postCue,
		Cue:     config.Millis(t.CueMS),
		Target:  config.Millis(t.TargetMS),
		Max:     config.Millis(t.MaxTrialMS),
	}, nil
}

// Next draws the plan of the next trial.
func (s *Schedule) Next() Plan {
	return Plan{
		InitialFixation: s.Initial.Sample(),
		Cue:             s.Cue,
		PostCueFixation: s.PostCue.Sample(),
		Target:          s.Target,
		MaxTrial:        s.Max,
	}
}
