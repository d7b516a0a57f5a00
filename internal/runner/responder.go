package runner

import (
	"slices"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/roach88/mant/internal/trial"
)

// EventKind is what the runner just put on screen.
type EventKind int

const (
	// PromptShown is a text screen waiting for one of Event.Keys.
	PromptShown EventKind = iota
	// DemoShown is a demo stimulus that Event.Keys skip.
	DemoShown
	// TrialStarted is the initial fixation of a trial.
	TrialStarted
	// TargetShown opens the response window of a trial.
	TargetShown
)

// Event tells a Responder what is being shown.
type Event struct {
	Kind EventKind
	// At is the run time of the event.
	At time.Duration
	// Screen names the text screen or demo.
	Screen string
	// Keys are the keys the runner accepts while the event lasts.
	Keys []string

	Entry    Entry
	Training bool
	Trial    int
}

// Responder stands in for the subject. The runner arms it whenever the
// screen changes in a way that calls for a response and polls it once per
// frame.
type Responder interface {
	Arm(ev Event)
	// Keys returns the keys pressed up to run time now since the last call.
	Keys(now time.Duration) []string
}

// Profile shapes the behaviour of a Simulated responder.
type Profile struct {
	// Accuracy is the probability that a response uses the correct key.
	Accuracy float64
	// MissRate is the probability of not responding at all.
	MissRate float64
	MeanRT   time.Duration
	SDRT     time.Duration
	MinRT    time.Duration
	// Condition costs are added to the drawn RT.
	IncongruentCost time.Duration
	InvalidCueCost  time.Duration
	DoubleCueCost   time.Duration
	// PromptDelay is how long the subject reads a screen before continuing.
	PromptDelay time.Duration
}

// DefaultProfile resembles a healthy adult in a flanker task.
var DefaultProfile = Profile{
	Accuracy:        0.95,
	MissRate:        0.02,
	MeanRT:          520 * time.Millisecond,
	SDRT:            90 * time.Millisecond,
	MinRT:           150 * time.Millisecond,
	IncongruentCost: 70 * time.Millisecond,
	InvalidCueCost:  40 * time.Millisecond,
	DoubleCueCost:   15 * time.Millisecond,
	PromptDelay:     500 * time.Millisecond,
}

// Simulated draws responses from a Profile with a seeded source.
type Simulated struct {
	profile Profile
	keys    trial.KeyMap
	rng     *rand.Rand
	rt      distuv.Normal

	pending string
	at      time.Duration
	armed   bool
}

// NewSimulated returns a simulated subject answering with the given device.
func NewSimulated(p Profile, keys trial.KeyMap, seed uint64) *Simulated {
	src := rand.NewSource(seed)
	return &Simulated{
		profile: p,
		keys:    keys,
		rng:     rand.New(src),
		rt:      distuv.Normal{Mu: float64(p.MeanRT), Sigma: float64(p.SDRT), Src: src},
	}
}

func (s *Simulated) Arm(ev Event) {
	s.armed = false
	switch ev.Kind {
	case PromptShown, DemoShown:
		if len(ev.Keys) > 0 {
			s.press(ev.Keys[0], ev.At+s.profile.PromptDelay)
		}
	case TargetShown:
		if s.rng.Float64() < s.profile.MissRate {
			return
		}
		key := s.keys.KeyFor(ev.Entry.Direction)
		if s.rng.Float64() >= s.profile.Accuracy {
			key = s.keys.KeyFor(opposite(ev.Entry.Direction))
		}
		s.press(key, ev.At+s.drawRT(ev.Entry))
	}
}

func (s *Simulated) Keys(now time.Duration) []string {
	if !s.armed || now < s.at {
		return nil
	}
	s.armed = false
	return []string{s.pending}
}

func (s *Simulated) press(key string, at time.Duration) {
	s.pending, s.at, s.armed = key, at, true
}

func (s *Simulated) drawRT(e Entry) time.Duration {
	rt := time.Duration(s.rt.Rand())
	if e.Congruency == trial.Incongruent {
		rt += s.profile.IncongruentCost
	}
	switch e.CueType {
	case trial.CueInvalid:
		rt += s.profile.InvalidCueCost
	case trial.CueDouble:
		rt += s.profile.DoubleCueCost
	}
	return max(rt, s.profile.MinRT)
}

func opposite(d trial.Direction) trial.Direction {
	if d == trial.Left {
		return trial.Right
	}
	return trial.Left
}

// Answer is one scripted trial response. An empty Key is a miss.
type Answer struct {
	Key string        `yaml:"key"`
	RT  time.Duration `yaml:"rt"`
}

// Scripted replays fixed answers: one per experimental trial in order, then
// misses once the script runs out. Training trials draw from Training the
// same way. Prompts and demos are answered from Prompts by screen name, or
// with the first accepted key.
type Scripted struct {
	Trials   []Answer
	Training []Answer
	Prompts  map[string]string

	next, nextTraining int

	pending string
	at      time.Duration
	armed   bool
}

func (s *Scripted) Arm(ev Event) {
	s.armed = false
	switch ev.Kind {
	case PromptShown, DemoShown:
		key, ok := s.Prompts[ev.Screen]
		if !ok {
			if len(ev.Keys) == 0 {
				return
			}
			key = ev.Keys[0]
		}
		if key == "" || !slices.Contains(ev.Keys, key) {
			return
		}
		s.pending, s.at, s.armed = key, ev.At, true
	case TargetShown:
		var a Answer
		if ev.Training {
			if s.nextTraining >= len(s.Training) {
				return
			}
			a = s.Training[s.nextTraining]
			s.nextTraining++
		} else {
			if s.next >= len(s.Trials) {
				return
			}
			a = s.Trials[s.next]
			s.next++
		}
		if a.Key == "" {
			return
		}
		s.pending, s.at, s.armed = a.Key, ev.At+a.RT, true
	}
}

func (s *Scripted) Keys(now time.Duration) []string {
	if !s.armed || now < s.at {
		return nil
	}
	s.armed = false
	return []string{s.pending}
}
