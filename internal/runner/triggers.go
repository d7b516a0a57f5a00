package runner

import (
	"log/slog"
	"time"

	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/trial"
)

// TriggerPort sends event codes to an EEG amplifier.
type TriggerPort interface {
	Send(at time.Duration, code byte) error
}

// Trigger is one code sent at a run time.
type Trigger struct {
	At   time.Duration
	Code byte
}

// RecordingPort keeps every code it is sent.
type RecordingPort struct {
	Sent []Trigger
}

func (p *RecordingPort) Send(at time.Duration, code byte) error {
	p.Sent = append(p.Sent, Trigger{At: at, Code: code})
	return nil
}

// Codes returns the sent codes in order.
func (p *RecordingPort) Codes() []byte {
	codes := make([]byte, len(p.Sent))
	for i, t := range p.Sent {
		codes[i] = t.Code
	}
	return codes
}

// LogPort writes codes to a logger at debug level.
type LogPort struct {
	Logger *slog.Logger
}

func (p LogPort) Send(at time.Duration, code byte) error {
	p.Logger.Debug("trigger", "at", at, "code", code)
	return nil
}

func cueCode(t *config.Triggers, cue trial.CueType) byte {
	switch cue {
	case trial.CueValid:
		return byte(t.ValidCue)
	case trial.CueInvalid:
		return byte(t.InvalidCue)
	case trial.CueDouble:
		return byte(t.DoubleCue)
	}
	return 0
}

func targetCode(t *config.Triggers, c trial.Congruency) byte {
	if c == trial.Incongruent {
		return byte(t.Incongruent)
	}
	return byte(t.Congruent)
}
