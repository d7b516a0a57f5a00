package trial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MissingValue is the sentinel written in place of a number that was never
// observed (the rt of a missed trial, the response onset of a miss).
const MissingValue = "none"

// MissResponse is the response recorded when no key was pressed in time.
const MissResponse = "miss"

// CueType is the spatial cue factor of a trial.
type CueType int

const (
	CueUnknown CueType = iota
	CueValid
	CueInvalid
	CueDouble
)

// String returns the spelling used in condition and output files.
func (c CueType) String() string {
	switch c {
	case CueValid:
		return "spatial valid"
	case CueInvalid:
		return "spatial invalid"
	case CueDouble:
		return "double"
	default:
		return "unknown"
	}
}

// Short returns the single-letter code used in condition labels.
func (c CueType) Short() string {
	switch c {
	case CueValid:
		return "V"
	case CueInvalid:
		return "I"
	case CueDouble:
		return "D"
	default:
		return "?"
	}
}

// ParseCueType accepts both the file spelling ("spatial valid") and the bare
// factor name ("valid").
func ParseCueType(s string) (CueType, error) {
	switch normalize(s) {
	case "spatial valid", "valid":
		return CueValid, nil
	case "spatial invalid", "invalid":
		return CueInvalid, nil
	case "double":
		return CueDouble, nil
	}
	return CueUnknown, fmt.Errorf("unknown cue type %q", s)
}

// Congruency tells whether the flankers point the same way as the target.
type Congruency int

const (
	CongruencyUnknown Congruency = iota
	Congruent
	Incongruent
)

// String returns "yes" or "no", the target_congruent column values.
func (c Congruency) String() string {
	switch c {
	case Congruent:
		return "yes"
	case Incongruent:
		return "no"
	default:
		return "unknown"
	}
}

// Short returns "C" or "I".
func (c Congruency) Short() string {
	switch c {
	case Congruent:
		return "C"
	case Incongruent:
		return "I"
	default:
		return "?"
	}
}

// ParseCongruency parses the target_congruent column.
func ParseCongruency(s string) (Congruency, error) {
	switch normalize(s) {
	case "yes", "congruent", "true":
		return Congruent, nil
	case "no", "incongruent", "false":
		return Incongruent, nil
	}
	return CongruencyUnknown, fmt.Errorf("unknown target congruency %q", s)
}

// Direction is where the target arrow points.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection parses the target_direction column.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(normalize(s)); d {
	case Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("unknown target direction %q", s)
}

// Correctness is the scored outcome of a trial.
type Correctness int

const (
	Miss      Correctness = -1
	Incorrect Correctness = 0
	Correct   Correctness = 1
)

// ParseCorrectness parses the correct column. Float spellings ("1.0") are
// accepted because tabular tools sometimes widen integer columns.
func ParseCorrectness(s string) (Correctness, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Incorrect, fmt.Errorf("invalid correctness %q: %w", s, err)
	}
	switch c := Correctness(int(f)); {
	case float64(c) != f:
		return Incorrect, fmt.Errorf("invalid correctness %q", s)
	case c == Miss, c == Incorrect, c == Correct:
		return c, nil
	}
	return Incorrect, fmt.Errorf("invalid correctness %q", s)
}

// Seconds is an optional duration in seconds. The zero value is missing.
type Seconds struct {
	Value float64
	Valid bool
}

// Sec returns a present Seconds value.
func Sec(v float64) Seconds {
	return Seconds{Value: v, Valid: true}
}

// String formats the value with the shortest exact representation, or the
// missing sentinel.
func (s Seconds) String() string {
	if !s.Valid {
		return MissingValue
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// ParseSeconds parses a number or one of the missing spellings ("none", "",
// "nan", "NaN").
func ParseSeconds(s string) (Seconds, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case MissingValue, "", "nan":
		return Seconds{}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Seconds{}, fmt.Errorf("invalid seconds value %q: %w", s, err)
	}
	if math.IsNaN(v) {
		return Seconds{}, nil
	}
	return Sec(v), nil
}

// Onsets are event times relative to the start of a scanner run.
type Onsets struct {
	Cue      Seconds
	Target   Seconds
	Response Seconds
}

// Record is one scored trial.
type Record struct {
	// Subject is the sub-XX token of the subject the trial belongs to.
	// Empty when the source does not carry it (a bare file outside sub-XX).
	Subject string

	// Block is the zero-based block (or run) index.
	Block int

	// Index is the zero-based trial number across the session.
	Index int

	CueLocation      string
	SequenceLocation string
	CueType          CueType
	Congruency       Congruency
	Direction        Direction

	// Response is the pressed key name or MissResponse.
	Response string
	Correct  Correctness
	RT       Seconds

	// Jitter values are only stored by variants that randomize fixation on a
	// per-trial basis and persist it (fMRI).
	PreCueJitter  Seconds
	PostCueJitter Seconds

	Onsets Onsets
}

// Condition returns the (cue type, congruency) pair of the record.
func (r Record) Condition() Condition {
	return Condition{CueType: r.CueType, Congruency: r.Congruency}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
