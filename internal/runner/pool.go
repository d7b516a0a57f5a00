package runner

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/rand"

	"github.com/roach88/mant/internal/trial"
)

// Entry is one row of a condition pool: the design cell of a trial, where
// its cue and arrows appear, and any per-component geometry the display
// needs to draw them.
type Entry struct {
	CueLocation      string
	SequenceLocation string
	CueType          trial.CueType
	Congruency       trial.Congruency
	Direction        trial.Direction

	// Geometry maps stimulus component names (cue1_vertical, flanker1, ...)
	// to their raw coordinates. Empty for the built-in pool.
	Geometry map[string]string
}

// Condition returns the design cell of the entry.
func (e Entry) Condition() trial.Condition {
	return trial.Condition{CueType: e.CueType, Congruency: e.Congruency}
}

// Record returns an unscored record describing the entry.
func (e Entry) Record() trial.Record {
	return trial.Record{
		CueLocation:      e.CueLocation,
		SequenceLocation: e.SequenceLocation,
		CueType:          e.CueType,
		Congruency:       e.Congruency,
		Direction:        e.Direction,
	}
}

// Pool is the list of entries a block is drawn from.
type Pool []Entry

var poolColumns = []string{"cue_location", "sequence_location", "cue_type", "target_congruent", "target_direction"}

// BuiltinPool crosses every condition of the design with both sequence
// locations (up, down) and both target directions. Valid cues appear at the
// sequence location, invalid cues at the opposite one and double cues at
// both.
func BuiltinPool(design trial.Design) Pool {
	var pool Pool
	for _, c := range design {
		for _, loc := range []string{"up", "down"} {
			for _, dir := range []trial.Direction{trial.Left, trial.Right} {
				pool = append(pool, Entry{
					CueLocation:      cueLocation(c.CueType, loc),
					SequenceLocation: loc,
					CueType:          c.CueType,
					Congruency:       c.Congruency,
					Direction:        dir,
				})
			}
		}
	}
	return pool
}

func cueLocation(cue trial.CueType, seq string) string {
	switch cue {
	case trial.CueDouble:
		return "both"
	case trial.CueInvalid:
		if seq == "up" {
			return "down"
		}
		return "up"
	}
	return seq
}

// LoadPool reads a comma-separated condition file. The five design columns
// are required; every other column is kept as stimulus geometry.
func LoadPool(path string) (Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open condition file: %w", err)
	}
	defer f.Close()

	pool, err := ReadPool(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pool, nil
}

// ReadPool decodes a condition pool from r.
func ReadPool(r io.Reader) (Pool, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("condition file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = lo.Map(header, func(h string, _ int) string {
		return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	})
	if missing, _ := lo.Difference(poolColumns, header); len(missing) > 0 {
		return nil, fmt.Errorf("missing condition columns %v", missing)
	}

	var pool Pool
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e, err := parseEntry(header, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pool = append(pool, e)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("condition file has no rows")
	}
	return pool, nil
}

func parseEntry(header, row []string) (Entry, error) {
	var e Entry
	var err error
	for i, col := range header {
		v := row[i]
		switch col {
		case "cue_location":
			e.CueLocation = v
		case "sequence_location":
			e.SequenceLocation = v
		case "cue_type":
			e.CueType, err = trial.ParseCueType(v)
		case "target_congruent":
			e.Congruency, err = trial.ParseCongruency(v)
		case "target_direction":
			e.Direction, err = trial.ParseDirection(v)
		default:
			if e.Geometry == nil {
				e.Geometry = map[string]string{}
			}
			e.Geometry[col] = v
		}
		if err != nil {
			return Entry{}, fmt.Errorf("column %s: %w", col, err)
		}
	}
	return e, nil
}

// Repeat builds the trial order of one block: exactly trialsPerBlock
// entries made of whole repetitions of the pool, each shuffled
// independently, topped up with the head of one more shuffled repetition
// when trialsPerBlock is not a multiple of the pool size.
func (p Pool) Repeat(trialsPerBlock int, rng *rand.Rand) []Entry {
	if len(p) == 0 || trialsPerBlock <= 0 {
		return nil
	}
	out := make([]Entry, 0, trialsPerBlock)
	for len(out)+len(p) <= trialsPerBlock {
		out = append(out, p.Shuffled(rng)...)
	}
	if rest := trialsPerBlock - len(out); rest > 0 {
		out = append(out, p.Shuffled(rng)[:rest]...)
	}
	return out
}

// Shuffled returns a shuffled copy of the pool.
func (p Pool) Shuffled(rng *rand.Rand) []Entry {
	cp := append([]Entry(nil), p...)
	rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp
}

// Missing returns the design conditions that have no entry in the pool.
func (p Pool) Missing(design trial.Design) []trial.Condition {
	present := lo.Map(p, func(e Entry, _ int) trial.Condition { return e.Condition() })
	missing, _ := lo.Difference([]trial.Condition(design), present)
	return missing
}
