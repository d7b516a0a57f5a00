package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/mant/internal/trial"
)

// nullSeconds maps a missing value to SQL NULL.
func nullSeconds(s trial.Seconds) sql.NullFloat64 {
	return sql.NullFloat64{Float64: s.Value, Valid: s.Valid}
}

func seconds(n sql.NullFloat64) trial.Seconds {
	return trial.Seconds{Value: n.Float64, Valid: n.Valid}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse started_at %q: %w", s, err)
	}
	return t, nil
}

// unmarshalRecord converts the text columns of a trial row back to a record.
func unmarshalRecord(r *trial.Record, cue, congruency, direction string, correct int) error {
	var err error
	if r.CueType, err = trial.ParseCueType(cue); err != nil {
		return err
	}
	if r.Congruency, err = trial.ParseCongruency(congruency); err != nil {
		return err
	}
	if r.Direction, err = trial.ParseDirection(direction); err != nil {
		return err
	}
	r.Correct = trial.Correctness(correct)
	return nil
}
