package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/mant/internal/trial"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func createTestSession(subject string) Session {
	return Session{
		ID:        uuid.Must(uuid.NewV7()),
		Subject:   subject,
		Variant:   "behavioural",
		Session:   "beh",
		StartedAt: testStart,
	}
}

// createTestRecord creates a scored trial of a condition label such as "VC".
func createTestRecord(subject string, block, index int, label string, rt float64) trial.Record {
	c, err := trial.ParseLabel(label)
	if err != nil {
		panic(err)
	}
	r := trial.Record{
		Subject:          subject,
		Block:            block,
		Index:            index,
		CueLocation:      "up",
		SequenceLocation: "up",
		CueType:          c.CueType,
		Congruency:       c.Congruency,
		Direction:        trial.Left,
		Response:         "left",
		Correct:          trial.Correct,
		RT:               trial.Sec(rt),
	}
	if rt < 0 {
		r.Response = trial.MissResponse
		r.Correct = trial.Miss
		r.RT = trial.Seconds{}
	}
	return r
}
