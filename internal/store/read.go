package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/mant/internal/trial"
)

// ReadTrials returns the archived trials of subject, or of every subject
// when subject is empty. Results are ordered by subject, block, trial and
// row id.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ReadTrials(ctx context.Context, subject string) ([]trial.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, block, trial, cue_location, sequence_location, cue_type,
		       target_congruent, target_direction, response, correct, rt,
		       pre_cue_jitter, post_cue_jitter, cue_onset, target_onset, response_onset
		FROM trials
		WHERE ? = '' OR subject = ?
		ORDER BY subject COLLATE BINARY ASC, block ASC, trial ASC, id ASC
	`, subject, subject)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	records := []trial.Record{}
	for rows.Next() {
		var (
			r                              trial.Record
			cue, congruency, direction     string
			correct                        int
			rt, pre, post                  sql.NullFloat64
			cueOnset, targetOnset, respOns sql.NullFloat64
		)
		err := rows.Scan(&r.Subject, &r.Block, &r.Index, &r.CueLocation, &r.SequenceLocation, &cue,
			&congruency, &direction, &r.Response, &correct, &rt,
			&pre, &post, &cueOnset, &targetOnset, &respOns)
		if err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		if err := unmarshalRecord(&r, cue, congruency, direction, correct); err != nil {
			return nil, fmt.Errorf("decode trial %s/%d: %w", r.Subject, r.Index, err)
		}
		r.RT = seconds(rt)
		r.PreCueJitter = seconds(pre)
		r.PostCueJitter = seconds(post)
		r.Onsets = trial.Onsets{Cue: seconds(cueOnset), Target: seconds(targetOnset), Response: seconds(respOns)}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trials: %w", err)
	}
	return records, nil
}

// ReadSessions returns every archived session ordered by start time and id.
func (s *Store) ReadSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, subject, variant, session, run, started_at, aborted
		FROM sessions
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var (
			sess        Session
			id, started string
		)
		if err := rows.Scan(&id, &sess.Source, &sess.Subject, &sess.Variant, &sess.Session, &sess.Run, &started, &sess.Aborted); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if sess.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("session id %q: %w", id, err)
		}
		if sess.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Subjects returns the distinct subject tokens of the archived trials in
// order.
func (s *Store) Subjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT subject FROM trials ORDER BY subject COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	subjects := []string{}
	for rows.Next() {
		var subj string
		if err := rows.Scan(&subj); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, subj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}
