package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/mant/internal/trial"
)

// SourceRun is the source of sessions archived straight from the runner.
const SourceRun = "run"

// Session is one archived session row.
type Session struct {
	ID uuid.UUID
	// Source is SourceRun for live sessions, or the folder a session was
	// imported from.
	Source    string
	Subject   string
	Variant   string
	Session   string
	Run       string
	StartedAt time.Time
	Aborted   bool
}

// Row is a trial with the place it was read from.
type Row struct {
	File   string
	Row    int
	Record trial.Record
}

// ArchiveSession writes a live session and its trials in one transaction.
// The session's own ID names the source file of its trials, with the trial
// index as the row. Returns the number of trials inserted.
func (s *Store) ArchiveSession(ctx context.Context, sess Session, records []trial.Record) (int, error) {
	if sess.ID == uuid.Nil {
		return 0, fmt.Errorf("archive session: missing session id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("archive session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if sess.Source == "" {
		sess.Source = SourceRun + ":" + sess.ID.String()
	}
	if _, err := insertSession(ctx, tx, sess); err != nil {
		return 0, fmt.Errorf("archive session: %w", err)
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{File: sess.ID.String(), Row: r.Index, Record: r}
	}
	n, err := insertTrials(ctx, tx, sess.ID, rows)
	if err != nil {
		return 0, fmt.Errorf("archive session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("archive session: commit: %w", err)
	}
	return n, nil
}

// Import writes rows read from a data folder. Rows are grouped into one
// session per subject and source; sessions that already exist are reused and
// rows already archived are skipped, so importing the same folder twice
// inserts nothing the second time. Returns the number of trials inserted.
func (s *Store) Import(ctx context.Context, source string, rows []Row, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import: begin tx: %w", err)
	}
	defer tx.Rollback()

	bySubject := map[string][]Row{}
	var subjects []string
	for _, r := range rows {
		subj := r.Record.Subject
		if _, ok := bySubject[subj]; !ok {
			subjects = append(subjects, subj)
		}
		bySubject[subj] = append(bySubject[subj], r)
	}

	total := 0
	for _, subj := range subjects {
		id, err := uuid.NewV7()
		if err != nil {
			return 0, fmt.Errorf("import: generate session id: %w", err)
		}
		sessionID, err := insertSession(ctx, tx, Session{ID: id, Source: source, Subject: subj, StartedAt: now})
		if err != nil {
			return 0, fmt.Errorf("import %s: %w", subj, err)
		}
		n, err := insertTrials(ctx, tx, sessionID, bySubject[subj])
		if err != nil {
			return 0, fmt.Errorf("import %s: %w", subj, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import: commit: %w", err)
	}
	return total, nil
}

// insertSession inserts a session or, when one with the same source and
// subject exists, returns the existing ID.
func insertSession(ctx context.Context, tx *sql.Tx, sess Session) (uuid.UUID, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO sessions
		(id, source, subject, variant, session, run, started_at, aborted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, subject) DO NOTHING
	`,
		sess.ID.String(),
		sess.Source,
		sess.Subject,
		sess.Variant,
		sess.Session,
		sess.Run,
		formatTime(sess.StartedAt),
		sess.Aborted,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session: rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return sess.ID, nil
	}

	// Conflict - session already exists, fetch the existing ID
	var existing string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM sessions WHERE source = ? AND subject = ?
	`, sess.Source, sess.Subject).Scan(&existing)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session: select existing: %w", err)
	}
	id, err := uuid.Parse(existing)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session: stored id %q: %w", existing, err)
	}
	return id, nil
}

// insertTrials writes rows with ON CONFLICT DO NOTHING on the source key and
// returns how many were new.
func insertTrials(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID, rows []Row) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials
		(session_id, subject, source_file, source_row, block, trial,
		 cue_location, sequence_location, cue_type, target_congruent, target_direction,
		 response, correct, rt, pre_cue_jitter, post_cue_jitter,
		 cue_onset, target_onset, response_onset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject, source_file, source_row) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare trial insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		r := row.Record
		result, err := stmt.ExecContext(ctx,
			sessionID.String(),
			r.Subject,
			row.File,
			row.Row,
			r.Block,
			r.Index,
			r.CueLocation,
			r.SequenceLocation,
			r.CueType.String(),
			r.Congruency.String(),
			string(r.Direction),
			r.Response,
			int(r.Correct),
			nullSeconds(r.RT),
			nullSeconds(r.PreCueJitter),
			nullSeconds(r.PostCueJitter),
			nullSeconds(r.Onsets.Cue),
			nullSeconds(r.Onsets.Target),
			nullSeconds(r.Onsets.Response),
		)
		if err != nil {
			return 0, fmt.Errorf("insert trial %s:%d: %w", row.File, row.Row, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert trial: rows affected: %w", err)
		}
		inserted += int(n)
	}
	return inserted, nil
}
