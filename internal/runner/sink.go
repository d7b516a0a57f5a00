package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/trial"
	"github.com/roach88/mant/internal/tsv"
)

// Data types of the output files.
const (
	DataBeh    = "beh"
	DataOnsets = "onsets"
)

// Layout is the BIDS-style directory tree of a session:
// <root>/sub-<s>/ses-<ses>/[run-<r>/]<datatype>.
type Layout struct {
	Root    string
	Subject string
	Session string
	Run     string
}

// SessionDir is <root>/sub-<s>/ses-<ses>.
func (l Layout) SessionDir() string {
	return filepath.Join(l.Root, "sub-"+l.Subject, "ses-"+l.Session)
}

// DataDir is the folder files of a data type are written to.
func (l Layout) DataDir(dataType string) string {
	if l.Run != "" {
		return filepath.Join(l.SessionDir(), "run-"+l.Run, dataType)
	}
	return filepath.Join(l.SessionDir(), dataType)
}

// Create makes the data folders. Folders that already exist are kept.
func (l Layout) Create(dataTypes ...string) error {
	for _, dt := range dataTypes {
		if err := os.MkdirAll(l.DataDir(dt), 0o755); err != nil {
			return fmt.Errorf("create %s folder: %w", dt, err)
		}
	}
	return nil
}

// Sink persists scored trials.
type Sink interface {
	Save(r trial.Record) error
	// Files returns the paths written so far.
	Files() []string
	// Close releases the open output files.
	Close() error
}

// PerTrialSink writes one beh file, and optionally one onsets file, per
// trial.
type PerTrialSink struct {
	layout  Layout
	naming  tsv.Naming
	columns tsv.Columns
	onsets  bool
	files   []string
}

func (s *PerTrialSink) Save(r trial.Record) error {
	path := filepath.Join(s.layout.DataDir(DataBeh), s.naming.TrialFile(DataBeh, r.Index))
	if err := tsv.WriteFile(path, s.columns, []trial.Record{r}); err != nil {
		return err
	}
	s.files = append(s.files, path)
	if !s.onsets {
		return nil
	}
	path = filepath.Join(s.layout.DataDir(DataOnsets), s.naming.TrialFile(DataOnsets, r.Index))
	if err := tsv.WriteFile(path, tsv.OnsetColumns, []trial.Record{r}); err != nil {
		return err
	}
	s.files = append(s.files, path)
	return nil
}

func (s *PerTrialSink) Files() []string { return s.files }

func (s *PerTrialSink) Close() error { return nil }

// SessionSink keeps one beh file for the whole session. The file is
// created on the first trial and every trial appends one row, synced to disk
// before Save returns, so an interrupted session keeps the trials it ran.
type SessionSink struct {
	path    string
	columns tsv.Columns
	file    *os.File
	rows    *tsv.Appender
}

func (s *SessionSink) Save(r trial.Record) error {
	if s.file == nil {
		f, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("create %s: %w", filepath.Base(s.path), err)
		}
		rows, err := tsv.NewAppender(f, s.columns)
		if err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", filepath.Base(s.path), err)
		}
		s.file, s.rows = f, rows
	}
	if err := s.rows.Append(r); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(s.path), err)
	}
	return s.file.Sync()
}

func (s *SessionSink) Files() []string {
	if s.file == nil {
		return nil
	}
	return []string{s.path}
}

func (s *SessionSink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// NewSink returns the sink the config's output section asks for and creates
// its folders.
func NewSink(cfg *config.Config, layout Layout) (Sink, error) {
	naming := tsv.Naming{Subject: layout.Subject, Session: layout.Session, Task: cfg.Task, Run: layout.Run}
	columns := tsv.BehaviouralColumns
	if cfg.Output.Onsets {
		columns = tsv.ScannerColumns
	}

	dataTypes := []string{DataBeh}
	if cfg.Output.PerTrial && cfg.Output.Onsets {
		dataTypes = append(dataTypes, DataOnsets)
	}
	if err := layout.Create(dataTypes...); err != nil {
		return nil, err
	}

	if cfg.Output.PerTrial {
		return &PerTrialSink{layout: layout, naming: naming, columns: columns, onsets: cfg.Output.Onsets}, nil
	}
	return &SessionSink{
		path:    filepath.Join(layout.DataDir(DataBeh), naming.SessionFile(DataBeh)),
		columns: tsv.SessionColumns,
	}, nil
}
