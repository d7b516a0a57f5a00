package tsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/mant/internal/trial"
)

// Write encodes records as a header row followed by one row per record.
func Write(w io.Writer, cols Columns, records []trial.Record) error {
	a, err := NewAppender(w, cols)
	if err != nil {
		return err
	}
	for i, r := range records {
		if err := a.Append(r); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// Appender writes records one row at a time under a header written once.
type Appender struct {
	cw   *csv.Writer
	cols Columns
	row  []string
}

// NewAppender writes the header row to w.
func NewAppender(w io.Writer, cols Columns) (*Appender, error) {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(cols); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Appender{cw: cw, cols: cols, row: make([]string, len(cols))}, nil
}

// Append writes one row and flushes it to the underlying writer.
func (a *Appender) Append(r trial.Record) error {
	for j, col := range a.cols {
		v, err := field(r, col)
		if err != nil {
			return err
		}
		a.row[j] = v
	}
	if err := a.cw.Write(a.row); err != nil {
		return err
	}
	a.cw.Flush()
	return a.cw.Error()
}

// WriteFile writes records to path, replacing any existing file. The parent
// directory must exist.
//
// The file is written to a temporary name first and renamed into place so a
// crash mid-write never leaves a truncated trial file behind.
func WriteFile(path string, cols Columns, records []trial.Record) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	if err := Write(tmp, cols, records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
