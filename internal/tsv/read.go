package tsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/mant/internal/trial"
)

// requiredColumns must be present in every beh file.
var requiredColumns = []string{ColCueType, ColTargetCongruent}

// Read decodes a header row and the data rows that follow it. Columns the
// package does not know are ignored; cells are matched to fields by header
// name.
func Read(r io.Reader) ([]trial.Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = lo.Map(header, func(h string, _ int) string {
		return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	})
	if missing, _ := lo.Difference(requiredColumns, header); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns %v", missing)
	}

	var records []trial.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(row), len(header))
		}
		var rec trial.Record
		for i, col := range header {
			if err := setField(&rec, col, row[i]); err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, col, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile reads one trial or session file.
func ReadFile(path string) ([]trial.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
