package tsv

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/mant/internal/trial"
)

// SortKey orders discovered files.
type SortKey int

const (
	// SortByPath orders files lexically by path.
	SortByPath SortKey = iota
	// SortByTrial orders per-trial files by run number, then trailing trial
	// number.
	SortByTrial
	// SortBySubject orders files by subject token, then as SortByTrial.
	SortBySubject
)

// ParseSortKey parses "path", "trial" or "subject".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(s) {
	case "", "path":
		return SortByPath, nil
	case "trial":
		return SortByTrial, nil
	case "subject":
		return SortBySubject, nil
	}
	return SortByPath, fmt.Errorf("unknown sort key %q: must be one of path, trial, subject", s)
}

// Find walks root recursively and returns the .tsv files whose base name
// contains dataType (e.g. "beh", "onsets"), ordered by key. Ties keep path
// order.
func Find(root, dataType string, key SortKey) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".tsv") && strings.Contains(name, dataType) && !strings.HasPrefix(name, ".") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(files)
	switch key {
	case SortByTrial:
		sort.SliceStable(files, func(i, j int) bool {
			return positionLess(files[i], files[j])
		})
	case SortBySubject:
		sort.SliceStable(files, func(i, j int) bool {
			si, sj := SubjectToken(files[i]), SubjectToken(files[j])
			if si != sj {
				return si < sj
			}
			return positionLess(files[i], files[j])
		})
	}
	return files, nil
}

// positionLess orders two files by run number, then trial number. Files
// without a run or trial number sort first.
func positionLess(a, b string) bool {
	ra, rb := numberOr(RunNumber(a)), numberOr(RunNumber(b))
	if ra != rb {
		return ra < rb
	}
	return numberOr(TrialNumber(a)) < numberOr(TrialNumber(b))
}

func numberOr(n int, ok bool) int {
	if !ok {
		return -1
	}
	return n
}

// File is the records read from one file.
type File struct {
	Path    string
	Records []trial.Record
}

// LoadFiles finds and reads every file of dataType below root, in key order.
//
// Records without a subject column take the sub-XX token of their path, and
// files below a run-<n> folder put their records in block n-1.
// Records from per-trial files take the trial number of their file name;
// records from session files keep their trial column, or their row position
// when the column is absent.
func LoadFiles(root, dataType string, key SortKey) ([]File, error) {
	paths, err := Find(root, dataType, key)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		records, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		subject := SubjectToken(path)
		n, perTrial := TrialNumber(path)
		run, hasRun := RunNumber(path)
		for i := range records {
			if records[i].Subject == "" {
				records[i].Subject = subject
			}
			if hasRun && run > 0 && records[i].Block == 0 {
				records[i].Block = run - 1
			}
			switch {
			case perTrial && len(records) == 1:
				records[i].Index = n
			case records[i].Index == 0:
				records[i].Index = i
			}
		}
		files = append(files, File{Path: path, Records: records})
	}
	return files, nil
}

// Load is LoadFiles with the records of all files concatenated.
func Load(root, dataType string, key SortKey) ([]trial.Record, error) {
	files, err := LoadFiles(root, dataType, key)
	if err != nil {
		return nil, err
	}
	var all []trial.Record
	for _, f := range files {
		all = append(all, f.Records...)
	}
	return all, nil
}
