package tsv

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Naming carries the identity parts of an output file name.
type Naming struct {
	Subject string
	Session string
	Task    string
	// Run is empty for variants without scanner runs.
	Run string
}

// TrialFile names the file holding a single trial of the given data type,
// e.g. sub-01_task-mANT_run-2_beh_17.tsv.
func (n Naming) TrialFile(dataType string, trial int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "sub-%s_task-%s", n.Subject, n.Task)
	if n.Run != "" {
		fmt.Fprintf(&b, "_run-%s", n.Run)
	}
	fmt.Fprintf(&b, "_%s_%d.tsv", dataType, trial)
	return b.String()
}

// SessionFile names the file holding a whole session of the given data type,
// e.g. sub-01_ses-eeg_task-mANT_beh.tsv.
func (n Naming) SessionFile(dataType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "sub-%s", n.Subject)
	if n.Session != "" {
		fmt.Fprintf(&b, "_ses-%s", n.Session)
	}
	fmt.Fprintf(&b, "_task-%s", n.Task)
	if n.Run != "" {
		fmt.Fprintf(&b, "_run-%s", n.Run)
	}
	fmt.Fprintf(&b, "_%s.tsv", dataType)
	return b.String()
}

var (
	subjectPattern = regexp.MustCompile(`sub-([A-Za-z0-9]+)`)
	runPattern     = regexp.MustCompile(`run-(\d+)`)
	trialPattern   = regexp.MustCompile(`_(\d+)\.tsv$`)
)

// SubjectToken returns the last sub-XX token found in path, or "".
func SubjectToken(path string) string {
	matches := subjectPattern.FindAllString(filepath.ToSlash(path), -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// RunNumber returns the last run-<n> number found in path.
func RunNumber(path string) (int, bool) {
	matches := runPattern.FindAllStringSubmatch(filepath.ToSlash(path), -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// TrialNumber returns the trailing trial index of a per-trial file name.
func TrialNumber(path string) (int, bool) {
	m := trialPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SubjectID formats a 1-based subject number as a zero-padded token:
// 1 -> sub-01, 12 -> sub-12.
func SubjectID(n int) string {
	return fmt.Sprintf("sub-%02d", n)
}
