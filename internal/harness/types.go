package harness

import (
	"github.com/roach88/mant/internal/runner"
	"github.com/roach88/mant/internal/trial"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions match.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Summary is what the runner reported.
	Summary *runner.Summary `json:"-"`

	// Records are the saved trials as read back from the archive.
	Records []trial.Record `json:"-"`

	// Triggers are the codes sent to the trigger port, in order.
	Triggers []byte `json:"triggers"`

	// Files are the written data files, relative to the output root and
	// slash-separated.
	Files []string `json:"files"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Triggers: []byte{},
		Files:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
