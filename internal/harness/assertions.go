package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/mant/internal/trial"
)

// AssertionError is returned when an assertion fails.
// It includes the saved trials to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Records  []trial.Record // Saved trials for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Records) > 0 {
		fmt.Fprintf(&buf, "\nTrials:\n")
		for _, r := range e.Records {
			fmt.Fprintf(&buf, "  [%d] block %d %s response=%q correct=%d\n",
				r.Index, r.Block, r.Condition().Label(), r.Response, int(r.Correct))
		}
	}
	return buf.String()
}

// EvaluateAssertions runs all assertions against the result and returns
// their failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	sum := result.Summary
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Records: result.Records}
	}

	switch a.Type {
	case AssertTrialCount:
		if len(result.Records) != a.Count {
			return fail(fmt.Sprintf("%d trials", a.Count), fmt.Sprintf("%d trials", len(result.Records)))
		}
	case AssertTrainingCount:
		if len(sum.Training) != a.Count {
			return fail(fmt.Sprintf("%d training trials", a.Count), fmt.Sprintf("%d training trials", len(sum.Training)))
		}
	case AssertBlockCount:
		if sum.Blocks != a.Count {
			return fail(fmt.Sprintf("%d blocks", a.Count), fmt.Sprintf("%d blocks", sum.Blocks))
		}
	case AssertFileCount:
		if len(result.Files) != a.Count {
			return fail(fmt.Sprintf("%d files", a.Count), fmt.Sprintf("%d files %v", len(result.Files), result.Files))
		}
	case AssertAborted:
		if sum.Aborted != a.Value {
			return fail(fmt.Sprintf("aborted=%t", a.Value), fmt.Sprintf("aborted=%t", sum.Aborted))
		}
	case AssertOutcomeCounts:
		correct, incorrect, misses := outcomeCounts(result.Records)
		if correct != a.Correct || incorrect != a.Incorrect || misses != a.Misses {
			return fail(
				fmt.Sprintf("correct=%d incorrect=%d misses=%d", a.Correct, a.Incorrect, a.Misses),
				fmt.Sprintf("correct=%d incorrect=%d misses=%d", correct, incorrect, misses))
		}
	case AssertTriggers:
		got := lo.Map(result.Triggers, func(c byte, _ int) int { return int(c) })
		if !slices.Equal(got, a.Codes) {
			return fail(fmt.Sprintf("triggers %v", a.Codes), fmt.Sprintf("triggers %v", got))
		}
	case AssertResponses:
		got := lo.Map(result.Records, func(r trial.Record, _ int) string { return r.Response })
		if !slices.Equal(got, a.Keys) {
			return fail(fmt.Sprintf("responses %q", a.Keys), fmt.Sprintf("responses %q", got))
		}
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
	return nil
}

func outcomeCounts(records []trial.Record) (correct, incorrect, misses int) {
	is := func(c trial.Correctness) func(trial.Record) bool {
		return func(r trial.Record) bool { return r.Correct == c }
	}
	return lo.CountBy(records, is(trial.Correct)), lo.CountBy(records, is(trial.Incorrect)), lo.CountBy(records, is(trial.Miss))
}
