package harness

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mant/internal/tsv"
)

// snapshotColumns is the part of a trial that does not depend on frame
// timing. Reaction times and onsets are left out.
var snapshotColumns = tsv.Columns{
	tsv.ColBlock,
	tsv.ColTrial,
	tsv.ColCueType,
	tsv.ColTargetCongruent,
	tsv.ColTargetDirection,
	tsv.ColResponse,
	tsv.ColCorrect,
}

// Snapshot renders the timing-independent outcome of a scenario as text:
// a header of session facts followed by the saved trials as TSV.
func Snapshot(name string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	sum := result.Summary
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "variant: %s\n", sum.Variant)
	fmt.Fprintf(&buf, "blocks: %d\n", sum.Blocks)
	fmt.Fprintf(&buf, "aborted: %t\n", sum.Aborted)
	fmt.Fprintf(&buf, "training: %d\n", len(sum.Training))

	triggers := "-"
	if len(result.Triggers) > 0 {
		triggers = strings.Join(lo.Map(result.Triggers, func(c byte, _ int) string {
			return strconv.Itoa(int(c))
		}), " ")
	}
	fmt.Fprintf(&buf, "triggers: %s\n", triggers)

	fmt.Fprintf(&buf, "files:\n")
	for _, f := range result.Files {
		fmt.Fprintf(&buf, "  %s\n", f)
	}
	fmt.Fprintf(&buf, "trials:\n")
	if err := tsv.Write(&buf, snapshotColumns, result.Records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}
