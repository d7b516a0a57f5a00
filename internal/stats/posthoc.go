package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/roach88/mant/internal/analysis"
	"github.com/roach88/mant/internal/trial"
)

// DefaultAlpha is the family-wise error rate of post-hoc comparisons.
const DefaultAlpha = 0.05

// Comparison is one pairwise post-hoc test.
type Comparison struct {
	Group1    string
	Group2    string
	Statistic float64
	P         float64
	// PCorrected is the Bonferroni-corrected p-value, capped at 1.
	PCorrected float64
	Reject     bool
}

// PostHocCues runs independent t-tests of reaction time between every pair
// of cue types present in records, pooling all subjects, and applies a
// Bonferroni correction over the pairs. Groups are named by their cue_type
// column value and compared in lexical order.
func PostHocCues(records []trial.Record, alpha float64) ([]Comparison, error) {
	groups := lo.GroupBy(records, func(r trial.Record) string { return r.CueType.String() })
	names := lo.Keys(groups)
	slices.Sort(names)
	if len(names) < 2 {
		return nil, fmt.Errorf("post-hoc comparisons need at least two cue types, got %d", len(names))
	}

	var out []Comparison
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			res, err := TTestInd(analysis.RTs(groups[names[i]]), analysis.RTs(groups[names[j]]))
			if err != nil {
				return nil, fmt.Errorf("%s vs %s: %w", names[i], names[j], err)
			}
			out = append(out, Comparison{Group1: names[i], Group2: names[j], Statistic: res.Statistic, P: res.P})
		}
	}
	m := float64(len(out))
	for i := range out {
		out[i].PCorrected = math.Min(1, out[i].P*m)
		out[i].Reject = out[i].PCorrected < alpha
	}
	return out, nil
}
