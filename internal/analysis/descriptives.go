package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/mant/internal/trial"
)

// MissPolicy says how reaction times of missed trials enter statistics.
type MissPolicy int

const (
	// Drop leaves missing reaction times out of means and deviations. Missed
	// trials still count in the accuracy denominator.
	Drop MissPolicy = iota
	// Interpolate fills missing reaction times linearly from their
	// neighbours over each subject's whole table before partitioning.
	// Leading gaps stay missing; trailing gaps take the last known value.
	Interpolate
)

func (p MissPolicy) String() string {
	if p == Interpolate {
		return "interpolate"
	}
	return "drop"
}

// ParseMissPolicy parses "drop" or "interpolate".
func ParseMissPolicy(s string) (MissPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return Drop, nil
	case "interpolate":
		return Interpolate, nil
	}
	return Drop, fmt.Errorf("unknown miss policy %q: must be drop or interpolate", s)
}

// Apply returns records prepared for the policy. Drop returns records
// unchanged; Interpolate returns a copy with reaction times filled in.
// Interpolation runs over each subject's trials on their own, in input order,
// so a subject's gaps are never filled from another subject. Records keep
// their positions in the input.
func (p MissPolicy) Apply(records []trial.Record) []trial.Record {
	if p != Interpolate {
		return records
	}
	out := append([]trial.Record(nil), records...)
	rows := lo.GroupBy(lo.Range(len(records)), func(i int) string { return records[i].Subject })
	for _, idx := range rows {
		rts := InterpolateSeconds(lo.Map(idx, func(i, _ int) trial.Seconds { return records[i].RT }))
		for k, i := range idx {
			out[i].RT = rts[k]
		}
	}
	return out
}

// InterpolateSeconds fills gaps linearly between the nearest present values
// on each side, by position. Gaps before the first present value stay
// missing; gaps after the last one take its value.
func InterpolateSeconds(values []trial.Seconds) []trial.Seconds {
	out := append([]trial.Seconds(nil), values...)
	prev := -1
	for i, v := range values {
		if !v.Valid {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			a, b := values[prev].Value, v.Value
			span := float64(i - prev)
			for k := prev + 1; k < i; k++ {
				out[k] = trial.Sec(a + (b-a)*float64(k-prev)/span)
			}
		}
		prev = i
	}
	if prev >= 0 {
		for k := prev + 1; k < len(values); k++ {
			out[k] = values[prev]
		}
	}
	return out
}

// Descriptive is the summary of one condition.
type Descriptive struct {
	Condition trial.Condition
	// N is the number of trials, missed ones included.
	N int
	// Accuracy is the percentage of correct trials. NaN when N is zero.
	Accuracy float64
	// MeanRT and RTStd are in seconds over the present reaction times; RTStd
	// is the sample standard deviation. NaN when too few are present.
	MeanRT float64
	RTStd  float64
}

// Label returns the abbreviated condition label.
func (d Descriptive) Label() string { return d.Condition.Label() }

// RTs returns the present reaction times of records, in order.
func RTs(records []trial.Record) []float64 {
	return lo.FilterMap(records, func(r trial.Record, _ int) (float64, bool) {
		return r.RT.Value, r.RT.Valid
	})
}

// Accuracy returns 100 * correct / len(records), or NaN for no records.
func Accuracy(records []trial.Record) float64 {
	if len(records) == 0 {
		return math.NaN()
	}
	correct := lo.CountBy(records, func(r trial.Record) bool { return r.Correct == trial.Correct })
	return 100 * float64(correct) / float64(len(records))
}

// Describe computes the descriptives of each group.
func Describe(groups []Group) []Descriptive {
	return lo.Map(groups, func(g Group, _ int) Descriptive {
		d := Descriptive{Condition: g.Condition, N: len(g.Records), Accuracy: Accuracy(g.Records)}
		d.MeanRT, d.RTStd = meanStd(RTs(g.Records))
		return d
	})
}

// Descriptives applies policy to the whole table, partitions it and
// describes every condition of the design.
func Descriptives(records []trial.Record, design trial.Design, policy MissPolicy) []Descriptive {
	return Describe(Partition(policy.Apply(records), design))
}

func meanStd(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return xs[0], math.NaN()
	}
	return stat.MeanStdDev(xs, nil)
}

// CellMeans returns the mean reaction time of each design condition, NaN for
// conditions without present reaction times.
func CellMeans(records []trial.Record, design trial.Design) map[trial.Condition]float64 {
	means := make(map[trial.Condition]float64, len(design))
	for _, g := range Partition(records, design) {
		means[g.Condition], _ = meanStd(RTs(g.Records))
	}
	return means
}
