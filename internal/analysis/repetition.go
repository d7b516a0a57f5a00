package analysis

import (
	"github.com/roach88/mant/internal/trial"
)

// Pair is two consecutive trials.
type Pair struct {
	Preceding trial.Record
	Following trial.Record
}

// Repeats reports whether both trials share cue type and congruency.
func (p Pair) Repeats() bool {
	return p.Preceding.Condition() == p.Following.Condition()
}

// Pairs returns (records[i], records[i+1]) for every i. The last record has
// no following trial and starts no pair.
func Pairs(records []trial.Record) []Pair {
	if len(records) < 2 {
		return nil
	}
	pairs := make([]Pair, len(records)-1)
	for i := range pairs {
		pairs[i] = Pair{Preceding: records[i], Following: records[i+1]}
	}
	return pairs
}

// Repetition summarises immediate condition repetitions in a sequence.
type Repetition struct {
	Transitions int
	Repeats     int
	// Probability is Repeats/Transitions, or 0 without transitions.
	Probability float64
}

// Repetitions counts the consecutive pairs that repeat their condition.
func Repetitions(records []trial.Record) Repetition {
	pairs := Pairs(records)
	rep := Repetition{Transitions: len(pairs)}
	for _, p := range pairs {
		if p.Repeats() {
			rep.Repeats++
		}
	}
	if rep.Transitions > 0 {
		rep.Probability = float64(rep.Repeats) / float64(rep.Transitions)
	}
	return rep
}

// Contingency counts, for each condition, how often each condition comes
// immediately before it. Counts[i][j] is the number of times Labels[j]
// preceded Labels[i].
type Contingency struct {
	Labels []string
	Counts [][]float64
}

func newContingency(labels []string) Contingency {
	counts := make([][]float64, len(labels))
	for i := range counts {
		counts[i] = make([]float64, len(labels))
	}
	return Contingency{Labels: labels, Counts: counts}
}

// Get returns the number of times preceding came right before following.
func (c Contingency) Get(following, preceding string) float64 {
	i, j := c.index(following), c.index(preceding)
	if i < 0 || j < 0 {
		return 0
	}
	return c.Counts[i][j]
}

func (c Contingency) index(label string) int {
	for i, l := range c.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// PrecedingCounts builds the contingency of one subject's sequence. Pairs
// involving a condition outside the design are skipped.
func PrecedingCounts(records []trial.Record, design trial.Design) Contingency {
	c := newContingency(design.Labels())
	for _, p := range Pairs(records) {
		i, j := design.Index(p.Following.Condition()), design.Index(p.Preceding.Condition())
		if i < 0 || j < 0 {
			continue
		}
		c.Counts[i][j]++
	}
	return c
}

// MeanContingency averages per-subject contingencies cell by cell, aligning
// them by label on the design's labels. Labels missing from a subject
// contribute zero. The sum is divided by the number of contingencies given.
func MeanContingency(cs []Contingency, design trial.Design) Contingency {
	mean := newContingency(design.Labels())
	if len(cs) == 0 {
		return mean
	}
	for i, following := range mean.Labels {
		for j, preceding := range mean.Labels {
			var sum float64
			for _, c := range cs {
				sum += c.Get(following, preceding)
			}
			mean.Counts[i][j] = sum / float64(len(cs))
		}
	}
	return mean
}
