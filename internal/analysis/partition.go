package analysis

import (
	"slices"

	"github.com/samber/lo"

	"github.com/roach88/mant/internal/trial"
)

// Group is the records of one condition, in input order.
type Group struct {
	Condition trial.Condition
	Records   []trial.Record
}

// Label returns the abbreviated condition label.
func (g Group) Label() string { return g.Condition.Label() }

// Partition splits records into one group per design condition, in design
// order. Records whose condition is not in the design are left out.
func Partition(records []trial.Record, design trial.Design) []Group {
	groups := make([]Group, len(design))
	for i, c := range design {
		groups[i].Condition = c
	}
	for _, r := range records {
		if i := design.Index(r.Condition()); i >= 0 {
			groups[i].Records = append(groups[i].Records, r)
		}
	}
	return groups
}

// Subject holds the records of one subject.
type Subject struct {
	ID      string
	Records []trial.Record
}

// BySubject splits records by subject token, ordered by token. Records keep
// their input order within a subject.
func BySubject(records []trial.Record) []Subject {
	grouped := lo.GroupBy(records, func(r trial.Record) string { return r.Subject })
	ids := lo.Keys(grouped)
	slices.Sort(ids)
	return lo.Map(ids, func(id string, _ int) Subject {
		return Subject{ID: id, Records: grouped[id]}
	})
}

// SampleSize is the number of distinct subjects in records. Records without
// a subject token count as one anonymous subject.
func SampleSize(records []trial.Record) int {
	return len(lo.Uniq(lo.Map(records, func(r trial.Record, _ int) string { return r.Subject })))
}

// ReorderForANOVA returns the records grouped by cue type (valid, invalid,
// double), keeping input order within each cue type. Records with any other
// cue type are dropped.
func ReorderForANOVA(records []trial.Record) []trial.Record {
	out := make([]trial.Record, 0, len(records))
	for _, cue := range []trial.CueType{trial.CueValid, trial.CueInvalid, trial.CueDouble} {
		out = append(out, lo.Filter(records, func(r trial.Record, _ int) bool { return r.CueType == cue })...)
	}
	return out
}
