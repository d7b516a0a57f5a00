package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/roach88/mant/internal/analysis"
	"github.com/roach88/mant/internal/trial"
)

// ErrIncompleteDesign is returned when the ANOVA cannot be computed because
// a subject lacks a cell or there are too few subjects or levels.
var ErrIncompleteDesign = errors.New("incomplete repeated-measures design")

// Factor names of the within-subject design, as used in the result table.
const (
	FactorCue         = "cue_type"
	FactorCongruency  = "target_congruent"
	FactorInteraction = FactorCue + ":" + FactorCongruency
)

// AnovaRow is one term of a repeated-measures ANOVA table.
type AnovaRow struct {
	Term  string
	F     float64
	NumDF float64
	DenDF float64
	P     float64
}

// AnovaTable is a repeated-measures ANOVA result: the two main effects and
// their interaction.
type AnovaTable struct {
	Rows     []AnovaRow
	Subjects int
}

// Row returns the row of a term.
func (t AnovaTable) Row(term string) (AnovaRow, bool) {
	for _, r := range t.Rows {
		if r.Term == term {
			return r, true
		}
	}
	return AnovaRow{}, false
}

// RMAnova2 runs a two-way repeated-measures ANOVA of reaction time with cue
// type and target congruency as within-subject factors. Each subject's
// reaction times are averaged per design cell first; missing reaction times
// are ignored. Every subject needs a mean in every cell of the design.
func RMAnova2(records []trial.Record, design trial.Design) (AnovaTable, error) {
	cues := design.CueTypes()
	congs := []trial.Congruency{trial.Congruent, trial.Incongruent}
	subjects := analysis.BySubject(records)

	a, b, n := len(cues), len(congs), len(subjects)
	if n < 2 {
		return AnovaTable{}, fmt.Errorf("%w: need at least two subjects, got %d", ErrIncompleteDesign, n)
	}
	if a < 2 {
		return AnovaTable{}, fmt.Errorf("%w: need at least two cue types, got %d", ErrIncompleteDesign, a)
	}

	// y[s][i][j] is subject s's mean in cue i, congruency j.
	y := make([][][]float64, n)
	for s, subj := range subjects {
		means := analysis.CellMeans(subj.Records, trial.NewDesign(cues...))
		y[s] = make([][]float64, a)
		for i, cue := range cues {
			y[s][i] = make([]float64, b)
			for j, cong := range congs {
				m := means[trial.Condition{CueType: cue, Congruency: cong}]
				if math.IsNaN(m) {
					return AnovaTable{}, fmt.Errorf("%w: %s has no reaction times for %s",
						ErrIncompleteDesign, subj.ID, trial.Condition{CueType: cue, Congruency: cong}.Label())
				}
				y[s][i][j] = m
			}
		}
	}

	var all []float64
	mS := make([]float64, n)
	mA := make([]float64, a)
	mB := make([]float64, b)
	mAB := make([][]float64, a)
	mAS := make([][]float64, a)
	mBS := make([][]float64, b)
	for i := range a {
		mAB[i] = make([]float64, b)
		mAS[i] = make([]float64, n)
	}
	for j := range b {
		mBS[j] = make([]float64, n)
	}
	for s := range n {
		for i := range a {
			for j := range b {
				v := y[s][i][j]
				all = append(all, v)
				mS[s] += v / float64(a*b)
				mA[i] += v / float64(b*n)
				mB[j] += v / float64(a*n)
				mAB[i][j] += v / float64(n)
				mAS[i][s] += v / float64(b)
				mBS[j][s] += v / float64(a)
			}
		}
	}
	g := stat.Mean(all, nil)

	var ssA, ssB, ssAB, ssAS, ssBS, ssABS float64
	for i := range a {
		ssA += float64(b*n) * sq(mA[i]-g)
	}
	for j := range b {
		ssB += float64(a*n) * sq(mB[j]-g)
	}
	for i := range a {
		for j := range b {
			ssAB += float64(n) * sq(mAB[i][j]-mA[i]-mB[j]+g)
		}
	}
	for s := range n {
		for i := range a {
			ssAS += float64(b) * sq(mAS[i][s]-mA[i]-mS[s]+g)
		}
		for j := range b {
			ssBS += float64(a) * sq(mBS[j][s]-mB[j]-mS[s]+g)
		}
		for i := range a {
			for j := range b {
				ssABS += sq(y[s][i][j] - mAB[i][j] - mAS[i][s] - mBS[j][s] + mA[i] + mB[j] + mS[s] - g)
			}
		}
	}

	dfA, dfB, dfS := float64(a-1), float64(b-1), float64(n-1)
	return AnovaTable{
		Subjects: n,
		Rows: []AnovaRow{
			fRow(FactorCue, ssA, dfA, ssAS, dfA*dfS),
			fRow(FactorCongruency, ssB, dfB, ssBS, dfB*dfS),
			fRow(FactorInteraction, ssAB, dfA*dfB, ssABS, dfA*dfB*dfS),
		},
	}, nil
}

func fRow(term string, ss, df, ssErr, dfErr float64) AnovaRow {
	f := (ss / df) / (ssErr / dfErr)
	row := AnovaRow{Term: term, F: f, NumDF: df, DenDF: dfErr, P: math.NaN()}
	if !math.IsNaN(f) && !math.IsInf(f, 0) {
		row.P = 1 - distuv.F{D1: df, D2: dfErr}.CDF(f)
	} else if math.IsInf(f, 1) {
		row.P = 0
	}
	return row
}

func sq(x float64) float64 { return x * x }
