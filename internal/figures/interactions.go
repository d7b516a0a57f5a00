package figures

import (
	"fmt"

	"github.com/samber/lo"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"

	"github.com/roach88/mant/internal/analysis"
	"github.com/roach88/mant/internal/trial"
)

// Axis is the factor an interaction plot puts on the x axis.
type Axis string

const (
	// Cues puts cue types on the x axis, one line per target congruency.
	Cues Axis = "cues"
	// Targets puts target congruency on the x axis, one line per cue type.
	Targets Axis = "targets"
)

// Axes lists both interaction axes.
var Axes = []Axis{Cues, Targets}

// FileName returns the file an interaction plot is written to.
func (a Axis) FileName() string {
	return fmt.Sprintf("rt-interaction-%s.pdf", string(a))
}

func congruencyName(c trial.Congruency) string {
	if c == trial.Congruent {
		return "congruent"
	}
	return "incongruent"
}

// Interaction draws the mean reaction time of every design cell with one
// factor on the x axis and one line per level of the other.
func Interaction(dir, title string, records []trial.Record, design trial.Design, axis Axis) (string, error) {
	cues := design.CueTypes()
	congs := []trial.Congruency{trial.Congruent, trial.Incongruent}
	means := analysis.CellMeans(records, design)

	pg, p := single(title)
	p.Y.Label.Text = "Mean RT"

	var ticks, series []string
	var point func(s, x int) trial.Condition
	switch axis {
	case Cues:
		p.X.Label.Text = "Cue type"
		ticks = lo.Map(cues, func(c trial.CueType, _ int) string { return c.String() })
		series = lo.Map(congs, func(c trial.Congruency, _ int) string { return congruencyName(c) })
		point = func(s, x int) trial.Condition { return trial.Condition{CueType: cues[x], Congruency: congs[s]} }
	case Targets:
		p.X.Label.Text = "Target"
		ticks = lo.Map(congs, func(c trial.Congruency, _ int) string { return congruencyName(c) })
		series = lo.Map(cues, func(c trial.CueType, _ int) string { return c.String() })
		point = func(s, x int) trial.Condition { return trial.Condition{CueType: cues[s], Congruency: congs[x]} }
	default:
		return "", fmt.Errorf("unknown interaction axis %q: must be one of %v", string(axis), Axes)
	}

	for s, name := range series {
		var pts plotter.XYs
		for x := range ticks {
			if m := means[point(s, x)]; isFinite(m) {
				pts = append(pts, plotter.XY{X: float64(x), Y: m})
			}
		}
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		line.LineStyle.Color = plotutil.Color(s)
		points.Color = plotutil.Color(s)
		points.Shape = plotutil.Shape(s)
		p.Add(line, points)
		p.Legend.Add(name, line, points)
	}
	p.NominalX(ticks...)
	return pg.save(dir, axis.FileName())
}
