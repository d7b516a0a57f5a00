package figures

import (
	"fmt"
	"image/color"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/roach88/mant/internal/analysis"
)

// File names of the per-condition figures.
const (
	LinePlotFile  = "rt-lineplots.pdf"
	HistogramFile = "rt-histograms.pdf"
	BoxplotFile   = "rt-boxplots.pdf"
	CompactFile   = "rt-boxplots-compact.pdf"
	MeansFile     = "rt-conditions-means.pdf"
)

var (
	rtColor   = color.RGBA{B: 200, A: 153}
	meanColor = color.RGBA{R: 200, A: 153}
)

// FileName returns the file a plot type is written to.
func (t PlotType) FileName() (string, error) {
	switch t {
	case Line:
		return LinePlotFile, nil
	case Histogram:
		return HistogramFile, nil
	case Boxplot:
		return BoxplotFile, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownPlotType, string(t))
}

// Title is the figure title of a plot type.
func (t PlotType) Title() string {
	switch t {
	case Line:
		return "Reaction times over trials per condition"
	case Histogram:
		return "Reaction time histogram per condition"
	case Boxplot:
		return "Reaction time boxplot per condition"
	}
	return string(t)
}

// ReactionTimes draws one panel per condition, two panels per row, with the
// condition's reaction times as a line over trials, a histogram or a
// boxplot. The panels share their axes.
func ReactionTimes(dir, title string, groups []analysis.Group, kind PlotType) (string, error) {
	name, err := kind.FileName()
	if err != nil {
		return "", err
	}
	pg, panels := newPage(title, len(groups), 2)
	for i, g := range groups {
		p := panels[i]
		p.Title.Text = g.Condition.Name()
		rts := analysis.RTs(g.Records)
		if err := drawReactionTimes(p, rts, kind); err != nil {
			return "", fmt.Errorf("%s: %w", g.Label(), err)
		}
	}
	shareAxes(panels)
	return pg.save(dir, name)
}

func drawReactionTimes(p *plot.Plot, rts []float64, kind PlotType) error {
	switch kind {
	case Line:
		p.X.Label.Text = "Trial"
		p.Y.Label.Text = "Reaction time (s)"
		if len(rts) == 0 {
			return nil
		}
		pts := make(plotter.XYs, len(rts))
		for i, rt := range rts {
			pts[i] = plotter.XY{X: float64(i), Y: rt}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.LineStyle.Color = rtColor

		mean := stat.Mean(rts, nil)
		m, err := plotter.NewLine(plotter.XYs{{X: 0, Y: mean}, {X: float64(len(rts) - 1), Y: mean}})
		if err != nil {
			return err
		}
		m.LineStyle.Color = meanColor
		p.Add(l, m)
		p.Legend.Add("RT", l)
		p.Legend.Add("mean RT", m)
	case Histogram:
		p.X.Label.Text = "Reaction time (s)"
		p.Y.Label.Text = "Number of occurrences"
		if len(rts) == 0 {
			return nil
		}
		h, err := plotter.NewHist(plotter.Values(rts), 10)
		if err != nil {
			return err
		}
		h.FillColor = rtColor
		p.Add(h)
	case Boxplot:
		p.Y.Label.Text = "Reaction time (s)"
		p.HideX()
		if len(rts) == 0 {
			return nil
		}
		b, err := plotter.NewBoxPlot(vg.Points(30), 0, plotter.Values(rts))
		if err != nil {
			return err
		}
		p.Add(b)
	default:
		return fmt.Errorf("%w %q", ErrUnknownPlotType, string(kind))
	}
	return nil
}

// CompactBoxplot draws every condition's reaction times as boxes side by
// side on one panel.
func CompactBoxplot(dir, title string, groups []analysis.Group) (string, error) {
	pg, p := single(title)
	p.X.Label.Text = "Condition"
	p.Y.Label.Text = "Reaction time (s)"
	for i, g := range groups {
		rts := analysis.RTs(g.Records)
		if len(rts) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(24), float64(i), plotter.Values(rts))
		if err != nil {
			return "", fmt.Errorf("%s: %w", g.Label(), err)
		}
		b.FillColor = plotutil.Color(i)
		p.Add(b)
	}
	p.NominalX(lo.Map(groups, func(g analysis.Group, _ int) string { return g.Label() })...)
	return pg.save(dir, CompactFile)
}

// ConditionMeans draws the mean reaction time of each condition with a band
// of one standard deviation around it and the grand mean of the condition
// means. Conditions without a mean are left out of the line and the band.
func ConditionMeans(dir, title string, ds []analysis.Descriptive) (string, error) {
	pg, p := single(title)
	p.X.Label.Text = "Condition"
	p.Y.Label.Text = "Mean RT"

	var means, lower, upper plotter.XYs
	for i, d := range ds {
		if !isFinite(d.MeanRT) {
			continue
		}
		std := d.RTStd
		if !isFinite(std) {
			std = 0
		}
		x := float64(i)
		means = append(means, plotter.XY{X: x, Y: d.MeanRT})
		lower = append(lower, plotter.XY{X: x, Y: d.MeanRT - std})
		upper = append(upper, plotter.XY{X: x, Y: d.MeanRT + std})
	}

	if len(means) > 0 {
		band := append(lower, lo.Reverse(upper)...)
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			return "", err
		}
		poly.Color = color.RGBA{B: 200, A: 38}
		poly.LineStyle.Width = 0

		line, points, err := plotter.NewLinePoints(means)
		if err != nil {
			return "", err
		}
		line.LineStyle.Color = rtColor
		points.Color = rtColor

		grand := stat.Mean(lo.Map(means, func(xy plotter.XY, _ int) float64 { return xy.Y }), nil)
		g, err := plotter.NewLine(plotter.XYs{{X: 0, Y: grand}, {X: float64(len(ds) - 1), Y: grand}})
		if err != nil {
			return "", err
		}
		g.LineStyle.Color = meanColor

		p.Add(poly, line, points, g)
		p.Legend.Add("condition mean", line, points)
		p.Legend.Add("condition std", poly)
		p.Legend.Add("grand mean", g)
	}
	p.NominalX(lo.Map(ds, func(d analysis.Descriptive, _ int) string { return d.Label() })...)
	return pg.save(dir, MeansFile)
}
