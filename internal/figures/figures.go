package figures

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// ErrUnknownPlotType is returned for a plot type other than line, histogram
// or boxplot.
var ErrUnknownPlotType = errors.New("unknown plot type")

// PlotType selects how per-condition reaction times are drawn.
type PlotType string

const (
	Line      PlotType = "line"
	Histogram PlotType = "histogram"
	Boxplot   PlotType = "boxplot"
)

// PlotTypes lists the per-condition plot types in drawing order.
var PlotTypes = []PlotType{Line, Histogram, Boxplot}

// ParsePlotType validates a plot type name.
func ParsePlotType(s string) (PlotType, error) {
	for _, p := range PlotTypes {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of %v", ErrUnknownPlotType, s, PlotTypes)
}

// GroupDir is the folder name of group-level figures.
const GroupDir = "group"

// OutputDir creates and returns the folder that figures of one subject
// (<subject>-figures) or of the whole group go into. Exactly one of subject
// and group must be given.
func OutputDir(figuresDir, subject string, group bool) (string, error) {
	var dir string
	switch {
	case subject != "" && group:
		return "", fmt.Errorf("figures folder: subject %s and group both requested", subject)
	case subject == "" && !group:
		return "", fmt.Errorf("figures folder: neither a subject nor the group requested")
	case group:
		dir = filepath.Join(figuresDir, GroupDir)
	default:
		dir = filepath.Join(figuresDir, subject+"-figures")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create figures folder: %w", err)
	}
	return dir, nil
}

const (
	pageWidth   = 12 * vg.Inch
	pageHeight  = 8 * vg.Inch
	titleHeight = 0.5 * vg.Inch
)

// page is a grid of panels under an optional figure title.
type page struct {
	title  string
	panels [][]*plot.Plot
}

// newPage lays out n panels row-major over cols columns. Unused cells of the
// last row are filled with blank panels.
func newPage(title string, n, cols int) (*page, []*plot.Plot) {
	cols = max(1, min(cols, n))
	rows := max(1, (n+cols-1)/cols)
	pg := &page{title: title, panels: make([][]*plot.Plot, rows)}
	flat := make([]*plot.Plot, 0, n)
	for r := range rows {
		pg.panels[r] = make([]*plot.Plot, cols)
		for c := range cols {
			p := plot.New()
			if r*cols+c < n {
				flat = append(flat, p)
			} else {
				p.HideAxes()
			}
			pg.panels[r][c] = p
		}
	}
	return pg, flat
}

// single is a page holding one panel.
func single(title string) (*page, *plot.Plot) {
	p := plot.New()
	p.Title.Text = title
	return &page{panels: [][]*plot.Plot{{p}}}, p
}

// shareAxes gives every panel the union of their data ranges.
func shareAxes(panels []*plot.Plot) {
	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for _, p := range panels {
		xmin, xmax = math.Min(xmin, p.X.Min), math.Max(xmax, p.X.Max)
		ymin, ymax = math.Min(ymin, p.Y.Min), math.Max(ymax, p.Y.Max)
	}
	if xmin > xmax || ymin > ymax {
		return
	}
	for _, p := range panels {
		p.X.Min, p.X.Max = xmin, xmax
		p.Y.Min, p.Y.Max = ymin, ymax
	}
}

// save draws the page onto a PDF canvas and writes it to dir/name.
func (pg *page) save(dir, name string) (string, error) {
	c := vgpdf.New(pageWidth, pageHeight)
	dc := draw.New(c)

	body := dc
	if pg.title != "" {
		header := plot.New()
		header.Title.Text = pg.title
		header.HideAxes()
		header.Draw(draw.Crop(dc, 0, 0, pageHeight-titleHeight, 0))
		body = draw.Crop(dc, 0, 0, 0, -titleHeight)
	}

	tiles := draw.Tiles{
		Rows:      len(pg.panels),
		Cols:      len(pg.panels[0]),
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(pg.panels, tiles, body)
	for r, row := range pg.panels {
		for col, p := range row {
			p.Draw(canvases[r][col])
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

// isFinite reports whether x can be handed to a plotter, which rejects NaN
// and infinite values.
func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
