package figures

import (
	"fmt"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/roach88/mant/internal/analysis"
)

// PrecedingFile names the preceding-condition counts figure of a subject
// token or of "group".
func PrecedingFile(id string) string {
	return fmt.Sprintf("preceding-conditions-%s.pdf", id)
}

// PrecedingCounts draws, for every following condition, one bar per
// preceding condition with the number of times it came right before.
func PrecedingCounts(dir, id string, c analysis.Contingency) (string, error) {
	pg, p := single(fmt.Sprintf("Preceding conditions (%s)", id))
	p.X.Label.Text = "Following condition"
	p.Y.Label.Text = "Count"

	n := len(c.Labels)
	w := vg.Points(6)
	for j, preceding := range c.Labels {
		values := make(plotter.Values, n)
		for i := range c.Labels {
			values[i] = c.Counts[i][j]
		}
		bars, err := plotter.NewBarChart(values, w)
		if err != nil {
			return "", fmt.Errorf("preceding %s: %w", preceding, err)
		}
		bars.LineStyle.Width = 0
		bars.Color = plotutil.Color(j)
		bars.Offset = vg.Length(float64(j)-float64(n-1)/2) * w
		p.Add(bars)
		p.Legend.Add("after "+preceding, bars)
	}
	p.Legend.Top = true
	p.NominalX(c.Labels...)
	return pg.save(dir, PrecedingFile(id))
}
