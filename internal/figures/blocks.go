package figures

import (
	"fmt"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/roach88/mant/internal/analysis"
	"github.com/roach88/mant/internal/trial"
)

// BlockwiseFile is the file name of the per-block boxplots.
const BlockwiseFile = "rt-boxplots-conditions-in-block.pdf"

// BlockwiseBoxplots draws one panel per block, cols panels per row, each with
// one box per condition of the design.
func BlockwiseBoxplots(dir, title string, blocks []analysis.Block, design trial.Design, cols int) (string, error) {
	if len(blocks) == 0 {
		return "", fmt.Errorf("blockwise boxplots: no blocks")
	}
	pg, panels := newPage(title, len(blocks), cols)
	labels := design.Labels()
	for i, b := range blocks {
		p := panels[i]
		p.Title.Text = fmt.Sprintf("Block %d", b.Index+1)
		p.X.Label.Text = "Condition"
		p.Y.Label.Text = "Reaction time (s)"
		for k, g := range b.Groups {
			rts := analysis.RTs(g.Records)
			if len(rts) == 0 {
				continue
			}
			box, err := plotter.NewBoxPlot(vg.Points(12), float64(k), plotter.Values(rts))
			if err != nil {
				return "", fmt.Errorf("block %d %s: %w", b.Index+1, g.Label(), err)
			}
			box.FillColor = plotutil.Color(k)
			p.Add(box)
		}
		p.NominalX(labels...)
	}
	shareAxes(panels)
	return pg.save(dir, BlockwiseFile)
}
