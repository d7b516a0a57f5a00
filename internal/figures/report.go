package figures

import (
	"fmt"

	"github.com/roach88/mant/internal/analysis"
	"github.com/roach88/mant/internal/trial"
)

// Report is the full figure set of one subject or of the group.
type Report struct {
	// Tag is appended to every figure title, e.g. "sub-01" or "N=12".
	Tag     string
	Records []trial.Record
	Design  trial.Design
	// Types are the per-condition plot types to draw. Empty means all.
	Types []PlotType
	// Blocks, when set, adds the blockwise boxplots with BlockCols panels
	// per row.
	Blocks    []analysis.Block
	BlockCols int
}

// Render writes every figure of r into dir and returns the files written.
func Render(dir string, r Report) ([]string, error) {
	types := r.Types
	if len(types) == 0 {
		types = PlotTypes
	}
	groups := analysis.Partition(r.Records, r.Design)

	var files []string
	add := func(path string, err error) error {
		if err != nil {
			return err
		}
		files = append(files, path)
		return nil
	}

	for _, t := range types {
		if err := add(ReactionTimes(dir, r.title(t.Title()), groups, t)); err != nil {
			return files, err
		}
	}
	if err := add(CompactBoxplot(dir, r.title("Reaction time boxplots"), groups)); err != nil {
		return files, err
	}
	if err := add(ConditionMeans(dir, r.title("Mean RT per condition"), analysis.Describe(groups))); err != nil {
		return files, err
	}
	if len(r.Blocks) > 0 {
		cols := r.BlockCols
		if cols <= 0 {
			cols = 3
		}
		if err := add(BlockwiseBoxplots(dir, r.title("Reaction time boxplots per block"), r.Blocks, r.Design, cols)); err != nil {
			return files, err
		}
	}
	for _, axis := range Axes {
		title := r.title(fmt.Sprintf("Cue and target interaction (%s)", axis))
		if err := add(Interaction(dir, title, r.Records, r.Design, axis)); err != nil {
			return files, err
		}
	}
	return files, nil
}

func (r Report) title(s string) string {
	if r.Tag == "" {
		return s
	}
	return fmt.Sprintf("%s (%s)", s, r.Tag)
}
