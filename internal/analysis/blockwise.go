package analysis

import (
	"fmt"

	"github.com/roach88/mant/internal/trial"
)

// Block is one contiguous slice of the trial sequence.
type Block struct {
	// Index is the zero-based block number.
	Index int
	// Rows are the block's records in trial order.
	Rows []trial.Record
	// Groups partition Rows by condition.
	Groups []Group
}

// Labelled is a record tagged with its condition label.
type Labelled struct {
	Label  string
	Record trial.Record
}

// Ordered returns the block's records grouped by condition in design order,
// each tagged with its label. Records whose condition is not in the design
// are left out.
func (b Block) Ordered() []Labelled {
	var out []Labelled
	for _, g := range b.Groups {
		label := g.Label()
		for _, r := range g.Records {
			out = append(out, Labelled{Label: label, Record: r})
		}
	}
	return out
}

// Descriptives describes each condition of the block.
func (b Block) Descriptives() []Descriptive {
	return Describe(b.Groups)
}

// Blockwise slices records into at most blockCount chunks of blockSize rows
// in trial order. A trailing partial chunk is kept; chunks past the end of
// the data are not created.
func Blockwise(records []trial.Record, design trial.Design, blockSize, blockCount int) ([]Block, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	if blockCount < 0 {
		return nil, fmt.Errorf("block count must not be negative, got %d", blockCount)
	}
	var blocks []Block
	for i := 0; i < blockCount; i++ {
		start := i * blockSize
		if start >= len(records) {
			break
		}
		end := min(start+blockSize, len(records))
		rows := records[start:end:end]
		blocks = append(blocks, Block{Index: i, Rows: rows, Groups: Partition(rows, design)})
	}
	return blocks, nil
}
