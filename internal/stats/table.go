package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/mant/internal/analysis"
)

// File names of the tables written to the statistics folder.
const (
	AnovaFile        = "parametric-rm-anova-table.csv"
	PostHocFile      = "post-hoc-cues-ttest-bonferroni.csv"
	DescriptivesFile = "condition-descriptives.csv"
	RepetitionFile   = "condition-repetitions.csv"
)

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteAnova writes the table as comma-separated values.
func WriteAnova(w io.Writer, t AnovaTable) error {
	rows := [][]string{{"", "F Value", "Num DF", "Den DF", "Pr > F"}}
	for _, r := range t.Rows {
		rows = append(rows, []string{r.Term, formatFloat(r.F), formatFloat(r.NumDF), formatFloat(r.DenDF), formatFloat(r.P)})
	}
	return writeCSV(w, rows)
}

// WritePostHoc writes the comparisons as comma-separated values.
func WritePostHoc(w io.Writer, cs []Comparison) error {
	rows := [][]string{{"group1", "group2", "stat", "pval", "pval_corr", "reject"}}
	for _, c := range cs {
		rows = append(rows, []string{
			c.Group1, c.Group2,
			formatFloat(c.Statistic), formatFloat(c.P), formatFloat(c.PCorrected),
			strconv.FormatBool(c.Reject),
		})
	}
	return writeCSV(w, rows)
}

// WriteDescriptives writes one row per condition: label, accuracy, mean and
// standard deviation of reaction time.
func WriteDescriptives(w io.Writer, ds []analysis.Descriptive) error {
	rows := [][]string{{"condition", "n", "accuracy", "mean_rt", "rt_std"}}
	for _, d := range ds {
		rows = append(rows, []string{
			d.Label(), strconv.Itoa(d.N),
			formatFloat(d.Accuracy), formatFloat(d.MeanRT), formatFloat(d.RTStd),
		})
	}
	return writeCSV(w, rows)
}

// SubjectRepetition is the repetition summary of one subject.
type SubjectRepetition struct {
	Subject string
	analysis.Repetition
}

// WriteRepetitions writes one row per subject: transitions, repeats and the
// repetition probability.
func WriteRepetitions(w io.Writer, rs []SubjectRepetition) error {
	rows := [][]string{{"subject", "transitions", "repeats", "probability"}}
	for _, r := range rs {
		rows = append(rows, []string{
			r.Subject, strconv.Itoa(r.Transitions), strconv.Itoa(r.Repeats), formatFloat(r.Probability),
		})
	}
	return writeCSV(w, rows)
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// WriteFile creates dir if needed and writes a table into it with write.
func WriteFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create statistics folder: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}
