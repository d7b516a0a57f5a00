package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/mant/internal/analysis"
	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/figures"
	"github.com/roach88/mant/internal/stats"
	"github.com/roach88/mant/internal/store"
	"github.com/roach88/mant/internal/trial"
	"github.com/roach88/mant/internal/tsv"
)

// ErrNoData is returned when no trials were found to analyze.
var ErrNoData = errors.New("no trials found")

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Config     string
	Variant    string
	Database   string
	Subjects   []string
	Results    string
	Figures    string
	Plots      []string
	NoFigures  bool
	MissPolicy string
	DataType   string
	SortKey    string
}

// AnalyzeResult lists what an analysis wrote.
type AnalyzeResult struct {
	Subjects []string `json:"subjects"`
	Trials   int      `json:"trials"`
	Tables   []string `json:"tables"`
	Figures  []string `json:"figures"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r AnalyzeResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d trial(s) of %d subject(s): %s\n", r.Trials, len(r.Subjects), strings.Join(r.Subjects, ", "))
	fmt.Fprintf(&b, "  tables written: %d\n", len(r.Tables))
	fmt.Fprintf(&b, "  figures written: %d\n", len(r.Figures))
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}
	return b.String()
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze [data-dir]",
		Short: "Describe, test and plot session data",
		Long: `Read trial data from a folder tree (or an SQLite archive with --db) and write
the analysis:

  <results>/statistics/condition-descriptives.csv   group descriptives
  <results>/statistics/<sub>-condition-descriptives.csv
  <results>/statistics/condition-repetitions.csv
  <results>/statistics/parametric-rm-anova-table.csv
  <results>/statistics/post-hoc-cues-ttest-bonferroni.csv
  <figures>/<sub>-figures/*.pdf                       per-subject figures
  <figures>/group/*.pdf                               group figures

Subjects named with --subjects whose folder is missing are skipped with a
warning. The ANOVA needs at least two subjects with every condition present;
when it cannot be computed the other outputs are still written.

Examples:
  mant analyze outputs
  mant analyze outputs --variant eeg --subjects 01,02,03
  mant analyze --db archive.db --plots boxplot --miss-policy interpolate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runAnalyze(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file with the analysis section")
	cmd.Flags().StringVar(&opts.Variant, "variant", "", "variant preset when no config file is given (behavioural|eeg|fmri)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "read trials from this SQLite archive instead of a folder")
	cmd.Flags().StringSliceVar(&opts.Subjects, "subjects", nil, "subjects to analyze, e.g. 01,02 (default: all found)")
	cmd.Flags().StringVarP(&opts.Results, "results", "r", "results", "results folder")
	cmd.Flags().StringVar(&opts.Figures, "figures", "", "figures folder (default: <results>/figures)")
	cmd.Flags().StringSliceVar(&opts.Plots, "plots", nil, "per-condition plot types (line,histogram,boxplot; default: all)")
	cmd.Flags().BoolVar(&opts.NoFigures, "no-figures", false, "write tables only")
	cmd.Flags().StringVar(&opts.MissPolicy, "miss-policy", "", "missing RT handling (drop|interpolate; default from config)")
	cmd.Flags().StringVar(&opts.DataType, "data-type", "", "file name part selecting the files to read (default from config)")
	cmd.Flags().StringVar(&opts.SortKey, "sort", "", "file order (path|trial|subject; default from config)")

	return cmd
}

// analysisPlan is the resolved set of analysis settings.
type analysisPlan struct {
	cfg      *config.Config
	design   trial.Design
	policy   analysis.MissPolicy
	sortKey  tsv.SortKey
	dataType string
	types    []figures.PlotType
	stats    string
	figures  string
}

func runAnalyze(opts *AnalyzeOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()
	ctx := commandContext(cmd)

	if (dir == "") == (opts.Database == "") {
		return NewExitError(ExitCommandError, "give either a data folder or --db")
	}
	plan, err := resolvePlan(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid analysis settings", err)
	}

	result := AnalyzeResult{Tables: []string{}, Figures: []string{}}
	warn := func(msg string, args ...any) {
		logger.Warn(msg, args...)
		result.Warnings = append(result.Warnings, warning(msg, args...))
	}

	subjects := lo.Map(opts.Subjects, func(s string, _ int) string { return subjectToken(s) })
	var records []trial.Record
	if opts.Database != "" {
		records, err = loadArchive(ctx, opts.Database, subjects, warn)
	} else {
		records, err = loadFolder(dir, plan, subjects, warn)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read trials", err)
	}
	if len(records) == 0 {
		_ = formatter.Error(ErrCodeNoData, ErrNoData.Error(), nil)
		return WrapExitError(ExitFailure, "nothing to analyze", ErrNoData)
	}

	records = plan.policy.Apply(records)
	bySubject := analysis.BySubject(records)
	result.Trials = len(records)
	result.Subjects = lo.Map(bySubject, func(s analysis.Subject, _ int) string { return s.ID })
	if want := plan.cfg.Analysis.Subjects; len(bySubject) < want {
		warn("fewer subjects than configured", "found", len(bySubject), "configured", want)
	}
	logger.Info("trials loaded", "trials", len(records), "subjects", len(bySubject), "miss_policy", plan.policy)

	tables, err := writeTables(plan, records, bySubject, warn)
	result.Tables = append(result.Tables, tables...)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write tables", err)
	}

	if !opts.NoFigures {
		files, err := writeFigures(plan, records, bySubject)
		result.Figures = append(result.Figures, files...)
		if err != nil {
			_ = formatter.Error(ErrCodeIO, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write figures", err)
		}
	}

	logger.Info("analysis finished", "tables", len(result.Tables), "figures", len(result.Figures))
	return formatter.Success(result, result.String())
}

func resolvePlan(opts *AnalyzeOptions) (*analysisPlan, error) {
	cfg, err := loadConfig(opts.Config, opts.Variant)
	if err != nil {
		return nil, err
	}
	design, err := cfg.Design()
	if err != nil {
		return nil, err
	}

	policy, err := analysis.ParseMissPolicy(lo.Ternary(opts.MissPolicy != "", opts.MissPolicy, cfg.Analysis.MissPolicy))
	if err != nil {
		return nil, err
	}
	sortKey, err := tsv.ParseSortKey(lo.Ternary(opts.SortKey != "", opts.SortKey, cfg.Analysis.SortKey))
	if err != nil {
		return nil, err
	}

	types := make([]figures.PlotType, 0, len(opts.Plots))
	for _, p := range opts.Plots {
		t, err := figures.ParsePlotType(p)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	figuresDir := opts.Figures
	if figuresDir == "" {
		figuresDir = filepath.Join(opts.Results, "figures")
	}
	return &analysisPlan{
		cfg:      cfg,
		design:   design,
		policy:   policy,
		sortKey:  sortKey,
		dataType: lo.Ternary(opts.DataType != "", opts.DataType, cfg.Analysis.DataType),
		types:    types,
		stats:    filepath.Join(opts.Results, "statistics"),
		figures:  figuresDir,
	}, nil
}

// subjectToken turns "1", "01" or "sub-01" into "sub-01".
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "sub-") {
		return s
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return tsv.SubjectID(n)
	}
	return "sub-" + s
}

func loadFolder(dir string, plan *analysisPlan, subjects []string, warn func(string, ...any)) ([]trial.Record, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("data folder: %w", err)
	}
	if len(subjects) == 0 {
		return tsv.Load(dir, plan.dataType, plan.sortKey)
	}

	var records []trial.Record
	for _, id := range subjects {
		subDir := filepath.Join(dir, id)
		if info, err := os.Stat(subDir); err != nil || !info.IsDir() {
			warn("subject data folder not found, skipping", "subject", id, "path", subDir)
			continue
		}
		recs, err := tsv.Load(subDir, plan.dataType, plan.sortKey)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func loadArchive(ctx context.Context, path string, subjects []string, warn func(string, ...any)) ([]trial.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if len(subjects) == 0 {
		return st.ReadTrials(ctx, "")
	}
	var records []trial.Record
	for _, id := range subjects {
		recs, err := st.ReadTrials(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			warn("subject not in archive, skipping", "subject", id)
			continue
		}
		records = append(records, recs...)
	}
	return records, nil
}

// warning renders a log message and its key/value pairs on one line.
func warning(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}

// writeTables writes the statistics folder. A statistic that cannot be
// computed for this data is a warning; only write failures are errors.
func writeTables(plan *analysisPlan, records []trial.Record, bySubject []analysis.Subject, warn func(string, ...any)) ([]string, error) {
	var files []string
	write := func(name string, fn func(io.Writer) error) error {
		path, err := stats.WriteFile(plan.stats, name, fn)
		if err != nil {
			return err
		}
		files = append(files, path)
		return nil
	}

	// records already carry the miss policy.
	group := analysis.Descriptives(records, plan.design, analysis.Drop)
	if err := write(stats.DescriptivesFile, func(w io.Writer) error { return stats.WriteDescriptives(w, group) }); err != nil {
		return files, err
	}

	reps := make([]stats.SubjectRepetition, 0, len(bySubject))
	for _, s := range bySubject {
		ds := analysis.Descriptives(s.Records, plan.design, analysis.Drop)
		if err := write(s.ID+"-"+stats.DescriptivesFile, func(w io.Writer) error { return stats.WriteDescriptives(w, ds) }); err != nil {
			return files, err
		}
		reps = append(reps, stats.SubjectRepetition{Subject: s.ID, Repetition: analysis.Repetitions(s.Records)})
	}
	if err := write(stats.RepetitionFile, func(w io.Writer) error { return stats.WriteRepetitions(w, reps) }); err != nil {
		return files, err
	}

	if table, err := stats.RMAnova2(records, plan.design); err != nil {
		warn("repeated-measures ANOVA skipped", "error", err)
	} else if err := write(stats.AnovaFile, func(w io.Writer) error { return stats.WriteAnova(w, table) }); err != nil {
		return files, err
	}

	if cs, err := stats.PostHocCues(analysis.ReorderForANOVA(records), stats.DefaultAlpha); err != nil {
		warn("post-hoc comparisons skipped", "error", err)
	} else if err := write(stats.PostHocFile, func(w io.Writer) error { return stats.WritePostHoc(w, cs) }); err != nil {
		return files, err
	}
	return files, nil
}

func writeFigures(plan *analysisPlan, records []trial.Record, bySubject []analysis.Subject) ([]string, error) {
	var files []string
	blockSize, blockCount := plan.cfg.Analysis.TrialsPerBlock, plan.cfg.Analysis.Blocks
	contingencies := make([]analysis.Contingency, 0, len(bySubject))

	for _, s := range bySubject {
		dir, err := figures.OutputDir(plan.figures, s.ID, false)
		if err != nil {
			return files, err
		}
		blocks, err := analysis.Blockwise(s.Records, plan.design, blockSize, blockCount)
		if err != nil {
			return files, err
		}
		written, err := figures.Render(dir, figures.Report{
			Tag:       s.ID,
			Records:   s.Records,
			Design:    plan.design,
			Types:     plan.types,
			Blocks:    blocks,
			BlockCols: gridColumns(len(blocks)),
		})
		files = append(files, written...)
		if err != nil {
			return files, err
		}

		c := analysis.PrecedingCounts(s.Records, plan.design)
		contingencies = append(contingencies, c)
		path, err := figures.PrecedingCounts(dir, s.ID, c)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	dir, err := figures.OutputDir(plan.figures, "", true)
	if err != nil {
		return files, err
	}
	written, err := figures.Render(dir, figures.Report{
		Tag:     fmt.Sprintf("N=%d", len(bySubject)),
		Records: records,
		Design:  plan.design,
		Types:   plan.types,
	})
	files = append(files, written...)
	if err != nil {
		return files, err
	}
	path, err := figures.PrecedingCounts(dir, figures.GroupDir, analysis.MeanContingency(contingencies, plan.design))
	if err != nil {
		return files, err
	}
	return append(files, path), nil
}

// gridColumns is the column count of a near-square grid of n panels.
func gridColumns(n int) int {
	return max(int(math.Ceil(math.Sqrt(float64(n)))), 1)
}
