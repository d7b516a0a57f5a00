package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/mant/internal/store"
	"github.com/roach88/mant/internal/tsv"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
	DataType string
}

// ImportResult is what one import added to the archive.
type ImportResult struct {
	Source   string `json:"source"`
	Files    int    `json:"files"`
	Trials   int    `json:"trials"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("Imported %s: %d file(s), %d trial(s), %d new, %d already archived\n",
		r.Source, r.Files, r.Trials, r.Inserted, r.Skipped)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <data-dir>",
		Short: "Archive a data folder into SQLite",
		Long: `Read every TSV file of a data type below a folder and store its trials in an
SQLite archive. Trials are keyed by subject, file and row, so importing the
same folder again adds only what is new.

Examples:
  mant import outputs --db archive.db
  mant import outputs --db archive.db --data-type beh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.DataType, "data-type", "beh", "file name part selecting the files to read")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	source, err := filepath.Abs(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid data folder", err)
	}
	files, err := tsv.LoadFiles(source, opts.DataType, tsv.SortBySubject)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read data folder", err)
	}

	var rows []store.Row
	for _, f := range files {
		rel, err := filepath.Rel(source, f.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid data file path", err)
		}
		rel = filepath.ToSlash(rel)
		for i, r := range f.Records {
			if r.Subject == "" {
				logger.Warn("trial without subject, skipping", "file", rel, "row", i)
				continue
			}
			rows = append(rows, store.Row{File: rel, Row: i, Record: r})
		}
		logger.Debug("file read", "file", rel, "trials", len(f.Records))
	}
	if len(rows) == 0 {
		_ = formatter.Error(ErrCodeNoData, fmt.Sprintf("no %s trials found below %s", opts.DataType, dir), nil)
		return WrapExitError(ExitFailure, "nothing to import", ErrNoData)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	inserted, err := st.Import(commandContext(cmd), source, rows, time.Now())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to import", err)
	}

	result := ImportResult{
		Source:   source,
		Files:    len(files),
		Trials:   len(rows),
		Inserted: inserted,
		Skipped:  len(rows) - inserted,
	}
	logger.Info("import finished", "source", source,
		"subjects", len(lo.Uniq(lo.Map(rows, func(r store.Row, _ int) string { return r.Record.Subject }))),
		"inserted", inserted)
	return formatter.Success(result, result.String())
}
