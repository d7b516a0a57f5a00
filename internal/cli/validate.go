package cli

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/runner"
	"github.com/roach88/mant/internal/trial"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>...",
		Short: "Validate session config files",
		Long: `Validate config files without running a session.

Each file is layered over the preset of its variant and checked against the
config schema. Condition files named by the config are read and checked for
design cells they do not cover.

Exit codes:
  0 - All files are valid
  1 - One or more files are invalid`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	checks := lo.Map(paths, func(p string, _ int) ConfigCheck { return checkConfig(p) })
	invalid := lo.CountBy(checks, func(c ConfigCheck) bool { return !c.Valid })

	var text strings.Builder
	for _, c := range checks {
		text.WriteString(c.String())
	}
	if err := formatter.Success(checks, text.String()); err != nil {
		return err
	}
	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d config file(s) invalid", invalid, len(checks)))
	}
	return nil
}

func checkConfig(path string) ConfigCheck {
	check := ConfigCheck{Path: path}
	cfg, err := config.Load(path)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.Variant = string(cfg.Variant)

	design, err := cfg.Design()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	for i, file := range []string{cfg.ConditionsFile, cfg.TrainingConditionsFile} {
		if file == "" {
			continue
		}
		pool, err := runner.LoadPool(file)
		if err != nil {
			check.Error = err.Error()
			return check
		}
		if missing := pool.Missing(design); len(missing) > 0 {
			labels := lo.Map(missing, func(c trial.Condition, _ int) string { return c.Label() })
			check.Warnings = append(check.Warnings,
				fmt.Sprintf("%s does not cover conditions %s", file, strings.Join(labels, ", ")))
		}
		if i == 0 && cfg.TrialsPerBlock%len(pool) != 0 {
			check.Warnings = append(check.Warnings,
				fmt.Sprintf("trials_per_block %d is not a multiple of the %d entries in %s", cfg.TrialsPerBlock, len(pool), file))
		}
	}
	check.Valid = true
	return check
}
