package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mant/internal/runner"
	"github.com/roach88/mant/internal/store"
)

// Display backends selectable with --display.
const (
	DisplayHeadless = "headless"
	DisplayPaced    = "paced"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   string
	Variant  string
	Subject  string
	Run      string
	Output   string
	Seed     uint64
	Display  string
	Script   string
	Database string
}

// RunSummary is the outcome of a session as reported by the run command.
type RunSummary struct {
	SessionID string   `json:"session_id"`
	Variant   string   `json:"variant"`
	Subject   string   `json:"subject"`
	Run       string   `json:"run,omitempty"`
	Blocks    int      `json:"blocks"`
	Trials    int      `json:"trials"`
	Training  int      `json:"training"`
	Aborted   bool     `json:"aborted"`
	Correct   int      `json:"correct"`
	Incorrect int      `json:"incorrect"`
	Misses    int      `json:"misses"`
	Files     []string `json:"files"`
	Archived  int      `json:"archived,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s (%s) for sub-%s", s.SessionID, s.Variant, s.Subject)
	if s.Run != "" {
		fmt.Fprintf(&b, " run %s", s.Run)
	}
	fmt.Fprintf(&b, "\n  blocks: %d  trials: %d  training: %d  aborted: %t\n", s.Blocks, s.Trials, s.Training, s.Aborted)
	fmt.Fprintf(&b, "  correct: %d  incorrect: %d  misses: %d\n", s.Correct, s.Incorrect, s.Misses)
	fmt.Fprintf(&b, "  files written: %d\n", len(s.Files))
	if s.Archived > 0 {
		fmt.Fprintf(&b, "  trials archived: %d\n", s.Archived)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an mANT session",
		Long: `Run one mANT session and write its trials as TSV files.

The session follows the config (or the preset of --variant): instructions,
demos, training, then the experimental blocks. Without --script a simulated
subject answers; with --script answers are read from a YAML file:

  trials:
    - {key: left, rt: 420ms}
    - {key: ""}            # miss
  training:
    - {key: right, rt: 500ms}
  prompts:
    end-of-block-message: escape

Exit codes:
  0 - Session finished (or was stopped with escape)
  1 - Session failed while running
  2 - Command error (bad config, missing subject, archive errors)

Examples:
  mant run --variant eeg --subject 01
  mant run --config fmri.yaml --subject 07 --run 2 --display paced
  mant run --variant behavioural --subject 03 --db archive.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "session config file")
	cmd.Flags().StringVar(&opts.Variant, "variant", "", "variant preset when no config file is given (behavioural|eeg|fmri)")
	cmd.Flags().StringVarP(&opts.Subject, "subject", "s", "", "subject ID, e.g. 01")
	cmd.Flags().StringVar(&opts.Run, "run", "", "scanner run number (variants with run folders)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output root (overrides output.root)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVar(&opts.Display, "display", DisplayHeadless, "display backend (headless|paced)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "YAML file of scripted answers")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the session into this SQLite database")

	return cmd
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	cfg, err := loadConfig(opts.Config, opts.Variant)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Output != "" {
		cfg.Output.Root = opts.Output
	}

	var open runner.Opener
	switch opts.Display {
	case DisplayHeadless:
		open = runner.OpenHeadless(cfg.FrameDuration())
	case DisplayPaced:
		open = runner.OpenPaced(cfg.FrameDuration())
	default:
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid display %q: must be one of %s, %s", opts.Display, DisplayHeadless, DisplayPaced))
	}

	runOpts := []runner.Option{runner.WithLogger(logger)}
	if cmd.Flags().Changed("seed") {
		runOpts = append(runOpts, runner.WithSeed(opts.Seed))
	}
	if cfg.Triggers != nil {
		runOpts = append(runOpts, runner.WithTriggerPort(runner.LogPort{Logger: logger}))
	}
	if opts.Script != "" {
		scripted, err := loadScript(opts.Script)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load script", err)
		}
		runOpts = append(runOpts, runner.WithResponder(scripted))
	}

	r, err := runner.New(cfg, runOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to prepare session", err)
	}

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var sum *runner.Summary
	err = runner.WithDisplay(open, func(d runner.Display) error {
		var err error
		sum, err = r.Run(ctx, d, runner.Session{Subject: opts.Subject, Run: opts.Run})
		return err
	})
	if errors.Is(err, runner.ErrNoSubject) {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return WrapExitError(ExitCommandError, "refusing to run", err)
	}
	if err != nil {
		if sum != nil {
			logger.Warn("session ended early", "trials_saved", len(sum.Records), "error", err)
		}
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return WrapExitError(ExitFailure, "session failed", err)
	}

	out := summarize(sum)
	if opts.Database != "" {
		n, err := archive(ctx, opts.Database, cfg.Session, sum, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to archive session", err)
		}
		out.Archived = n
	}
	return formatter.Success(out, out.String())
}

func summarize(sum *runner.Summary) RunSummary {
	correct, incorrect, misses := sum.Counts()
	return RunSummary{
		SessionID: sum.ID.String(),
		Variant:   string(sum.Variant),
		Subject:   sum.Layout.Subject,
		Run:       sum.Layout.Run,
		Blocks:    sum.Blocks,
		Trials:    len(sum.Records),
		Training:  len(sum.Training),
		Aborted:   sum.Aborted,
		Correct:   correct,
		Incorrect: incorrect,
		Misses:    misses,
		Files:     append([]string{}, sum.Files...),
	}
}

func archive(ctx context.Context, path, session string, sum *runner.Summary, logger *slog.Logger) (int, error) {
	st, err := store.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	n, err := st.ArchiveSession(ctx, store.Session{
		ID:        sum.ID,
		Subject:   "sub-" + sum.Layout.Subject,
		Variant:   string(sum.Variant),
		Session:   session,
		Run:       sum.Layout.Run,
		StartedAt: sum.Started,
		Aborted:   sum.Aborted,
	}, sum.Records)
	if err != nil {
		return 0, err
	}
	logger.Info("session archived", "db", path, "trials", n)
	return n, nil
}

// script is the file form of a scripted responder.
type script struct {
	Trials   []runner.Answer   `yaml:"trials"`
	Training []runner.Answer   `yaml:"training"`
	Prompts  map[string]string `yaml:"prompts"`
}

func loadScript(path string) (*runner.Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	var s script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &runner.Scripted{Trials: s.Trials, Training: s.Training, Prompts: s.Prompts}, nil
}
