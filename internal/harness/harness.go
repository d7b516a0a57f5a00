package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/mant/internal/runner"
	"github.com/roach88/mant/internal/store"
	"github.com/roach88/mant/internal/testutil"
	"github.com/roach88/mant/internal/trial"
	"github.com/roach88/mant/internal/tsv"
)

// Harness is the scenario execution environment.
// It runs sessions on a headless display with a manual clock, sequential
// session IDs and a recording trigger port.
type Harness struct {
	store  *store.Store
	clock  *testutil.ManualClock
	ids    *testutil.SequentialIDs
	port   *runner.RecordingPort
	logger *slog.Logger
	root   string
}

// Run executes a scenario and returns the result.
//
// Each scenario writes into a fresh scratch folder and archives into a fresh
// in-memory database. Execution flow:
// 1. Build the config from the variant preset and the overlay
// 2. Run the session headless with the scripted or simulated subject
// 3. Archive the session and read its trials back
// 4. Cross-check the written files against the archive
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	cfg, err := scenario.config()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	root, err := os.MkdirTemp("", "mant-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	defer os.RemoveAll(root)
	cfg.Output.Root = root

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewManualClock(testutil.Epoch),
		ids:    testutil.NewSequentialIDs(scenario.Name),
		port:   &runner.RecordingPort{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		root:   root,
	}

	opts := []runner.Option{
		runner.WithSeed(scenario.Seed),
		runner.WithLogger(h.logger),
		runner.WithClock(h.clock.Now),
		runner.WithIDs(h.ids.Next),
		runner.WithTriggerPort(h.port),
	}
	if scenario.Pool != "" {
		pool, err := runner.ReadPool(strings.NewReader(scenario.Pool))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: pool: %w", scenario.Name, err)
		}
		opts = append(opts, runner.WithPools(pool, pool))
	}
	if a := scenario.Answers; a != nil {
		opts = append(opts, runner.WithResponder(&runner.Scripted{
			Trials:   a.Trials,
			Training: a.Training,
			Prompts:  a.Prompts,
		}))
	}

	r, err := runner.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	ctx := context.Background()
	var sum *runner.Summary
	err = runner.WithDisplay(runner.OpenHeadless(cfg.FrameDuration()), func(d runner.Display) error {
		var err error
		sum, err = r.Run(ctx, d, runner.Session{Subject: scenario.Subject, Run: scenario.Run})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: session: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Summary = sum
	result.Triggers = append(result.Triggers, h.port.Codes()...)
	for _, f := range sum.Files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.Files = append(result.Files, filepath.ToSlash(rel))
	}

	if result.Records, err = h.archive(ctx, cfg.Session, sum); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if err := h.crossCheck(result); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// archive stores the session and returns its trials as read back.
func (h *Harness) archive(ctx context.Context, session string, sum *runner.Summary) ([]trial.Record, error) {
	sess := store.Session{
		ID:        sum.ID,
		Subject:   "sub-" + sum.Layout.Subject,
		Variant:   string(sum.Variant),
		Session:   session,
		Run:       sum.Layout.Run,
		StartedAt: sum.Started,
		Aborted:   sum.Aborted,
	}
	n, err := h.store.ArchiveSession(ctx, sess, sum.Records)
	if err != nil {
		return nil, err
	}
	if n != len(sum.Records) {
		return nil, fmt.Errorf("archived %d of %d trials", n, len(sum.Records))
	}

	sessions, err := h.store.ReadSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) != 1 || sessions[0].ID != sum.ID || sessions[0].Aborted != sum.Aborted {
		return nil, fmt.Errorf("archived session does not match the run")
	}
	return h.store.ReadTrials(ctx, "")
}

// crossCheck compares the trials written to disk with the archive. A
// mismatch is a scenario failure, not an execution error.
func (h *Harness) crossCheck(result *Result) error {
	onDisk, err := tsv.Load(h.root, runner.DataBeh, tsv.SortByTrial)
	if err != nil {
		return err
	}
	if len(onDisk) != len(result.Records) {
		result.AddError(fmt.Sprintf("files hold %d trials, archive holds %d", len(onDisk), len(result.Records)))
		return nil
	}
	for i, r := range onDisk {
		a := result.Records[i]
		if r.Index != a.Index || r.Response != a.Response || r.Correct != a.Correct {
			result.AddError(fmt.Sprintf("trial %d differs between file and archive", a.Index))
		}
	}
	return nil
}
