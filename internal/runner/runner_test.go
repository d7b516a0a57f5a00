package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/trial"
	"github.com/roach88/mant/internal/tsv"
)

var perfect = Profile{
	Accuracy:    1,
	MeanRT:      300 * time.Millisecond,
	SDRT:        20 * time.Millisecond,
	MinRT:       150 * time.Millisecond,
	PromptDelay: 50 * time.Millisecond,
}

// fastConfig returns a preset with short fixed timings and a 100 Hz display.
func fastConfig(t *testing.T, v config.Variant) *config.Config {
	t.Helper()
	cfg, err := config.Preset(v)
	require.NoError(t, err)

	cfg.RefreshRateHz = 100
	cfg.Blocks = 2
	cfg.Timing.InitialFixation = config.Jitter{FixedMS: 100}
	cfg.Timing.PostCueFixation = config.Jitter{FixedMS: 50}
	cfg.Timing.CueMS = 50
	cfg.Timing.TargetMS = 500
	cfg.Timing.InstructionsS = 1
	cfg.Timing.DemoS = 1
	cfg.Timing.EndOfBlockS = 1
	cfg.Output.Root = t.TempDir()
	require.NoError(t, cfg.Validate())
	return cfg
}

func runSession(t *testing.T, cfg *config.Config, sess Session, opts ...Option) (*Summary, *Headless) {
	t.Helper()
	r, err := New(cfg, append([]Option{WithSeed(11)}, opts...)...)
	require.NoError(t, err)

	h := NewHeadless(cfg.FrameDuration())
	var sum *Summary
	err = WithDisplay(func() (Display, error) { return h, nil }, func(d Display) error {
		var err error
		sum, err = r.Run(context.Background(), d, sess)
		return err
	})
	require.NoError(t, err)
	require.True(t, h.Closed())
	return sum, h
}

func TestRun_BehaviouralWritesOneFilePerTrial(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	sum, _ := runSession(t, cfg, Session{Subject: "01"},
		WithResponder(NewSimulated(perfect, cfg.Keys, 3)))

	require.Len(t, sum.Records, 48)
	assert.Equal(t, 2, sum.Blocks)
	assert.False(t, sum.Aborted)
	assert.Len(t, sum.Files, 48)
	assert.Len(t, sum.Training, 24)

	dir := filepath.Join(cfg.Output.Root, "sub-01", "ses-beh", "beh")
	assert.FileExists(t, filepath.Join(dir, "sub-01_task-mANT_beh_0.tsv"))
	assert.FileExists(t, filepath.Join(dir, "sub-01_task-mANT_beh_47.tsv"))
	assert.NoFileExists(t, filepath.Join(dir, "sub-01_task-mANT_beh_48.tsv"))

	correct, incorrect, misses := sum.Counts()
	assert.Equal(t, 48, correct)
	assert.Zero(t, incorrect)
	assert.Zero(t, misses)

	for i, rec := range sum.Records {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, i/24, rec.Block)
		assert.Equal(t, "sub-01", rec.Subject)
		require.True(t, rec.RT.Valid)
		assert.GreaterOrEqual(t, rec.RT.Value, 0.15)
	}
}

func TestRun_FilesReadBack(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	cfg.Blocks = 1
	sum, _ := runSession(t, cfg, Session{Subject: "02"})

	loaded, err := tsv.Load(cfg.Output.Root, DataBeh, tsv.SortByTrial)
	require.NoError(t, err)
	require.Len(t, loaded, len(sum.Records))
	for i, want := range sum.Records {
		got := loaded[i]
		assert.Equal(t, want.Index, got.Index)
		assert.Equal(t, want.Subject, got.Subject)
		assert.Equal(t, want.Condition(), got.Condition())
		assert.Equal(t, want.Direction, got.Direction)
		assert.Equal(t, want.Response, got.Response)
		assert.Equal(t, want.Correct, got.Correct)
		assert.Equal(t, want.RT.Valid, got.RT.Valid)
		assert.InDelta(t, want.RT.Value, got.RT.Value, 1e-9)
	}
}

func TestRun_BlocksCoverThePool(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	sum, _ := runSession(t, cfg, Session{Subject: "01"})

	design, err := cfg.Design()
	require.NoError(t, err)
	for b := 0; b < 2; b++ {
		counts := map[trial.Condition]int{}
		for _, rec := range sum.Records[b*24 : (b+1)*24] {
			counts[rec.Condition()]++
		}
		for _, c := range design {
			assert.Equal(t, 4, counts[c], "block %d condition %s", b, c.Label())
		}
	}
}

func TestRun_PartialRepetitionKeepsBlockSizeAndFiles(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	cfg.TrialsPerBlock = 20
	sum, _ := runSession(t, cfg, Session{Subject: "01"})

	require.Len(t, sum.Records, 40)
	assert.Equal(t, 2, sum.Blocks)
	for i, rec := range sum.Records {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, i/20, rec.Block)
	}

	var onDisk []string
	err := filepath.WalkDir(cfg.Output.Root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == ".tsv" {
			onDisk = append(onDisk, path)
		}
		return err
	})
	require.NoError(t, err)
	assert.Len(t, onDisk, 40)
	assert.ElementsMatch(t, sum.Files, onDisk)
}

func TestRun_SeedReproducesTrialOrder(t *testing.T) {
	order := func() []trial.Condition {
		cfg := fastConfig(t, config.Behavioural)
		cfg.Blocks = 1
		sum, _ := runSession(t, cfg, Session{Subject: "01"})
		conds := make([]trial.Condition, len(sum.Records))
		for i, r := range sum.Records {
			conds[i] = r.Condition()
		}
		return conds
	}
	assert.Equal(t, order(), order())
}

func TestRun_EscapeInTrialStopsSession(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	resp := &Scripted{Trials: []Answer{
		{Key: "left", RT: 300 * time.Millisecond},
		{Key: trial.EscapeKey, RT: 200 * time.Millisecond},
		{Key: "right", RT: 300 * time.Millisecond},
	}}
	sum, h := runSession(t, cfg, Session{Subject: "03"}, WithResponder(resp))

	require.Len(t, sum.Records, 2)
	assert.True(t, sum.Aborted)
	assert.Zero(t, sum.Blocks)
	assert.Len(t, sum.Files, 2)
	assert.Equal(t, trial.EscapeKey, sum.Records[1].Response)
	assert.Equal(t, trial.Incorrect, sum.Records[1].Correct)

	last := h.Draws()[len(h.Draws())-2]
	assert.Equal(t, []string{ScreenFarewell}, last.Names)
}

func TestRun_EscapeAtEndOfBlock(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	resp := &Scripted{Prompts: map[string]string{ScreenEndOfBlock: trial.EscapeKey}}
	sum, _ := runSession(t, cfg, Session{Subject: "04"}, WithResponder(resp))

	assert.Len(t, sum.Records, 24)
	assert.Equal(t, 1, sum.Blocks)
	assert.True(t, sum.Aborted)
	_, _, misses := sum.Counts()
	assert.Equal(t, 24, misses)
	for _, rec := range sum.Records {
		assert.Equal(t, trial.MissResponse, rec.Response)
		assert.False(t, rec.RT.Valid)
	}
}

func TestRun_TrainingIsNotSaved(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	cfg.Blocks = 1
	resp := &Scripted{Training: []Answer{{Key: trial.EscapeKey}}}
	sum, _ := runSession(t, cfg, Session{Subject: "05"}, WithResponder(resp))

	require.Len(t, sum.Training, 1)
	assert.Empty(t, sum.Records)
	assert.Empty(t, sum.Files)
	assert.True(t, sum.Aborted)

	entries, err := os.ReadDir(filepath.Join(cfg.Output.Root, "sub-05", "ses-beh", "beh"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_NoSubject(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), NewHeadless(cfg.FrameDuration()), Session{Subject: "  "})
	require.ErrorIs(t, err, ErrNoSubject)

	_, err = os.Stat(filepath.Join(cfg.Output.Root, "sub-"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_EEGSessionFileAndTriggers(t *testing.T) {
	cfg := fastConfig(t, config.EEG)
	cfg.Blocks = 1
	cfg.TrialsPerBlock = 16
	cfg.Timing.MaxTrialMS = 1000
	port := &RecordingPort{}
	sum, _ := runSession(t, cfg, Session{Subject: "06"},
		WithResponder(NewSimulated(perfect, cfg.Keys, 5)), WithTriggerPort(port))

	require.Len(t, sum.Records, 16)
	path := filepath.Join(cfg.Output.Root, "sub-06", "ses-eeg", "beh", "sub-06_ses-eeg_task-mANT_beh.tsv")
	assert.Equal(t, []string{path}, sum.Files)

	back, err := tsv.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, back, 16)
	for i, rec := range back {
		assert.Equal(t, i, rec.Index)
		assert.NotEqual(t, trial.CueInvalid, rec.CueType)
	}

	// Training and experimental trials each send cue, target and response codes.
	codes := port.Codes()
	require.Len(t, codes, 3*(16+16))
	for i := 0; i < len(codes); i += 3 {
		assert.Contains(t, []byte{2, 3}, codes[i])
		assert.Contains(t, []byte{4, 5}, codes[i+1])
		assert.Equal(t, byte(6), codes[i+2])
	}
}

func TestRun_EEGTrailingFixationPadsTrials(t *testing.T) {
	cfg := fastConfig(t, config.EEG)
	cfg.Blocks = 1
	cfg.TrialsPerBlock = 16
	cfg.Training = false
	cfg.Demos = false
	cfg.Timing.MaxTrialMS = 1000
	port := &RecordingPort{}
	runSession(t, cfg, Session{Subject: "06"},
		WithResponder(NewSimulated(perfect, cfg.Keys, 5)), WithTriggerPort(port))

	// Cue onsets are one trial length apart: the trial is padded to 1 s
	// after its initial fixation, plus the frames the phases take to switch.
	var cues []time.Duration
	for _, tr := range port.Sent {
		if tr.Code == 2 || tr.Code == 3 {
			cues = append(cues, tr.At)
		}
	}
	require.Len(t, cues, 16)
	for i := 1; i < len(cues); i++ {
		gap := cues[i] - cues[i-1]
		assert.GreaterOrEqual(t, gap, 1100*time.Millisecond)
		assert.LessOrEqual(t, gap, 1200*time.Millisecond)
	}
}

func TestRun_FMRIRunFoldersAndOnsets(t *testing.T) {
	cfg := fastConfig(t, config.FMRI)
	cfg.Blocks = 1
	cfg.TrialsPerBlock = 24
	sum, _ := runSession(t, cfg, Session{Subject: "07", Run: "2"},
		WithResponder(NewSimulated(perfect, cfg.Keys, 9)))

	require.Len(t, sum.Records, 24)
	run := filepath.Join(cfg.Output.Root, "sub-07", "ses-mri", "run-2")
	assert.FileExists(t, filepath.Join(run, "beh", "sub-07_task-mANT_run-2_beh_0.tsv"))
	assert.FileExists(t, filepath.Join(run, "onsets", "sub-07_task-mANT_run-2_onsets_23.tsv"))
	assert.Len(t, sum.Files, 48)

	for _, rec := range sum.Records {
		assert.Equal(t, 1, rec.Block)
		assert.Contains(t, []string{"1", "6"}, rec.Response)
		assert.Equal(t, trial.Correct, rec.Correct)
		assert.InDelta(t, 0.1, rec.PreCueJitter.Value, 1e-9)
		assert.InDelta(t, 0.05, rec.PostCueJitter.Value, 1e-9)
	}

	// The run clock starts at the scanner trigger, so the first cue comes
	// right after the first initial fixation.
	first := sum.Records[0].Onsets
	require.True(t, first.Cue.Valid)
	assert.InDelta(t, 0.1, first.Cue.Value, 0.021)
	assert.Greater(t, first.Target.Value, first.Cue.Value)
	assert.Greater(t, first.Response.Value, first.Target.Value)

	beh, err := tsv.ReadFile(filepath.Join(run, "beh", "sub-07_task-mANT_run-2_beh_0.tsv"))
	require.NoError(t, err)
	require.Len(t, beh, 1)
	assert.True(t, beh[0].PreCueJitter.Valid)

	onsets, err := os.ReadFile(filepath.Join(run, "onsets", "sub-07_task-mANT_run-2_onsets_0.tsv"))
	require.NoError(t, err)
	assert.Contains(t, string(onsets), "cue_onset\ttarget_onset\tresponse_onset\n")
}

func TestRun_FMRIRejectsBadRun(t *testing.T) {
	cfg := fastConfig(t, config.FMRI)
	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), NewHeadless(cfg.FrameDuration()), Session{Subject: "01", Run: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run")
}

func TestRun_DrawsPhases(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	cfg.Blocks = 1
	_, h := runSession(t, cfg, Session{Subject: "01"})

	var sawCue, sawArrows, sawWelcome bool
	for _, d := range h.Draws() {
		if len(d.Names) == 2 && d.Names[1] == "cue" {
			sawCue = true
		}
		if len(d.Names) == 2 && d.Names[1] == "arrows" {
			sawArrows = true
		}
		if len(d.Names) == 1 && d.Names[0] == ScreenWelcome {
			sawWelcome = true
		}
	}
	assert.True(t, sawCue)
	assert.True(t, sawArrows)
	assert.True(t, sawWelcome)
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	r, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := r.Run(ctx, NewHeadless(cfg.FrameDuration()), Session{Subject: "01"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.Empty(t, sum.Records)
}

func TestNew_ConditionsFile(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	path := filepath.Join(t.TempDir(), "conditions.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"cue_location,sequence_location,cue_type,target_congruent,target_direction,target\n"+
			"up,up,spatial valid,yes,left,\"[[0,1],[1,0]]\"\n"+
			"both,down,double,no,right,\"[[0,1],[1,0]]\"\n"), 0o644))
	cfg.ConditionsFile = path
	cfg.Blocks = 1
	cfg.TrialsPerBlock = 4

	sum, _ := runSession(t, cfg, Session{Subject: "08"})
	assert.Len(t, sum.Records, 4)
	assert.Len(t, sum.Training, 2)
}

func TestNew_MissingConditionsFile(t *testing.T) {
	cfg := fastConfig(t, config.Behavioural)
	cfg.ConditionsFile = filepath.Join(t.TempDir(), "nope.csv")
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open condition file")
}

func TestWithDisplay_ClosesOnError(t *testing.T) {
	h := NewHeadless(10 * time.Millisecond)
	err := WithDisplay(func() (Display, error) { return h, nil }, func(Display) error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, h.Closed())

	_, err = h.Flip()
	assert.Error(t, err)
}

func TestOpenHeadless_RejectsZeroFrame(t *testing.T) {
	_, err := OpenHeadless(0)()
	require.Error(t, err)
}
