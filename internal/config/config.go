package config

import (
	"fmt"
	"time"

	"github.com/roach88/mant/internal/trial"
)

// Variant names an experiment setup.
type Variant string

const (
	// Behavioural is the keyboard-only lab session.
	Behavioural Variant = "behavioural"
	// EEG drops invalid cues and sends trigger codes to the amplifier.
	EEG Variant = "eeg"
	// FMRI runs inside the scanner with a button box and records onsets.
	FMRI Variant = "fmri"
)

// Variants lists the known variants in presentation order.
var Variants = []Variant{Behavioural, EEG, FMRI}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q: must be one of %v", s, Variants)
}

// Config is the complete description of a session and of how its data are
// analysed. It is built once at process start and passed explicitly to the
// runner and the analysis commands.
type Config struct {
	Variant        Variant      `yaml:"variant" json:"variant"`
	Task           string       `yaml:"task" json:"task"`
	Session        string       `yaml:"session" json:"session"`
	Blocks         int          `yaml:"blocks" json:"blocks"`
	TrialsPerBlock int          `yaml:"trials_per_block" json:"trials_per_block"`
	RefreshRateHz  float64      `yaml:"refresh_rate_hz" json:"refresh_rate_hz"`
	CueTypes       []string     `yaml:"cue_types" json:"cue_types"`
	Keys           trial.KeyMap `yaml:"keys" json:"keys"`
	Prompts        Prompts      `yaml:"prompts" json:"prompts"`
	Timing         Timing       `yaml:"timing" json:"timing"`
	Output         Output       `yaml:"output" json:"output"`

	// Training runs one unsaved pass over the training pool before the blocks.
	Training bool `yaml:"training" json:"training"`
	// Demos shows fixation, cue and arrows once before training.
	Demos bool `yaml:"demos" json:"demos"`

	// Triggers, when set, are written to the trigger port at cue, target and
	// response onset.
	Triggers *Triggers `yaml:"triggers,omitempty" json:"triggers,omitempty"`

	// ConditionsFile and TrainingConditionsFile are CSV condition pools. The
	// built-in pool for the configured cue types is used when empty.
	ConditionsFile         string `yaml:"conditions_file,omitempty" json:"conditions_file,omitempty"`
	TrainingConditionsFile string `yaml:"training_conditions_file,omitempty" json:"training_conditions_file,omitempty"`

	// TextDir holds the instruction screens (welcome-message.txt, ...).
	// Built-in messages are used for files that are missing.
	TextDir string `yaml:"text_dir,omitempty" json:"text_dir,omitempty"`

	Analysis Analysis `yaml:"analysis" json:"analysis"`
}

// Jitter describes how a fixation duration is drawn for each trial. Exactly
// one form is set: a fixed duration, a list to sample from, or a uniform
// millisecond range.
type Jitter struct {
	FixedMS   int   `yaml:"fixed_ms,omitempty" json:"fixed_ms,omitempty"`
	ChoicesMS []int `yaml:"choices_ms,omitempty" json:"choices_ms,omitempty"`
	MinMS     int   `yaml:"min_ms,omitempty" json:"min_ms,omitempty"`
	MaxMS     int   `yaml:"max_ms,omitempty" json:"max_ms,omitempty"`
}

// Timing holds the phase durations of a trial and of the text screens.
type Timing struct {
	InitialFixation Jitter `yaml:"initial_fixation" json:"initial_fixation"`
	CueMS           int    `yaml:"cue_ms" json:"cue_ms"`
	PostCueFixation Jitter `yaml:"post_cue_fixation" json:"post_cue_fixation"`
	TargetMS        int    `yaml:"target_ms" json:"target_ms"`

	// MaxTrialMS pads each trial with a trailing fixation. Zero disables it.
	MaxTrialMS int `yaml:"max_trial_ms,omitempty" json:"max_trial_ms,omitempty"`

	InstructionsS int `yaml:"instructions_s" json:"instructions_s"`
	DemoS         int `yaml:"demo_s" json:"demo_s"`
	EndOfBlockS   int `yaml:"end_of_block_s" json:"end_of_block_s"`
}

// Prompts are the keys accepted on text screens.
type Prompts struct {
	// Continue advances past an instruction screen. Escape is always accepted
	// in addition.
	Continue []string `yaml:"continue" json:"continue"`
	// ScannerTrigger is the key the scanner sends at the start of a run.
	ScannerTrigger string `yaml:"scanner_trigger,omitempty" json:"scanner_trigger,omitempty"`
}

// Triggers are the byte codes sent to the EEG trigger port.
type Triggers struct {
	ValidCue    int `yaml:"valid_cue" json:"valid_cue"`
	InvalidCue  int `yaml:"invalid_cue,omitempty" json:"invalid_cue,omitempty"`
	DoubleCue   int `yaml:"double_cue" json:"double_cue"`
	Congruent   int `yaml:"congruent" json:"congruent"`
	Incongruent int `yaml:"incongruent" json:"incongruent"`
	Response    int `yaml:"response" json:"response"`
}

// Output controls where and how trial files are written.
type Output struct {
	Root string `yaml:"root" json:"root"`
	// PerTrial writes one file per trial; otherwise one file per session.
	PerTrial bool `yaml:"per_trial" json:"per_trial"`
	// RunDirs nests beh/onsets folders under run-<r>.
	RunDirs bool `yaml:"run_dirs" json:"run_dirs"`
	// Onsets writes an onsets file next to every beh file.
	Onsets bool `yaml:"onsets" json:"onsets"`
}

// Analysis configures the aggregator.
type Analysis struct {
	Subjects       int    `yaml:"subjects" json:"subjects"`
	Blocks         int    `yaml:"blocks" json:"blocks"`
	TrialsPerBlock int    `yaml:"trials_per_block" json:"trials_per_block"`
	MissPolicy     string `yaml:"miss_policy" json:"miss_policy"`
	DataType       string `yaml:"data_type" json:"data_type"`
	SortKey        string `yaml:"sort_key" json:"sort_key"`
}

// Design returns the condition design implied by the cue types.
func (c *Config) Design() (trial.Design, error) {
	cues := make([]trial.CueType, 0, len(c.CueTypes))
	for _, name := range c.CueTypes {
		cue, err := trial.ParseCueType(name)
		if err != nil {
			return nil, err
		}
		cues = append(cues, cue)
	}
	return trial.NewDesign(cues...), nil
}

// FrameDuration is the time between two display refreshes.
func (c *Config) FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / c.RefreshRateHz)
}

// Millis converts a millisecond count to a duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
