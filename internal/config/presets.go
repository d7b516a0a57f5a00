package config

import "github.com/roach88/mant/internal/trial"

// Fixation jitter lists in milliseconds, after Fan et al. (2005).
var (
	InitialFixationChoicesMS = []int{3000, 3250, 3500, 3750, 4000, 4500, 5000, 5500, 6500, 8000, 10000, 15000}
	PostCueFixationChoicesMS = []int{300, 300, 300, 550, 800, 1050, 1550, 2300, 3300, 4800, 6550, 11800}
)

// Preset returns the default configuration of a variant.
func Preset(v Variant) (*Config, error) {
	switch v {
	case Behavioural:
		return behaviouralPreset(), nil
	case EEG:
		return eegPreset(), nil
	case FMRI:
		return fmriPreset(), nil
	}
	_, err := ParseVariant(string(v))
	return nil, err
}

func behaviouralPreset() *Config {
	return &Config{
		Variant:        Behavioural,
		Task:           "mANT",
		Session:        "beh",
		Blocks:         10,
		TrialsPerBlock: 24,
		RefreshRateHz:  60,
		CueTypes:       []string{"valid", "invalid", "double"},
		Keys:           trial.KeyboardKeys,
		Prompts:        Prompts{Continue: []string{"space"}},
		Timing: Timing{
			InitialFixation: Jitter{ChoicesMS: append([]int(nil), InitialFixationChoicesMS...)},
			CueMS:           200,
			PostCueFixation: Jitter{ChoicesMS: append([]int(nil), PostCueFixationChoicesMS...)},
			TargetMS:        2000,
			InstructionsS:   180,
			DemoS:           10,
			EndOfBlockS:     3600,
		},
		Output:   Output{Root: "outputs", PerTrial: true},
		Training: true,
		Demos:    true,
		Analysis: Analysis{
			Subjects:       1,
			Blocks:         10,
			TrialsPerBlock: 24,
			MissPolicy:     "drop",
			DataType:       "beh",
			SortKey:        "trial",
		},
	}
}

func eegPreset() *Config {
	return &Config{
		Variant:        EEG,
		Task:           "mANT",
		Session:        "eeg",
		Blocks:         9,
		TrialsPerBlock: 48,
		RefreshRateHz:  60,
		CueTypes:       []string{"valid", "double"},
		Keys:           trial.KeyboardKeys,
		Prompts:        Prompts{Continue: []string{"space"}},
		Timing: Timing{
			InitialFixation: Jitter{MinMS: 500, MaxMS: 1000},
			CueMS:           100,
			PostCueFixation: Jitter{FixedMS: 1100},
			TargetMS:        1100,
			MaxTrialMS:      3600,
			InstructionsS:   180,
			DemoS:           10,
			EndOfBlockS:     3600,
		},
		Output:   Output{Root: "outputs", PerTrial: false},
		Training: true,
		Demos:    true,
		Triggers: &Triggers{
			ValidCue:    2,
			DoubleCue:   3,
			Congruent:   4,
			Incongruent: 5,
			Response:    6,
		},
		Analysis: Analysis{
			Subjects:       1,
			Blocks:         9,
			TrialsPerBlock: 48,
			MissPolicy:     "drop",
			DataType:       "beh",
			SortKey:        "subject",
		},
	}
}

func fmriPreset() *Config {
	return &Config{
		Variant:        FMRI,
		Task:           "mANT",
		Session:        "mri",
		Blocks:         1,
		TrialsPerBlock: 48,
		RefreshRateHz:  60,
		CueTypes:       []string{"valid", "invalid", "double"},
		Keys:           trial.ButtonBoxKeys,
		Prompts:        Prompts{Continue: []string{"6"}, ScannerTrigger: "5"},
		Timing: Timing{
			InitialFixation: Jitter{ChoicesMS: append([]int(nil), InitialFixationChoicesMS...)},
			CueMS:           200,
			PostCueFixation: Jitter{ChoicesMS: append([]int(nil), PostCueFixationChoicesMS...)},
			TargetMS:        2000,
			InstructionsS:   180,
			DemoS:           10,
			EndOfBlockS:     3600,
		},
		Output:   Output{Root: "outputs", PerTrial: true, RunDirs: true, Onsets: true},
		Training: true,
		Demos:    true,
		Analysis: Analysis{
			Subjects:       1,
			Blocks:         6,
			TrialsPerBlock: 48,
			MissPolicy:     "drop",
			DataType:       "beh",
			SortKey:        "trial",
		},
	}
}
