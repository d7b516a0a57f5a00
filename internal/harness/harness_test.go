package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/runner"
	"github.com/roach88/mant/internal/trial"
)

const validPool = "cue_location,sequence_location,cue_type,target_congruent,target_direction\nup,up,spatial valid,yes,left\n"

func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func shortScenario() *Scenario {
	return &Scenario{
		Name:        "short",
		Description: "one block of four scripted trials",
		Variant:     config.Behavioural,
		Seed:        1,
		Subject:     "01",
		Config:      map[string]any{"blocks": 1, "trials_per_block": 4, "training": false},
		Pool:        validPool,
		Answers: &Answers{Trials: []runner.Answer{
			{Key: "left"}, {Key: "left"}, {Key: "left"}, {Key: "left"},
		}},
		Assertions: []Assertion{{Type: AssertTrialCount, Count: 4}},
	}
}

func TestScenarioFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name matches its file")

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)

			require.NoError(t, AssertGolden(t, scenario.Name, result))
		})
	}
}

func TestRun_ArchiveMatchesSummary(t *testing.T) {
	result, err := Run(shortScenario())
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Records, 4)
	assert.Equal(t, result.Summary.Records, result.Records)
	assert.Empty(t, result.Summary.Training)
	for _, r := range result.Records {
		assert.Equal(t, "sub-01", r.Subject)
		assert.Equal(t, trial.Correct, r.Correct)
	}
	assert.Empty(t, result.Triggers)
}

func TestRun_Deterministic(t *testing.T) {
	a, err := Run(shortScenario())
	require.NoError(t, err)
	b, err := Run(shortScenario())
	require.NoError(t, err)

	assert.Equal(t, a.Summary.ID, b.Summary.ID)
	assert.Equal(t, a.Summary.Started, b.Summary.Started)
	assert.Equal(t, a.Records, b.Records)
}

func TestRun_FailingAssertions(t *testing.T) {
	s := shortScenario()
	s.Assertions = []Assertion{
		{Type: AssertTrialCount, Count: 5},
		{Type: AssertAborted, Value: true},
		{Type: AssertOutcomeCounts, Correct: 4},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: trial_count")
	assert.Contains(t, result.Errors[0], "Expected: 5 trials")
	assert.Contains(t, result.Errors[0], "Actual: 4 trials")
	assert.Contains(t, result.Errors[1], "aborted=false")
}

func TestRun_SimulatedSubject(t *testing.T) {
	s := shortScenario()
	s.Answers = nil
	s.Config["trials_per_block"] = 8
	s.Assertions = []Assertion{{Type: AssertTrialCount, Count: 8}, {Type: AssertFileCount, Count: 8}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InvalidOverlay(t *testing.T) {
	s := shortScenario()
	s.Config = map[string]any{"blocks": 0}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadScenario_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "name: x\ndescription: d\nsubject: \"01\"\nassertion: []\n", "field assertion not found"},
		{"missing name", "description: d\nsubject: \"01\"\nassertions: [{type: aborted}]\n", "name is required"},
		{"missing subject", "name: x\ndescription: d\nassertions: [{type: aborted}]\n", "subject is required"},
		{"no assertions", "name: x\ndescription: d\nsubject: \"01\"\n", "assertions list is required"},
		{"unknown assertion", "name: x\ndescription: d\nsubject: \"01\"\nassertions: [{type: final_state}]\n", "unknown assertion type"},
		{"bad trigger", "name: x\ndescription: d\nsubject: \"01\"\nassertions: [{type: triggers, codes: [0]}]\n", "out of range"},
		{"unknown variant", "name: x\ndescription: d\nsubject: \"01\"\nvariant: opto\nassertions: [{type: aborted}]\n", "unknown variant"},
		{"bad pool", "name: x\ndescription: d\nsubject: \"01\"\npool: \"cue_type\\nvalid\\n\"\nassertions: [{type: aborted}]\n", "missing condition columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestSnapshot(t *testing.T) {
	result := NewResult()
	result.Summary = &runner.Summary{Variant: config.EEG, Blocks: 2}
	result.Triggers = []byte{2, 4, 6}
	result.Files = []string{"sub-01/ses-eeg/beh/sub-01_ses-eeg_task-mANT_beh.tsv"}
	result.Records = []trial.Record{{
		Block: 1, Index: 24, CueType: trial.CueDouble, Congruency: trial.Incongruent,
		Direction: trial.Right, Response: trial.MissResponse, Correct: trial.Miss,
	}}

	got, err := Snapshot("by_hand", result)
	require.NoError(t, err)
	assert.Equal(t, "scenario: by_hand\n"+
		"variant: eeg\n"+
		"blocks: 2\n"+
		"aborted: false\n"+
		"training: 0\n"+
		"triggers: 2 4 6\n"+
		"files:\n"+
		"  sub-01/ses-eeg/beh/sub-01_ses-eeg_task-mANT_beh.tsv\n"+
		"trials:\n"+
		"block\ttrial\tcue_type\ttarget_congruent\ttarget_direction\tresponse\tcorrect\n"+
		"1\t24\tdouble\tno\tright\tmiss\t-1\n", string(got))
}
