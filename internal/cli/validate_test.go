package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_ValidFile(t *testing.T) {
	config := writeFile(t, "session.yaml", shortSession)

	out, err := execute(t, "validate", config)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+config+" (behavioural)")
}

func TestValidateCommand_InvalidFiles(t *testing.T) {
	valid := writeFile(t, "valid.yaml", shortSession)
	unknown := writeFile(t, "unknown.yaml", "variant: eeg\nscreen: fullscreen\n")
	badVariant := writeFile(t, "variant.yaml", "variant: meg\n")

	out, err := execute(t, "validate", valid, unknown, badVariant)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 of 3 config file(s) invalid")
	assert.Contains(t, out, "✓ "+valid)
	assert.Contains(t, out, "✗ "+unknown)
	assert.Contains(t, out, "✗ "+badVariant)
}

func TestValidateCommand_ConditionsWarnings(t *testing.T) {
	pool := writeFile(t, "conditions.csv", `cue_location,sequence_location,cue_type,target_congruent,target_direction
up,up,spatial valid,yes,left
down,down,spatial valid,no,right
up,down,spatial invalid,yes,left
`)
	config := writeFile(t, "session.yaml", "variant: behavioural\ntrials_per_block: 4\nconditions_file: "+pool+"\n")

	out, err := execute(t, "--format", "json", "validate", config)
	require.NoError(t, err)

	var checks []ConfigCheck
	decodeData(t, out, &checks)
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Valid)
	require.Len(t, checks[0].Warnings, 2)
	assert.Contains(t, checks[0].Warnings[0], "does not cover conditions")
	assert.Contains(t, checks[0].Warnings[1], "not a multiple of the 3 entries")
}

func TestValidateCommand_MissingConditionsFile(t *testing.T) {
	config := writeFile(t, "session.yaml", "variant: behavioural\nconditions_file: /nonexistent/conditions.csv\n")

	out, err := execute(t, "validate", config)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+config)
}

func TestValidateCommand_NoArgs(t *testing.T) {
	_, err := execute(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
