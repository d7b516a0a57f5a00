package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mant/internal/stats"
)

func analyze(t *testing.T, args ...string) AnalyzeResult {
	t.Helper()
	config := writeFile(t, "session.yaml", shortSession)
	out, err := execute(t, append([]string{"--format", "json", "analyze", "--config", config}, args...)...)
	require.NoError(t, err)

	var result AnalyzeResult
	decodeData(t, out, &result)
	return result
}

func TestAnalyzeCommand_Folder(t *testing.T) {
	data := t.TempDir()
	runShort(t, data, "01")
	runShort(t, data, "02")
	results := t.TempDir()

	result := analyze(t, data, "--results", results)

	assert.Equal(t, []string{"sub-01", "sub-02"}, result.Subjects)
	assert.Equal(t, 8, result.Trials)
	statsDir := filepath.Join(results, "statistics")
	for _, name := range []string{
		stats.DescriptivesFile,
		"sub-01-" + stats.DescriptivesFile,
		"sub-02-" + stats.DescriptivesFile,
		stats.RepetitionFile,
	} {
		assert.Contains(t, result.Tables, filepath.Join(statsDir, name))
		assert.FileExists(t, filepath.Join(statsDir, name))
	}

	assert.NotEmpty(t, result.Figures)
	assert.DirExists(t, filepath.Join(results, "figures", "sub-01-figures"))
	assert.DirExists(t, filepath.Join(results, "figures", "group"))
	for _, f := range result.Figures {
		assert.FileExists(t, f)
	}
}

func TestAnalyzeCommand_SubjectsSkipMissingFolders(t *testing.T) {
	data := t.TempDir()
	runShort(t, data, "01")
	runShort(t, data, "02")

	result := analyze(t, data, "--subjects", "1,sub-05", "--results", t.TempDir(), "--no-figures")

	assert.Equal(t, []string{"sub-01"}, result.Subjects)
	assert.Equal(t, 4, result.Trials)
	assert.Empty(t, result.Figures)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "subject=sub-05")
}

func TestAnalyzeCommand_InterpolatePolicy(t *testing.T) {
	data := t.TempDir()
	runShort(t, data, "01")
	runShort(t, data, "02")

	result := analyze(t, data, "--miss-policy", "interpolate", "--sort", "trial",
		"--results", t.TempDir(), "--no-figures")

	assert.Equal(t, []string{"sub-01", "sub-02"}, result.Subjects)
	assert.Equal(t, 8, result.Trials)
}

func TestAnalyzeCommand_SingleSubjectSkipsANOVA(t *testing.T) {
	data := t.TempDir()
	runShort(t, data, "01")
	results := t.TempDir()

	result := analyze(t, data, "--results", results, "--no-figures")

	assert.NoFileExists(t, filepath.Join(results, "statistics", stats.AnovaFile))
	assert.FileExists(t, filepath.Join(results, "statistics", stats.DescriptivesFile))
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "repeated-measures ANOVA skipped")
}

func TestAnalyzeCommand_Database(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")
	runShort(t, t.TempDir(), "01", "--db", db)
	runShort(t, t.TempDir(), "02", "--db", db)
	figuresDir := t.TempDir()

	result := analyze(t, "--db", db, "--subjects", "02", "--results", t.TempDir(),
		"--figures", figuresDir, "--plots", "boxplot")

	assert.Equal(t, []string{"sub-02"}, result.Subjects)
	assert.Equal(t, 4, result.Trials)
	assert.DirExists(t, filepath.Join(figuresDir, "sub-02-figures"))
	assert.NoDirExists(t, filepath.Join(figuresDir, "sub-01-figures"))
}

func TestAnalyzeCommand_NoData(t *testing.T) {
	_, err := execute(t, "analyze", t.TempDir(), "--results", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	data := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(data, "sub-01"), 0o755))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"analyze"}, "give either a data folder or --db"},
		{"both sources", []string{"analyze", data, "--db", "archive.db"}, "give either a data folder or --db"},
		{"missing folder", []string{"analyze", "/nonexistent/outputs"}, "failed to read trials"},
		{"missing archive", []string{"analyze", "--db", "/nonexistent/archive.db"}, "failed to read trials"},
		{"bad policy", []string{"analyze", data, "--miss-policy", "zero"}, "invalid analysis settings"},
		{"bad plot", []string{"analyze", data, "--plots", "violin"}, "invalid analysis settings"},
		{"bad sort", []string{"analyze", data, "--sort", "date"}, "invalid analysis settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSubjectToken(t *testing.T) {
	tests := map[string]string{
		"1":      "sub-01",
		"01":     "sub-01",
		"12":     "sub-12",
		"sub-03": "sub-03",
		"ab":     "sub-ab",
		" 4 ":    "sub-04",
	}
	for in, want := range tests {
		assert.Equal(t, want, subjectToken(in), "input %q", in)
	}
}

func TestGridColumns(t *testing.T) {
	assert.Equal(t, 1, gridColumns(0))
	assert.Equal(t, 1, gridColumns(1))
	assert.Equal(t, 2, gridColumns(4))
	assert.Equal(t, 3, gridColumns(9))
	assert.Equal(t, 4, gridColumns(10))
}
