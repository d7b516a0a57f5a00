package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mant/internal/store"
)

func importFolder(t *testing.T, dir, db string) ImportResult {
	t.Helper()
	out, err := execute(t, "--format", "json", "import", dir, "--db", db)
	require.NoError(t, err)

	var result ImportResult
	decodeData(t, out, &result)
	return result
}

func TestImportCommand_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	runShort(t, root, "01")
	runShort(t, root, "02")
	db := filepath.Join(t.TempDir(), "archive.db")

	first := importFolder(t, root, db)
	assert.Equal(t, 8, first.Files)
	assert.Equal(t, 8, first.Trials)
	assert.Equal(t, 8, first.Inserted)
	assert.Zero(t, first.Skipped)

	second := importFolder(t, root, db)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 8, second.Skipped)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	subjects, err := st.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-01", "sub-02"}, subjects)
}

func TestImportCommand_NoData(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")

	_, err := execute(t, "import", t.TempDir(), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, errors.Is(err, ErrNoData))
	assert.NoFileExists(t, db, "no archive is created for an empty folder")
}

func TestImportCommand_RequiresDB(t *testing.T) {
	_, err := execute(t, "import", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
