package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTrials_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Inserted out of order on purpose.
	rows := []Row{
		{File: "f2", Row: 0, Record: createTestRecord("sub-02", 0, 0, "VC", 0.1)},
		{File: "f1", Row: 3, Record: createTestRecord("sub-01", 1, 3, "VC", 0.2)},
		{File: "f1", Row: 1, Record: createTestRecord("sub-01", 0, 1, "VI", 0.3)},
		{File: "f1", Row: 0, Record: createTestRecord("sub-01", 0, 0, "DC", 0.4)},
	}
	_, err := s.Import(ctx, "outputs", rows, testStart)
	require.NoError(t, err)

	got, err := s.ReadTrials(ctx, "")
	require.NoError(t, err)
	var order []float64
	for _, r := range got {
		order = append(order, r.RT.Value)
	}
	assert.Equal(t, []float64{0.4, 0.3, 0.2, 0.1}, order)

	got, err = s.ReadTrials(ctx, "sub-02")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sub-02", got[0].Subject)
}

func TestReadTrials_Empty(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadTrials(context.Background(), "sub-09")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadTrials_MissingValuesStayMissing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	miss := createTestRecord("sub-01", 0, 0, "DI", -1)
	_, err := s.Import(ctx, "outputs", []Row{{File: "f", Record: miss}}, testStart)
	require.NoError(t, err)

	got, err := s.ReadTrials(ctx, "sub-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].RT.Valid)
	assert.False(t, got[0].Onsets.Cue.Valid)
	assert.Equal(t, miss, got[0])
}

func TestSubjects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rows := []Row{
		{File: "a", Record: createTestRecord("sub-03", 0, 0, "VC", 0.1)},
		{File: "b", Record: createTestRecord("sub-01", 0, 0, "VC", 0.1)},
		{File: "c", Record: createTestRecord("sub-03", 0, 1, "VC", 0.1)},
	}
	_, err := s.Import(ctx, "outputs", rows, testStart)
	require.NoError(t, err)

	got, err := s.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-01", "sub-03"}, got)
}
