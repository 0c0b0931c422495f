package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftngo/storefront-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndCompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "inventory")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	require.NoError(t, st.CompleteRun(ctx, run.ID, 42))

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.Equal(t, 42, runs[0].ListingCount)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "inventory")
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "driver launch failed"))

	runs, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "driver launch failed", runs[0].Error)
}

func TestSQLite_CompleteUnknownRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.CompleteRun(context.Background(), "nonexistent", 0)
	assert.Error(t, err)
}

func TestSQLite_ListRunsFilterAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx, "stats")
		require.NoError(t, err)
		require.NoError(t, st.CompleteRun(ctx, run.ID, i))
	}
	_, err := st.CreateRun(ctx, "offer")
	require.NoError(t, err)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	assert.Len(t, complete, 3)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
