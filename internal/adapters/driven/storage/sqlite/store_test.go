package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// sampleOutcome builds a fully populated run outcome.
func sampleOutcome(runID string, startedAt time.Time) domain.RunOutcome {
	return domain.RunOutcome{
		RunID: runID,
		Query: domain.Query{
			Raw:        "space = ENG",
			Normalised: "(space = ENG) AND type = page",
			Limit:      100,
		},
		ContainerID:    "kb-1",
		ContainerName:  "Engineering",
		TotalMatched:   12,
		TotalRetrieved: 10,
		Uploaded:       8,
		Skipped:        1,
		Rejected:       2,
		Failed:         1,
		Rejections: []domain.Rejection{
			{Filename: "demo.mp4", Reason: domain.RejectExtension},
			{Filename: "huge.pdf", Reason: domain.RejectSize},
		},
		Failures: []domain.ItemResult{
			{Name: "notes.md", State: domain.ItemFailedRetryable, Attempts: 3, Err: errors.New("gave up")},
		},
		Warning:    "",
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(90 * time.Second),
	}
}

func TestNewStore_ErrorHandling(t *testing.T) {
	// Test with invalid path (should fail to create directory)
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	// Verify database file was created
	dbPath := filepath.Join(tempDir, "metadata.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	// Verify database connection is working
	err = store.db.Ping()
	assert.NoError(t, err)
}

// TestStore_MigrationsIdempotent tests that reopening the same database
// does not re-apply migrations
func TestStore_MigrationsIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	var version int
	require.NoError(t, store.db.QueryRow(
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

// TestRunStore_SaveAndGet tests the full round trip of one run
func TestRunStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	runs := store.RunStore()
	ctx := context.Background()

	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	outcome := sampleOutcome("run-1", started)
	require.NoError(t, runs.Save(ctx, outcome))

	got, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, outcome.Query, got.Query)
	assert.Equal(t, "kb-1", got.ContainerID)
	assert.Equal(t, "Engineering", got.ContainerName)
	assert.Equal(t, 12, got.TotalMatched)
	assert.Equal(t, 10, got.TotalRetrieved)
	assert.Equal(t, 8, got.Uploaded)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 2, got.Rejected)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, outcome.Rejections, got.Rejections)
	assert.True(t, started.Equal(got.StartedAt))
	assert.True(t, outcome.FinishedAt.Equal(got.FinishedAt))

	require.Len(t, got.Failures, 1)
	assert.Equal(t, "notes.md", got.Failures[0].Name)
	assert.Equal(t, domain.ItemFailedRetryable, got.Failures[0].State)
	assert.Equal(t, 3, got.Failures[0].Attempts)
	assert.EqualError(t, got.Failures[0].Err, "gave up")
}

func TestRunStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RunStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_Save_RequiresRunID(t *testing.T) {
	store := setupTestStore(t)

	err := store.RunStore().Save(context.Background(), domain.RunOutcome{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// TestRunStore_Save_Overwrites tests that re-saving a run replaces the
// earlier record
func TestRunStore_Save_Overwrites(t *testing.T) {
	store := setupTestStore(t)
	runs := store.RunStore()
	ctx := context.Background()

	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	outcome := sampleOutcome("run-1", started)
	require.NoError(t, runs.Save(ctx, outcome))

	outcome.Uploaded = 99
	outcome.Failures = nil
	require.NoError(t, runs.Save(ctx, outcome))

	got, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 99, got.Uploaded)
	assert.Empty(t, got.Failures)

	list, err := runs.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestRunStore_List_OrderAndLimit tests most-recent-first ordering
func TestRunStore_List_OrderAndLimit(t *testing.T) {
	store := setupTestStore(t)
	runs := store.RunStore()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, runs.Save(ctx, sampleOutcome(id, base.Add(time.Duration(i)*time.Minute))))
	}

	list, err := runs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "run-c", list[0].RunID)
	assert.Equal(t, "run-b", list[1].RunID)
	assert.Equal(t, "run-a", list[2].RunID)

	list, err = runs.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-c", list[0].RunID)
}

func TestRunStore_List_Empty(t *testing.T) {
	store := setupTestStore(t)

	list, err := store.RunStore().List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// TestRunStore_AbortedRun tests persistence of a run with no container
// and no per-item detail
func TestRunStore_AbortedRun(t *testing.T) {
	store := setupTestStore(t)
	runs := store.RunStore()
	ctx := context.Background()

	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	outcome := domain.RunOutcome{
		RunID: "run-aborted",
		Query: domain.Query{
			Raw:        "space = AND",
			Normalised: "(space = AND) AND type = page",
			Limit:      100,
		},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
	require.NoError(t, runs.Save(ctx, outcome))

	got, err := runs.Get(ctx, "run-aborted")
	require.NoError(t, err)
	assert.Empty(t, got.ContainerID)
	assert.Empty(t, got.Rejections)
	assert.Empty(t, got.Failures)
	assert.True(t, got.Clean())
}

// TestRunStore_PersistsAcrossReopen tests durability across connections
func TestRunStore_PersistsAcrossReopen(t *testing.T) {
	tempDir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RunStore().Save(ctx, sampleOutcome("run-1", started)))
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.RunStore().Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Uploaded)
}
