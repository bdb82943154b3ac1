package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

func outcomeAt(runID string, startedAt time.Time) domain.RunOutcome {
	return domain.RunOutcome{
		RunID:     runID,
		Query:     domain.Query{Raw: "space = ENG", Normalised: "(space = ENG) AND type = page", Limit: 100},
		Uploaded:  3,
		StartedAt: startedAt,
	}
}

func TestRunStore_SaveAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	outcome := outcomeAt("run-1", time.Now())
	require.NoError(t, store.Save(ctx, outcome))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, outcome, *got)
}

func TestRunStore_Save_RequiresRunID(t *testing.T) {
	store := NewRunStore()

	err := store.Save(context.Background(), domain.RunOutcome{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunStore_Get_NotFound(t *testing.T) {
	store := NewRunStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_List_OrderAndLimit(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, outcomeAt("run-a", base)))
	require.NoError(t, store.Save(ctx, outcomeAt("run-b", base.Add(time.Minute))))
	require.NoError(t, store.Save(ctx, outcomeAt("run-c", base.Add(2*time.Minute))))

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "run-c", list[0].RunID)
	assert.Equal(t, "run-a", list[2].RunID)

	list, err = store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-c", list[0].RunID)
	assert.Equal(t, "run-b", list[1].RunID)
}

func TestRunStore_Save_Overwrites(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	outcome := outcomeAt("run-1", time.Now())
	require.NoError(t, store.Save(ctx, outcome))
	outcome.Uploaded = 7
	require.NoError(t, store.Save(ctx, outcome))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Uploaded)

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
