package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/retry"
)

// fetchCall records one gateway request.
type fetchCall struct {
	offset int
	limit  int
}

// mockGateway serves search pages from a fixed corpus of entries.
type mockGateway struct {
	entries []driven.SearchEntry
	calls   []fetchCall
	errs    []error // errs[i] is returned for call i, nil entries mean serve normally
}

func (g *mockGateway) Search(_ context.Context, _ string, offset, limit int) (*driven.SearchPage, error) {
	call := len(g.calls)
	g.calls = append(g.calls, fetchCall{offset: offset, limit: limit})

	if call < len(g.errs) && g.errs[call] != nil {
		return nil, g.errs[call]
	}

	end := offset + limit
	if offset > len(g.entries) {
		offset = len(g.entries)
	}
	if end > len(g.entries) {
		end = len(g.entries)
	}
	pageEntries := g.entries[offset:end]
	return &driven.SearchPage{
		Entries:      pageEntries,
		Size:         len(pageEntries),
		TotalMatched: len(g.entries),
	}, nil
}

func pageEntries(n int, firstID int64) []driven.SearchEntry {
	entries := make([]driven.SearchEntry, n)
	for i := range entries {
		entries[i] = driven.SearchEntry{ID: firstID + int64(i), Kind: "page"}
	}
	return entries
}

func noSleepRetrier(t *testing.T) *retry.Controller {
	t.Helper()
	return retry.New(domain.RetryPolicy{
		BackoffFactor:        2,
		MaxBackoff:           time.Second,
		MaxAttempts:          3,
		RetryableStatusCodes: []int{429, 503},
	}).WithSleeper(func(context.Context, time.Duration) error { return nil })
}

func testQuery(limit int) domain.Query {
	return domain.Query{Raw: "space = TEST", Normalised: "(space = TEST) AND type = page", Limit: limit}
}

// TestPaginatedSearch_ThreePages tests 60 matching entries with page
// size 25 and limit 100: three fetches of 25, 25, 10
func TestPaginatedSearch_ThreePages(t *testing.T) {
	g := &mockGateway{entries: pageEntries(60, 1000)}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(100))
	require.NoError(t, err)

	require.Len(t, g.calls, 3)
	assert.Equal(t, fetchCall{offset: 0, limit: 25}, g.calls[0])
	assert.Equal(t, fetchCall{offset: 25, limit: 25}, g.calls[1])
	assert.Equal(t, fetchCall{offset: 50, limit: 25}, g.calls[2])

	assert.Equal(t, 60, result.TotalRetrieved)
	assert.Equal(t, 60, result.TotalMatched)
	assert.Len(t, result.IDs, 60)
}

// TestPaginatedSearch_LimitBoundsRequests tests that the final page
// request shrinks to the remaining budget
func TestPaginatedSearch_LimitBoundsRequests(t *testing.T) {
	g := &mockGateway{entries: pageEntries(200, 1)}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(60))
	require.NoError(t, err)

	require.Len(t, g.calls, 3)
	assert.Equal(t, 10, g.calls[2].limit, "last request asks only for the remainder")
	assert.Equal(t, 60, result.TotalRetrieved)
	assert.LessOrEqual(t, result.TotalRetrieved, 60)
}

// TestPaginatedSearch_DeduplicatesAcrossPages tests that shifted offsets
// between requests cannot produce duplicate identifiers
func TestPaginatedSearch_DeduplicatesAcrossPages(t *testing.T) {
	// Both pages contain ID 1005.
	entries := append(pageEntries(25, 1000), pageEntries(25, 1005)...)
	g := &mockGateway{entries: entries}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(50))
	require.NoError(t, err)

	seen := make(map[int64]bool)
	for i, id := range result.IDs {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
		if i > 0 {
			assert.Greater(t, id, result.IDs[i-1], "ids must be ascending")
		}
	}
	assert.Equal(t, result.TotalRetrieved, len(result.IDs))
	assert.Equal(t, 30, result.TotalRetrieved, "45 of 50 entries overlap on 1005..1024")
}

// TestPaginatedSearch_FiltersNonPageKinds tests defence against API
// widening: only page-kind entries are kept, but the offset still
// advances by the server-reported size
func TestPaginatedSearch_FiltersNonPageKinds(t *testing.T) {
	entries := []driven.SearchEntry{
		{ID: 1, Kind: "page"},
		{ID: 2, Kind: "blogpost"},
		{ID: 3, Kind: "page"},
		{ID: 4, Kind: "attachment"},
		{ID: 5, Kind: "page"},
	}
	g := &mockGateway{entries: entries}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(100))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 5}, result.IDs)
	assert.Equal(t, 3, result.TotalRetrieved)
	assert.Equal(t, 5, result.TotalMatched)
}

// TestPaginatedSearch_EmptyPageStops tests termination on zero results
func TestPaginatedSearch_EmptyPageStops(t *testing.T) {
	g := &mockGateway{}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(100))
	require.NoError(t, err)

	assert.Len(t, g.calls, 1)
	assert.Equal(t, 0, result.TotalRetrieved)
	assert.Empty(t, result.IDs)
}

// TestPaginatedSearch_AllFilteredStops tests termination when a page
// yields zero page-kind entries
func TestPaginatedSearch_AllFilteredStops(t *testing.T) {
	entries := make([]driven.SearchEntry, 50)
	for i := range entries {
		entries[i] = driven.SearchEntry{ID: int64(i), Kind: "comment"}
	}
	g := &mockGateway{entries: entries}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(100))
	require.NoError(t, err)

	assert.Len(t, g.calls, 1, "a fully filtered page terminates the loop")
	assert.Equal(t, 0, result.TotalRetrieved)
}

// TestPaginatedSearch_QuerySyntaxError tests that a malformed query is
// not retried and yields an empty result plus the syntax error
func TestPaginatedSearch_QuerySyntaxError(t *testing.T) {
	g := &mockGateway{
		entries: pageEntries(10, 1),
		errs:    []error{fmt.Errorf("search: %w", domain.ErrQuerySyntax)},
	}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuerySyntax)

	require.NotNil(t, result, "syntax errors return an empty result, not nil")
	assert.Empty(t, result.IDs)
	assert.Len(t, g.calls, 1, "syntax errors must not be retried")
}

// TestPaginatedSearch_TransientErrorRetried tests recovery through the
// retry controller
func TestPaginatedSearch_TransientErrorRetried(t *testing.T) {
	g := &mockGateway{
		entries: pageEntries(10, 1),
		errs:    []error{fmt.Errorf("fetch: %w", domain.ErrRateLimited)},
	}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(100))
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalRetrieved)
	assert.Len(t, g.calls, 2, "one failed attempt plus one retry")
}

// TestPaginatedSearch_AuthErrorSurfaces tests that authentication
// failures surface without retry
func TestPaginatedSearch_AuthErrorSurfaces(t *testing.T) {
	g := &mockGateway{
		entries: pageEntries(10, 1),
		errs:    []error{fmt.Errorf("search: %w", domain.ErrAuthentication)},
	}
	s := NewPaginatedSearch(g, noSleepRetrier(t), 25)

	result, err := s.Search(context.Background(), testQuery(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Nil(t, result)
	assert.Len(t, g.calls, 1)
}
