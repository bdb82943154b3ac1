package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
	"github.com/pagesync-labs/pagesync-cli/internal/retry"
)

// PaginatedSearch retrieves matching page identifiers across paginated,
// rate-limited results while deduplicating. Pagination is sequential:
// each page's offset depends on the prior page's reported count.
type PaginatedSearch struct {
	gateway  driven.SearchGateway
	retrier  *retry.Controller
	pageSize int
}

// NewPaginatedSearch creates a paginated search client. pageSize should
// stay well under the source service's own maximum to avoid silent
// server-side truncation.
func NewPaginatedSearch(gateway driven.SearchGateway, retrier *retry.Controller, pageSize int) *PaginatedSearch {
	if pageSize <= 0 {
		pageSize = domain.DefaultSearchPageSize
	}
	return &PaginatedSearch{gateway: gateway, retrier: retrier, pageSize: pageSize}
}

// Search executes the normalised query and aggregates page identifiers
// into an ordered, duplicate-free set.
//
// A query-syntax error is not retried: an empty SearchResult is returned
// together with an error satisfying errors.Is(err, domain.ErrQuerySyntax).
// Any other unrecoverable error after retries are exhausted surfaces as
// the last error.
func (s *PaginatedSearch) Search(ctx context.Context, query domain.Query) (*domain.SearchResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q, limit %d", query.Normalised, query.Limit)

	ids := domain.NewPageIDSet()
	totalMatched := 0
	start := 0
	batch := 0

	for start < query.Limit {
		want := s.pageSize
		if remaining := query.Limit - start; remaining < want {
			want = remaining
		}

		var page *driven.SearchPage
		_, err := s.retrier.Do(ctx, "search page fetch", func(ctx context.Context) error {
			var ferr error
			page, ferr = s.gateway.Search(ctx, query.Normalised, start, want)
			return ferr
		})
		if err != nil {
			if errors.Is(err, domain.ErrQuerySyntax) {
				logger.Warn("Invalid query syntax: %q", query.Normalised)
				return &domain.SearchResult{Query: query, IDs: []int64{}}, err
			}
			return nil, fmt.Errorf("search at offset %d: %w", start, err)
		}

		batch++
		totalMatched = page.TotalMatched

		// Keep only page-kind entries; the API may widen result kinds.
		kept := 0
		for _, entry := range page.Entries {
			if entry.Kind != "page" {
				continue
			}
			kept++
			ids.Add(entry.ID)
		}
		logger.Debug("Batch %d: %d page entries of %d results", batch, kept, page.Size)

		if page.Size == 0 || kept == 0 {
			break
		}

		// Advance by the server-reported count, not the filtered count,
		// to stay aligned with server-side paging.
		start += page.Size

		if totalMatched > 0 && start >= totalMatched {
			break
		}
	}

	result := &domain.SearchResult{
		Query:          query,
		IDs:            ids.IDs(),
		TotalMatched:   totalMatched,
		TotalRetrieved: ids.Len(),
	}
	logger.Info("Search done: matched %d, retrieved %d unique pages", result.TotalMatched, result.TotalRetrieved)
	return result, nil
}
