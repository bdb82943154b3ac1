// Package memory provides in-memory implementations of driven port
// interfaces, useful for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunOutcome
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.RunOutcome),
	}
}

// Save records a completed (or aborted) run.
func (s *RunStore) Save(_ context.Context, outcome domain.RunOutcome) error {
	if outcome.RunID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[outcome.RunID] = outcome
	return nil
}

// List returns recorded runs, most recent first, up to limit.
func (s *RunStore) List(_ context.Context, limit int) ([]domain.RunOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcomes := make([]domain.RunOutcome, 0, len(s.runs))
	for _, o := range s.runs {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].StartedAt.Equal(outcomes[j].StartedAt) {
			return outcomes[i].RunID < outcomes[j].RunID
		}
		return outcomes[i].StartedAt.After(outcomes[j].StartedAt)
	})

	if limit > 0 && len(outcomes) > limit {
		outcomes = outcomes[:limit]
	}
	return outcomes, nil
}

// Get returns one recorded run by its ID.
func (s *RunStore) Get(_ context.Context, runID string) (*domain.RunOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcome, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &outcome, nil
}
