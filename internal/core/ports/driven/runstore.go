package driven

import (
	"context"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

// RunStore persists run outcomes for operational callers.
// This is the "report run outcome" sink; the pipeline itself never reads
// past runs.
type RunStore interface {
	// Save records a completed (or aborted) run.
	Save(ctx context.Context, outcome domain.RunOutcome) error

	// List returns recorded runs, most recent first, up to limit.
	List(ctx context.Context, limit int) ([]domain.RunOutcome, error)

	// Get returns one recorded run by its ID.
	Get(ctx context.Context, runID string) (*domain.RunOutcome, error)
}
