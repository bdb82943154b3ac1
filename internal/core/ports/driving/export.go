package driving

import (
	"context"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

// ExportService runs the search-normalize-paginate-export-upload pipeline.
type ExportService interface {
	// RunExport executes one export run for the raw query.
	// The outcome always carries matched/retrieved/uploaded/skipped/
	// rejected/failed counts; an error is returned only for fatal
	// classes (authentication, query construction, destination down).
	RunExport(ctx context.Context, query string, limit int) (*domain.RunOutcome, error)

	// Statistics describes the configured pipeline.
	Statistics() ExportStatistics
}

// ExportStatistics describes the pipeline configuration for display.
type ExportStatistics struct {
	// BatchUpload reports which dispatcher is configured.
	BatchUpload bool

	// MaxBatchItems bounds one upload batch.
	MaxBatchItems int

	// Workers bounds the per-identifier worker pool.
	Workers int

	// AllowedExtensions is the attachment allow-list in effect.
	AllowedExtensions []string
}

// RunHistory exposes recorded run outcomes to operational callers.
type RunHistory interface {
	// Runs returns recorded outcomes, most recent first, up to limit.
	Runs(ctx context.Context, limit int) ([]domain.RunOutcome, error)
}
