package driven

import (
	"context"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

// ContentSource fetches content units from the source system.
// Implementations perform single requests; retries belong to the core.
type ContentSource interface {
	// GetPage fetches one page with its metadata and attachment listing.
	GetPage(ctx context.Context, id int64) (*domain.RawPage, error)

	// DownloadAttachment fetches attachment content by its download URL.
	DownloadAttachment(ctx context.Context, url string) ([]byte, error)
}
