package driven

import (
	"context"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

// UploadOutcome is the destination's verdict on one uploaded item.
type UploadOutcome struct {
	// FileID is the destination file identifier on success.
	FileID string

	// Duplicate means the destination already holds identical content.
	// The item is skipped, not failed.
	Duplicate bool

	// Err is the per-item failure inside an otherwise delivered batch.
	// Nil for single-item uploads, which report failure via the call error.
	Err error
}

// Destination is the knowledge-base service receiving uploads.
// Implementations perform single requests; retry, batching and state
// tracking belong to the core dispatchers.
type Destination interface {
	// Validate checks connectivity and credentials. An authentication
	// failure satisfies errors.Is(err, domain.ErrAuthentication).
	Validate(ctx context.Context) error

	// EnsureContainer returns the identifier of the named container,
	// creating it when absent.
	EnsureContainer(ctx context.Context, name, description string) (string, error)

	// UploadItem uploads one artifact into the container.
	// A destination-side rejection (payload size/type) satisfies
	// errors.Is(err, domain.ErrUploadFatal).
	UploadItem(ctx context.Context, containerID string, item domain.UploadItem) (*UploadOutcome, error)

	// UploadBatch uploads a bounded group of artifacts and reports a
	// per-item outcome sequence, index-aligned with batch.Items.
	// A transport-level error fails the whole batch.
	UploadBatch(ctx context.Context, batch domain.UploadBatch) ([]UploadOutcome, error)
}
