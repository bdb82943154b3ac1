package domain

import (
	"fmt"
	"time"
)

// Defaults for export settings. Page size stays well under the source
// service's own maximum to avoid silent server-side truncation.
const (
	DefaultSearchPageSize    = 25
	DefaultMaxBatchItems     = 20
	DefaultMaxAttachmentSize = 10 << 20 // 10 MB
	DefaultRequestTimeout    = 30 * time.Second
	DefaultWorkers           = 4
)

// DefaultAllowedExtensions mirrors the text-oriented formats the
// destination service indexes well.
var DefaultAllowedExtensions = []string{"txt", "md", "json", "yaml", "yml", "csv", "pdf"}

// DefaultMetadataFields selects which provenance fields are emitted into
// uploaded front matter.
var DefaultMetadataFields = []string{
	"title", "space", "authors", "created", "updated", "ancestors", "labels", "version", "url",
}

// ExportSettings is the immutable per-run configuration passed to every
// component at construction. No component reads process-wide mutable state.
type ExportSettings struct {
	// SourceBaseURL is the source wiki's API base URL.
	SourceBaseURL string

	// SourceToken authenticates against the source wiki.
	SourceToken string

	// DestinationBaseURL is the knowledge-base service's base URL.
	DestinationBaseURL string

	// DestinationAPIKey authenticates against the destination service.
	DestinationAPIKey string

	// SearchPageSize is the fixed page size for search pagination.
	SearchPageSize int

	// AllowedExtensions is the attachment extension allow-list,
	// matched case-insensitively and without a leading dot.
	AllowedExtensions []string

	// MaxAttachmentSize is the attachment size ceiling in bytes.
	MaxAttachmentSize int64

	// BatchUpload selects the batched dispatcher when true,
	// the individual dispatcher otherwise.
	BatchUpload bool

	// MaxBatchItems bounds one upload batch.
	MaxBatchItems int

	// RequestTimeout bounds every network call, independently of the
	// retry attempt budget.
	RequestTimeout time.Duration

	// Retry is the retry/backoff policy for network operations.
	Retry RetryPolicy

	// MetadataFields selects the provenance fields emitted on upload.
	MetadataFields []string

	// Workers bounds the per-identifier export worker pool.
	Workers int
}

// DefaultExportSettings returns settings with all tunables at their
// defaults. Endpoints and credentials must still be provided.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		SearchPageSize:    DefaultSearchPageSize,
		AllowedExtensions: append([]string(nil), DefaultAllowedExtensions...),
		MaxAttachmentSize: DefaultMaxAttachmentSize,
		BatchUpload:       true,
		MaxBatchItems:     DefaultMaxBatchItems,
		RequestTimeout:    DefaultRequestTimeout,
		Retry:             DefaultRetryPolicy(),
		MetadataFields:    append([]string(nil), DefaultMetadataFields...),
		Workers:           DefaultWorkers,
	}
}

// Validate checks that the settings can drive a run.
func (s ExportSettings) Validate() error {
	if s.SourceBaseURL == "" {
		return fmt.Errorf("%w: source base URL is required", ErrInvalidInput)
	}
	if s.DestinationBaseURL == "" {
		return fmt.Errorf("%w: destination base URL is required", ErrInvalidInput)
	}
	if s.SearchPageSize <= 0 {
		return fmt.Errorf("%w: search page size must be positive", ErrInvalidInput)
	}
	if s.MaxBatchItems <= 0 {
		return fmt.Errorf("%w: max batch items must be positive", ErrInvalidInput)
	}
	if s.MaxAttachmentSize <= 0 {
		return fmt.Errorf("%w: max attachment size must be positive", ErrInvalidInput)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidInput)
	}
	if s.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry attempts must be positive", ErrInvalidInput)
	}
	return nil
}
