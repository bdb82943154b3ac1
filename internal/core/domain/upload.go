package domain

import "fmt"

// ItemState tracks a single artifact through the upload state machine:
// Pending → InFlight → {Succeeded, Skipped, FailedRetryable, FailedFatal}.
type ItemState string

// Upload item states.
const (
	ItemPending   ItemState = "pending"
	ItemInFlight  ItemState = "in_flight"
	ItemSucceeded ItemState = "succeeded"

	// ItemSkipped means the destination already holds identical content.
	// Treated as success for run accounting, but counted separately.
	ItemSkipped ItemState = "skipped"

	// ItemFailedRetryable means the retry budget was exhausted on a
	// transient failure ("gave up after N attempts").
	ItemFailedRetryable ItemState = "failed_retryable"

	// ItemFailedFatal means the destination rejected the item outright
	// (payload too large, unsupported type). Not retried.
	ItemFailedFatal ItemState = "failed_fatal"
)

// Terminal reports whether the state is an end state.
func (s ItemState) Terminal() bool {
	switch s {
	case ItemSucceeded, ItemSkipped, ItemFailedRetryable, ItemFailedFatal:
		return true
	default:
		return false
	}
}

// BatchState is the aggregate outcome of one dispatched UploadBatch,
// derived from its per-item results.
type BatchState string

// Batch outcomes.
const (
	BatchSucceeded BatchState = "succeeded"

	// BatchPartiallySucceeded reports per-item outcomes so the caller can
	// retry only the failed items individually.
	BatchPartiallySucceeded BatchState = "partially_succeeded"
	BatchFailed             BatchState = "failed"
)

// UploadItem is either a page or an attachment artifact queued for upload.
// Exactly one of Page and Attachment is non-nil.
type UploadItem struct {
	Page       *PageArtifact
	Attachment *AttachmentArtifact

	// Filename is the destination-safe file name for this item.
	Filename string

	// MediaType is the MIME type sent to the destination.
	MediaType string

	// Content is the enriched payload to upload.
	Content []byte
}

// Name returns a human-readable identifier for logging and outcomes.
func (i UploadItem) Name() string {
	if i.Filename != "" {
		return i.Filename
	}
	if i.Page != nil {
		return i.Page.Title
	}
	if i.Attachment != nil {
		return i.Attachment.Filename
	}
	return "unknown"
}

// IsPage reports whether the item carries a page artifact.
func (i UploadItem) IsPage() bool {
	return i.Page != nil
}

// UploadBatch is a bounded group of artifacts dispatched together.
// Invariant: len(Items) <= MaxItems. Item order within the batch is
// preserved as enqueued.
type UploadBatch struct {
	Items         []UploadItem
	DestinationID string
	MaxItems      int
}

// Validate checks the batch size bound.
func (b UploadBatch) Validate() error {
	if b.MaxItems > 0 && len(b.Items) > b.MaxItems {
		return fmt.Errorf("%w: batch holds %d items, max %d", ErrInvalidInput, len(b.Items), b.MaxItems)
	}
	return nil
}

// ItemResult is the terminal outcome for one uploaded item.
type ItemResult struct {
	// Name identifies the item (destination filename).
	Name string

	// State is the terminal item state.
	State ItemState

	// Attempts is how many upload attempts were made.
	Attempts int

	// FileID is the destination file identifier on success.
	FileID string

	// Err holds the terminal error for failed states.
	Err error
}

// BatchResult is the outcome of dispatching one batch.
type BatchResult struct {
	State BatchState
	Items []ItemResult
}

// ResolveBatchState derives the batch state from per-item outcomes.
func ResolveBatchState(items []ItemResult) BatchState {
	var ok, failed int
	for _, it := range items {
		switch it.State {
		case ItemSucceeded, ItemSkipped:
			ok++
		case ItemFailedRetryable, ItemFailedFatal:
			failed++
		}
	}
	switch {
	case failed == 0:
		return BatchSucceeded
	case ok == 0:
		return BatchFailed
	default:
		return BatchPartiallySucceeded
	}
}
