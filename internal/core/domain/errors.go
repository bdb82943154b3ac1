package domain

import "errors"

// Domain errors represent pipeline failures.
// Fatal classes abort the run; everything else is recorded per item and
// the run completes with non-zero failure counts.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQuerySyntax indicates the source service rejected the query as
	// malformed. Not retryable; the search returns an empty result.
	ErrQuerySyntax = errors.New("query syntax error")

	// ErrAuthentication indicates credentials were rejected.
	// Fatal: aborts the remaining run immediately.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimited indicates the remote service throttled the request.
	// Retryable per policy.
	ErrRateLimited = errors.New("rate limited")

	// ErrUploadFatal indicates the destination rejected an item outright,
	// independent of the local attachment filter. Per-item, never aborts
	// the run.
	ErrUploadFatal = errors.New("upload rejected by destination")

	// ErrDestinationUnavailable indicates the destination service failed
	// its connection check before the run started.
	ErrDestinationUnavailable = errors.New("destination service unavailable")
)

// RejectReason classifies a local attachment filter rejection.
// Rejections are recorded in the run outcome, never raised.
type RejectReason string

// Attachment rejection reasons. When a file fails both checks the
// extension is reported as the primary cause.
const (
	RejectExtension RejectReason = "extension not allowed"
	RejectSize      RejectReason = "size limit exceeded"
)

// Rejection records one filtered-out attachment.
type Rejection struct {
	Filename string
	Reason   RejectReason
}
