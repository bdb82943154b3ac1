package confluence

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

// RateLimitError means Confluence throttled the request (HTTP 429).
type RateLimitError struct {
	RetryAfter time.Time
	URL        string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter.IsZero() {
		return "confluence: rate limit exceeded"
	}
	return fmt.Sprintf("confluence: rate limit exceeded, retry after %s", e.RetryAfter.Format(time.RFC3339))
}

// Unwrap ties the error into the domain taxonomy so the retry
// controller classifies it as transient.
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// APIError is a non-2xx Confluence API response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// HTTPStatus exposes the status code for policy-based retry
// classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Unwrap maps well-known statuses onto domain sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthentication
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	default:
		return nil
	}
}

// IsBadRequest reports whether the error is an HTTP 400 response.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}
