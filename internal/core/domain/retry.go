package domain

import "time"

// RetryPolicy bounds retries of a single network operation.
// Loaded once per run and immutable thereafter.
type RetryPolicy struct {
	// BackoffFactor is the base of the exponential backoff.
	// Sleep before attempt n+1 is BackoffFactor^n seconds.
	BackoffFactor float64

	// MaxBackoff caps a single backoff sleep.
	MaxBackoff time.Duration

	// MaxAttempts is the total attempt budget, first attempt included.
	MaxAttempts int

	// RetryableStatusCodes are HTTP statuses worth retrying
	// (rate limiting, gateway and service-unavailable classes).
	RetryableStatusCodes []int
}

// DefaultRetryPolicy mirrors the destination client defaults:
// three attempts, doubling backoff, server-error statuses retryable.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BackoffFactor:        2,
		MaxBackoff:           30 * time.Second,
		MaxAttempts:          3,
		RetryableStatusCodes: []int{429, 500, 502, 503, 504},
	}
}

// Retryable reports whether status is in the retryable set.
func (p RetryPolicy) Retryable(status int) bool {
	for _, s := range p.RetryableStatusCodes {
		if s == status {
			return true
		}
	}
	return false
}

// Backoff returns the sleep before the next attempt, where attempt is
// 1-based (attempt 1 just failed). Non-decreasing up to MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	secs := 1.0
	for i := 0; i < attempt; i++ {
		secs *= p.BackoffFactor
	}
	d := time.Duration(secs * float64(time.Second))
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
