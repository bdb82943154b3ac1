// Package retry wraps single network operations with bounded exponential
// backoff. Both the search client and the upload dispatchers consult it.
//
// Classification: failures carrying an HTTP status are retried only when
// the status is in the policy's retryable set. Authentication, query
// syntax and destination-rejection failures fail immediately without
// consuming further attempts. Exhausting the attempt budget yields an
// *ExhaustedError, distinguishable from a fatal classification so callers
// can report "gave up after N attempts" distinctly from "rejected outright".
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

// Sleeper suspends between attempts. The default sleeps on the real
// clock; tests inject a recorder.
type Sleeper func(ctx context.Context, d time.Duration) error

// ExhaustedError means the retry budget ran out on a transient failure.
type ExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// IsExhausted reports whether err is a retryable-exhausted failure.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// Controller applies one RetryPolicy to network operations.
// Immutable after construction; safe for concurrent use.
type Controller struct {
	policy domain.RetryPolicy
	sleep  Sleeper
}

// New creates a controller sleeping on the real clock.
func New(policy domain.RetryPolicy) *Controller {
	return &Controller{
		policy: policy,
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
}

// WithSleeper returns a controller using the given sleeper. For tests.
func (c *Controller) WithSleeper(s Sleeper) *Controller {
	return &Controller{policy: c.policy, sleep: s}
}

// Do runs fn until it succeeds, fails fatally, or the attempt budget is
// exhausted. It returns the number of attempts made. A timeout of one
// attempt counts as one failed attempt, not as extra grace.
func (c *Controller) Do(ctx context.Context, op string, fn func(ctx context.Context) error) (int, error) {
	var last error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		last = err

		if !c.retryable(ctx, err) {
			return attempt, err
		}
		if attempt == c.policy.MaxAttempts {
			break
		}

		d := c.policy.Backoff(attempt)
		logger.Debug("%s failed (attempt %d/%d), retrying in %s: %v",
			op, attempt, c.policy.MaxAttempts, d, err)
		if serr := c.sleep(ctx, d); serr != nil {
			return attempt, serr
		}
	}
	return c.policy.MaxAttempts, &ExhaustedError{Op: op, Attempts: c.policy.MaxAttempts, Last: last}
}

// retryable classifies a failure. Fatal classes never consume further
// attempts; unknown errors are treated as fatal rather than hammering a
// broken endpoint.
func (c *Controller) retryable(ctx context.Context, err error) bool {
	switch {
	case errors.Is(err, domain.ErrAuthentication),
		errors.Is(err, domain.ErrQuerySyntax),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUploadFatal):
		return false
	case errors.Is(err, domain.ErrRateLimited):
		return true
	}

	// An http.Client per-request timeout also satisfies
	// errors.Is(err, context.DeadlineExceeded), so cancellation is fatal
	// only when the run context itself is done. A timed-out attempt
	// falls through to the timeout classification below.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if ctx.Err() != nil {
			return false
		}
	}

	var se interface{ HTTPStatus() int }
	if errors.As(err, &se) {
		return c.policy.Retryable(se.HTTPStatus())
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	return false
}
