package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
	"github.com/pagesync-labs/pagesync-cli/internal/retry"
)

// Dispatcher delivers prepared upload items to the destination. The
// implementation is chosen once at configuration time; callers never
// branch on the upload mode.
//
// Dispatch returns a terminal ItemResult per input item, in input order.
// A non-nil error means the run must abort (authentication failure);
// per-item failures are reported in the results, never as an error.
type Dispatcher interface {
	Dispatch(ctx context.Context, containerID string, items []domain.UploadItem) ([]domain.ItemResult, error)
}

// IndividualDispatcher uploads one item per request, driving each item
// through Pending → InFlight → terminal state.
type IndividualDispatcher struct {
	dest    driven.Destination
	retrier *retry.Controller
}

// NewIndividualDispatcher creates a per-item dispatcher.
func NewIndividualDispatcher(dest driven.Destination, retrier *retry.Controller) *IndividualDispatcher {
	return &IndividualDispatcher{dest: dest, retrier: retrier}
}

// Dispatch uploads the items sequentially. A fatal per-item failure is
// recorded and the remaining items still upload.
func (d *IndividualDispatcher) Dispatch(ctx context.Context, containerID string, items []domain.UploadItem) ([]domain.ItemResult, error) {
	results := make([]domain.ItemResult, 0, len(items))
	for _, item := range items {
		res := d.dispatchOne(ctx, containerID, item)
		results = append(results, res)
		if res.Err != nil && errors.Is(res.Err, domain.ErrAuthentication) {
			return results, fmt.Errorf("upload %q: %w", item.Name(), res.Err)
		}
	}
	return results, nil
}

func (d *IndividualDispatcher) dispatchOne(ctx context.Context, containerID string, item domain.UploadItem) domain.ItemResult {
	res := domain.ItemResult{Name: item.Name(), State: domain.ItemInFlight}

	var outcome *driven.UploadOutcome
	attempts, err := d.retrier.Do(ctx, fmt.Sprintf("upload %q", item.Name()), func(ctx context.Context) error {
		var uerr error
		outcome, uerr = d.dest.UploadItem(ctx, containerID, item)
		return uerr
	})
	res.Attempts = attempts

	switch {
	case err == nil && outcome.Duplicate:
		res.State = domain.ItemSkipped
		logger.Debug("Skipped %q: destination already holds identical content", item.Name())
	case err == nil:
		res.State = domain.ItemSucceeded
		res.FileID = outcome.FileID
	case retry.IsExhausted(err):
		res.State = domain.ItemFailedRetryable
		res.Err = err
		logger.Warn("Upload %q failed: %v", item.Name(), err)
	default:
		res.State = domain.ItemFailedFatal
		res.Err = err
		logger.Warn("Upload %q rejected: %v", item.Name(), err)
	}
	return res
}
