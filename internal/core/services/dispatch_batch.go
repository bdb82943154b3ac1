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

// BatchDispatcher groups items into bounded batches and delivers each
// batch in one request. A partially successful batch keeps its succeeded
// items and retries only the failed ones individually.
type BatchDispatcher struct {
	dest       driven.Destination
	retrier    *retry.Controller
	maxItems   int
	individual *IndividualDispatcher
}

// NewBatchDispatcher creates a batched dispatcher. maxItems bounds one
// batch; individual retries of failed batch items reuse the same retry
// policy.
func NewBatchDispatcher(dest driven.Destination, retrier *retry.Controller, maxItems int) *BatchDispatcher {
	if maxItems <= 0 {
		maxItems = domain.DefaultMaxBatchItems
	}
	return &BatchDispatcher{
		dest:       dest,
		retrier:    retrier,
		maxItems:   maxItems,
		individual: NewIndividualDispatcher(dest, retrier),
	}
}

// Dispatch delivers the items batch by batch. Batch order and item order
// within a batch follow the input.
func (d *BatchDispatcher) Dispatch(ctx context.Context, containerID string, items []domain.UploadItem) ([]domain.ItemResult, error) {
	results := make([]domain.ItemResult, 0, len(items))

	for start := 0; start < len(items); start += d.maxItems {
		end := start + d.maxItems
		if end > len(items) {
			end = len(items)
		}
		batch := domain.UploadBatch{
			Items:         items[start:end],
			DestinationID: containerID,
			MaxItems:      d.maxItems,
		}

		br, err := d.dispatchBatch(ctx, batch)
		results = append(results, br.Items...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// dispatchBatch delivers one batch and resolves its aggregate outcome.
// Failed items from a delivered batch, and every item of an undelivered
// batch, fall back to individual upload.
func (d *BatchDispatcher) dispatchBatch(ctx context.Context, batch domain.UploadBatch) (domain.BatchResult, error) {
	if err := batch.Validate(); err != nil {
		return domain.BatchResult{State: domain.BatchFailed}, err
	}

	var outcomes []driven.UploadOutcome
	attempts, err := d.retrier.Do(ctx, fmt.Sprintf("upload batch of %d", len(batch.Items)), func(ctx context.Context) error {
		var berr error
		outcomes, berr = d.dest.UploadBatch(ctx, batch)
		return berr
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return domain.BatchResult{State: domain.BatchFailed}, fmt.Errorf("upload batch: %w", err)
		}
		// The whole batch failed to deliver. Salvage what we can item
		// by item rather than failing every item on a batch-level fault.
		logger.Warn("Batch of %d failed after %d attempts, retrying items individually: %v",
			len(batch.Items), attempts, err)
		salvaged, ierr := d.individual.Dispatch(ctx, batch.DestinationID, batch.Items)
		return domain.BatchResult{State: domain.ResolveBatchState(salvaged), Items: salvaged}, ierr
	}

	results := make([]domain.ItemResult, len(batch.Items))
	var retryItems []domain.UploadItem
	var retryIdx []int
	for i, item := range batch.Items {
		outcome := driven.UploadOutcome{}
		if i < len(outcomes) {
			outcome = outcomes[i]
		}
		switch {
		case outcome.Err == nil && outcome.Duplicate:
			results[i] = domain.ItemResult{Name: item.Name(), State: domain.ItemSkipped, Attempts: attempts}
		case outcome.Err == nil:
			results[i] = domain.ItemResult{Name: item.Name(), State: domain.ItemSucceeded, Attempts: attempts, FileID: outcome.FileID}
		default:
			retryItems = append(retryItems, item)
			retryIdx = append(retryIdx, i)
		}
	}

	if len(retryItems) > 0 {
		logger.Debug("Batch partially succeeded: retrying %d of %d items individually",
			len(retryItems), len(batch.Items))
		retried, err := d.individual.Dispatch(ctx, batch.DestinationID, retryItems)
		for i, res := range retried {
			results[retryIdx[i]] = res
		}
		if err != nil {
			// Items past the aborted retry never reached a terminal state.
			for _, idx := range retryIdx[len(retried):] {
				results[idx] = domain.ItemResult{Name: batch.Items[idx].Name(), State: domain.ItemPending}
			}
			return domain.BatchResult{State: domain.ResolveBatchState(results), Items: results}, err
		}
	}

	br := domain.BatchResult{State: domain.ResolveBatchState(results), Items: results}
	logger.Debug("Batch of %d done: %s", len(batch.Items), br.State)
	return br, nil
}
