package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driving"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
	"github.com/pagesync-labs/pagesync-cli/internal/retry"
)

// fallbackContainerName is used when no exported page reports a space.
const fallbackContainerName = "pagesync"

// ExportOrchestrator wires the pipeline stages together and implements
// the driving ExportService port. Pagination is sequential; the
// per-identifier fetch/enrich/filter stage runs on a bounded worker
// pool; dispatch order follows identifier order regardless of worker
// scheduling.
type ExportOrchestrator struct {
	settings   domain.ExportSettings
	normaliser *QueryNormaliser
	search     *PaginatedSearch
	enricher   *MetadataEnricher
	filter     *AttachmentFilter
	dispatcher Dispatcher
	source     driven.ContentSource
	dest       driven.Destination
	runs       driven.RunStore
	retrier    *retry.Controller
}

var _ driving.ExportService = (*ExportOrchestrator)(nil)

// NewExportOrchestrator builds the pipeline from immutable settings.
// The dispatcher is chosen here, once; nothing downstream branches on
// the upload mode again.
func NewExportOrchestrator(
	settings domain.ExportSettings,
	gateway driven.SearchGateway,
	source driven.ContentSource,
	dest driven.Destination,
	runs driven.RunStore,
) *ExportOrchestrator {
	retrier := retry.New(settings.Retry)

	var dispatcher Dispatcher
	if settings.BatchUpload {
		dispatcher = NewBatchDispatcher(dest, retrier, settings.MaxBatchItems)
	} else {
		dispatcher = NewIndividualDispatcher(dest, retrier)
	}

	return &ExportOrchestrator{
		settings:   settings,
		normaliser: NewQueryNormaliser(),
		search:     NewPaginatedSearch(gateway, retrier, settings.SearchPageSize),
		enricher:   NewMetadataEnricher(settings.SourceBaseURL, settings.MetadataFields),
		filter:     NewAttachmentFilter(settings.AllowedExtensions, settings.MaxAttachmentSize),
		dispatcher: dispatcher,
		source:     source,
		dest:       dest,
		runs:       runs,
		retrier:    retrier,
	}
}

// Statistics describes the configured pipeline.
func (o *ExportOrchestrator) Statistics() driving.ExportStatistics {
	return driving.ExportStatistics{
		BatchUpload:       o.settings.BatchUpload,
		MaxBatchItems:     o.settings.MaxBatchItems,
		Workers:           o.settings.Workers,
		AllowedExtensions: append([]string(nil), o.settings.AllowedExtensions...),
	}
}

// pageBundle is one identifier's collected output: the page upload item,
// its admitted attachments, filter rejections and fetch failures.
type pageBundle struct {
	items      []domain.UploadItem
	rejections []domain.Rejection
	failures   []domain.ItemResult
	err        error // fatal only
}

// RunExport executes one export run. Per-item failures are recorded in
// the outcome and never abort the run; only authentication, query
// construction and destination availability do.
func (o *ExportOrchestrator) RunExport(ctx context.Context, rawQuery string, limit int) (*domain.RunOutcome, error) {
	outcome := &domain.RunOutcome{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger.Section("Export run " + outcome.RunID)

	query := o.normaliser.Normalise(rawQuery, limit)
	outcome.Query = query
	outcome.Warning = query.Warning

	if err := o.dest.Validate(ctx); err != nil {
		o.finish(ctx, outcome)
		if errors.Is(err, domain.ErrAuthentication) {
			return outcome, fmt.Errorf("destination validation: %w", err)
		}
		return outcome, fmt.Errorf("destination validation: %w: %v", domain.ErrDestinationUnavailable, err)
	}

	result, err := o.search.Search(ctx, query)
	if err != nil {
		if result != nil {
			outcome.TotalMatched = result.TotalMatched
			outcome.TotalRetrieved = result.TotalRetrieved
		}
		o.finish(ctx, outcome)
		return outcome, err
	}
	outcome.TotalMatched = result.TotalMatched
	outcome.TotalRetrieved = result.TotalRetrieved

	bundles, err := o.collect(ctx, result.IDs)
	if err != nil {
		o.finish(ctx, outcome)
		return outcome, err
	}

	var items []domain.UploadItem
	containerName := ""
	for _, b := range bundles {
		items = append(items, b.items...)
		outcome.Rejections = append(outcome.Rejections, b.rejections...)
		outcome.Failures = append(outcome.Failures, b.failures...)
		if containerName == "" {
			for _, it := range b.items {
				if it.IsPage() && it.Page.SpaceName != "" {
					containerName = it.Page.SpaceName
					break
				}
			}
		}
	}
	outcome.Rejected = len(outcome.Rejections)

	if len(items) > 0 {
		if containerName == "" {
			containerName = fallbackContainerName
		}
		containerID, err := o.ensureContainer(ctx, containerName, query.Normalised)
		if err != nil {
			o.finish(ctx, outcome)
			return outcome, err
		}
		outcome.ContainerID = containerID
		outcome.ContainerName = containerName

		results, err := o.dispatcher.Dispatch(ctx, containerID, items)
		o.tally(outcome, results)
		if err != nil {
			o.finish(ctx, outcome)
			return outcome, fmt.Errorf("dispatch: %w", err)
		}
	}

	o.finish(ctx, outcome)
	logger.Info("Run %s: %s", outcome.RunID, outcome.Summary())
	return outcome, nil
}

// collect runs the per-identifier fetch/enrich/filter stage on a bounded
// worker pool. Bundles come back indexed by identifier position, so the
// dispatch order is deterministic.
func (o *ExportOrchestrator) collect(ctx context.Context, ids []int64) ([]pageBundle, error) {
	bundles := make([]pageBundle, len(ids))
	sem := make(chan struct{}, o.settings.Workers)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id int64) {
			defer wg.Done()
			defer func() { <-sem }()
			bundles[i] = o.collectOne(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for _, b := range bundles {
		if b.err != nil {
			return nil, b.err
		}
	}
	return bundles, nil
}

// collectOne exports a single identifier: fetch, enrich, filter, render.
func (o *ExportOrchestrator) collectOne(ctx context.Context, id int64) pageBundle {
	var raw *domain.RawPage
	attempts, err := o.retrier.Do(ctx, fmt.Sprintf("fetch page %d", id), func(ctx context.Context) error {
		var ferr error
		raw, ferr = o.source.GetPage(ctx, id)
		return ferr
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return pageBundle{err: fmt.Errorf("fetch page %d: %w", id, err)}
		}
		logger.Warn("Fetching page %d failed: %v", id, err)
		return pageBundle{failures: []domain.ItemResult{{
			Name:     fmt.Sprintf("page %d", id),
			State:    failureState(err),
			Attempts: attempts,
			Err:      err,
		}}}
	}

	page, attachments := o.enricher.Enrich(raw)
	admitted, rejections := o.filter.Filter(attachments)

	bundle := pageBundle{rejections: rejections}
	bundle.items = append(bundle.items, domain.UploadItem{
		Page:      page,
		Filename:  SafeFilename(page.Title, ".md"),
		MediaType: "text/markdown",
		Content:   o.enricher.RenderPage(page, raw.Body),
	})

	for i := range admitted {
		att := admitted[i]
		content, dlAttempts, dlErr := o.download(ctx, att.SourceURL)
		if dlErr != nil {
			if errors.Is(dlErr, domain.ErrAuthentication) {
				return pageBundle{err: fmt.Errorf("download %q: %w", att.Filename, dlErr)}
			}
			logger.Warn("Downloading %q failed: %v", att.Filename, dlErr)
			bundle.failures = append(bundle.failures, domain.ItemResult{
				Name:     att.Filename,
				State:    failureState(dlErr),
				Attempts: dlAttempts,
				Err:      dlErr,
			})
			continue
		}
		bundle.items = append(bundle.items, domain.UploadItem{
			Attachment: &att,
			Filename:   SafeFilename(att.Filename, ""),
			MediaType:  att.MediaType,
			Content:    content,
		})
	}
	return bundle
}

func (o *ExportOrchestrator) download(ctx context.Context, url string) ([]byte, int, error) {
	var content []byte
	attempts, err := o.retrier.Do(ctx, "download attachment", func(ctx context.Context) error {
		var derr error
		content, derr = o.source.DownloadAttachment(ctx, url)
		return derr
	})
	return content, attempts, err
}

func (o *ExportOrchestrator) ensureContainer(ctx context.Context, name, description string) (string, error) {
	var containerID string
	_, err := o.retrier.Do(ctx, fmt.Sprintf("ensure container %q", name), func(ctx context.Context) error {
		var cerr error
		containerID, cerr = o.dest.EnsureContainer(ctx, name, "Synced from query: "+description)
		return cerr
	})
	if err != nil {
		return "", fmt.Errorf("ensure container %q: %w", name, err)
	}
	logger.Debug("Using container %q (%s)", name, containerID)
	return containerID, nil
}

// tally folds dispatch results into the run counts.
func (o *ExportOrchestrator) tally(outcome *domain.RunOutcome, results []domain.ItemResult) {
	for _, res := range results {
		switch {
		case !res.State.Terminal():
			// An aborted dispatch leaves trailing items pending; they
			// count as neither uploaded nor failed.
		case res.State == domain.ItemSucceeded:
			outcome.Uploaded++
		case res.State == domain.ItemSkipped:
			outcome.Skipped++
		default:
			outcome.Failures = append(outcome.Failures, res)
		}
	}
	outcome.Failed = len(outcome.Failures)
}

// finish stamps the outcome and records it. Run history is best-effort:
// a failed save never fails the run.
func (o *ExportOrchestrator) finish(ctx context.Context, outcome *domain.RunOutcome) {
	outcome.FinishedAt = time.Now().UTC()
	outcome.Failed = len(outcome.Failures)
	if o.runs == nil {
		return
	}
	if err := o.runs.Save(ctx, *outcome); err != nil {
		logger.Warn("Recording run %s failed: %v", outcome.RunID, err)
	}
}

// failureState maps a terminal fetch/download error to an item state.
func failureState(err error) domain.ItemState {
	if retry.IsExhausted(err) {
		return domain.ItemFailedRetryable
	}
	return domain.ItemFailedFatal
}

// RunHistoryService exposes recorded runs through the driving port.
type RunHistoryService struct {
	runs driven.RunStore
}

var _ driving.RunHistory = (*RunHistoryService)(nil)

// NewRunHistoryService creates the run-history facade.
func NewRunHistoryService(runs driven.RunStore) *RunHistoryService {
	return &RunHistoryService{runs: runs}
}

// Runs returns recorded outcomes, most recent first.
func (s *RunHistoryService) Runs(ctx context.Context, limit int) ([]domain.RunOutcome, error) {
	return s.runs.List(ctx, limit)
}
