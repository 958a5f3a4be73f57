// Package pipeline orchestrates one ingestion run: fetch, dedupe, classify,
// filter, download, store, catalog.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/harwoodm/atheneum/internal/filter"
	"github.com/harwoodm/atheneum/internal/ingest"
	"github.com/harwoodm/atheneum/internal/metrics"
	"github.com/harwoodm/atheneum/internal/pdf"
)

// Outcome labels used for per-book metrics.
const (
	outcomeAdded   = "added"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// Deps wires the collaborators of a Runner. All fields except Logger are
// required.
type Deps struct {
	Source     ingest.Source
	Classifier ingest.Classifier
	Filters    *filter.Engine
	Fetcher    ingest.PDFFetcher
	Blobs      ingest.BlobStore
	Catalog    ingest.CatalogStore
	JobLog     ingest.JobLogStore
	Publisher  ingest.Publisher
	Clock      ingest.Clock
	IDs        ingest.IDGenerator
	Logger     *zap.Logger

	// Topic receives a run-completion event after every non-dry run.
	Topic string
}

// RunOptions parameterizes one ingestion run.
type RunOptions struct {
	DryRun   bool
	Pages    int
	PageSize int
	Filters  ingest.FilterConfig
}

// Runner executes ingestion runs. Each book reaches exactly one of four
// outcomes: added, skipped, filtered, or failed.
type Runner struct {
	deps Deps
}

// NewRunner validates deps and builds a Runner.
func NewRunner(deps Deps) (*Runner, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("source is required")
	case deps.Classifier == nil:
		return nil, fmt.Errorf("classifier is required")
	case deps.Filters == nil:
		return nil, fmt.Errorf("filter engine is required")
	case deps.Fetcher == nil:
		return nil, fmt.Errorf("pdf fetcher is required")
	case deps.Blobs == nil:
		return nil, fmt.Errorf("blob store is required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog store is required")
	case deps.JobLog == nil:
		return nil, fmt.Errorf("job log store is required")
	case deps.Publisher == nil:
		return nil, fmt.Errorf("publisher is required")
	case deps.Clock == nil:
		return nil, fmt.Errorf("clock is required")
	case deps.IDs == nil:
		return nil, fmt.Errorf("id generator is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{deps: deps}, nil
}

// Run executes one ingestion run and returns its result. Per-book failures
// never abort the run; only an unusable job ID does.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (ingest.JobResult, error) {
	if opts.Pages <= 0 {
		opts.Pages = 1
	}

	jobID, err := r.deps.IDs.NewID()
	if err != nil {
		return ingest.JobResult{}, fmt.Errorf("generate job id: %w", err)
	}

	result := ingest.JobResult{
		JobID:     jobID,
		DryRun:    opts.DryRun,
		StartedAt: r.deps.Clock.Now().UTC(),
	}
	logger := r.deps.Logger.With(
		zap.String("job_id", jobID),
		zap.Bool("dry_run", opts.DryRun),
	)
	logger.Info("ingestion run started",
		zap.Int("pages", opts.Pages),
		zap.Int("page_size", opts.PageSize),
	)

	for page := 1; page <= opts.Pages; page++ {
		books, err := r.deps.Source.FetchBatch(ctx, ingest.PageOptions{Page: page, PageSize: opts.PageSize})
		if err != nil {
			logger.Error("batch fetch failed", zap.Int("page", page), zap.Error(err))
			result.Errors = append(result.Errors, ingest.JobError{
				Identifier: fmt.Sprintf("page-%d", page),
				Error:      fmt.Sprintf("fetch batch: %v", err),
				Timestamp:  r.deps.Clock.Now().UTC(),
			})
			continue
		}
		for _, book := range books {
			r.processBook(ctx, logger, book, opts, &result)
		}
	}

	result.CompletedAt = r.deps.Clock.Now().UTC()
	result.Status = finalStatus(result)
	metrics.ObserveJobStatus(string(result.Status))
	logger.Info("ingestion run finished",
		zap.String("status", string(result.Status)),
		zap.Int("processed", result.Counters.Processed),
		zap.Int("added", result.Counters.Added),
		zap.Int("skipped", result.Counters.Skipped),
		zap.Int("filtered", result.Counters.Filtered),
		zap.Int("failed", result.Counters.Failed),
	)

	if !opts.DryRun {
		if err := r.deps.JobLog.Append(ctx, result); err != nil {
			logger.Error("job log append failed", zap.Error(err))
		}
		if _, err := r.deps.Publisher.Publish(ctx, r.deps.Topic, result); err != nil {
			logger.Warn("completion event publish failed", zap.Error(err))
		}
	}
	return result, nil
}

// processBook moves one book through the pipeline, updating exactly one
// outcome counter.
func (r *Runner) processBook(ctx context.Context, logger *zap.Logger, book ingest.BookMetadata, opts RunOptions, result *ingest.JobResult) {
	result.Counters.Processed++
	source := r.deps.Source.Name()

	exists, err := r.deps.Catalog.Exists(ctx, source, book.Identifier)
	if err != nil {
		r.fail(logger, result, book.Identifier, fmt.Errorf("check existence: %w", err))
		return
	}
	if exists {
		result.Counters.Skipped++
		metrics.ObserveBookOutcome(outcomeSkipped)
		logger.Debug("book already cataloged", zap.String("identifier", book.Identifier))
		return
	}

	classification := r.classify(ctx, logger, book)

	decision := r.deps.Filters.Apply(filter.Candidate{
		Identifier: book.Identifier,
		Title:      book.Title,
		Author:     book.Creator,
		Genres:     classification.Genres,
	}, opts.Filters)
	if !decision.Passed {
		result.Counters.Filtered++
		switch decision.Result {
		case ingest.FilterRejectedGenre:
			result.Counters.FilteredByGenre++
		case ingest.FilterRejectedAuthor:
			result.Counters.FilteredByAuthor++
		}
		metrics.ObserveBookOutcome(string(decision.Result))
		logger.Info("book filtered",
			zap.String("identifier", book.Identifier),
			zap.String("reason", decision.Reason),
		)
		return
	}

	if opts.DryRun {
		result.Counters.Added++
		metrics.ObserveBookOutcome(outcomeAdded)
		logger.Info("book would be added",
			zap.String("identifier", book.Identifier),
			zap.Strings("genres", classification.Genres),
		)
		return
	}

	body, err := r.deps.Fetcher.Fetch(ctx, r.deps.Source.DownloadURL(book.Identifier))
	if err != nil {
		r.fail(logger, result, book.Identifier, err)
		return
	}

	name, err := pdf.SanitizeFilename(book.Identifier)
	if err != nil {
		r.fail(logger, result, book.Identifier, err)
		return
	}
	pdfURL, err := r.deps.Blobs.Upload(ctx, source+"/"+name+".pdf", body)
	if err != nil {
		r.fail(logger, result, book.Identifier, fmt.Errorf("upload pdf: %w", err))
		return
	}

	record := ingest.CatalogRecord{
		Title:            book.Title,
		Author:           book.Creator,
		Source:           &source,
		SourceIdentifier: &book.Identifier,
		PDFURL:           &pdfURL,
		Language:         optional(book.Language),
		Genres:           classification.Genres,
		Subgenre:         optional(classification.Subgenre),
	}
	if _, err := r.deps.Catalog.Insert(ctx, record); err != nil {
		// A concurrent run may have inserted the same identifier after our
		// existence check; treat that as a skip, not a failure.
		if errors.Is(err, ingest.ErrDuplicate) {
			result.Counters.Skipped++
			metrics.ObserveBookOutcome(outcomeSkipped)
			logger.Debug("book inserted concurrently", zap.String("identifier", book.Identifier))
			return
		}
		r.fail(logger, result, book.Identifier, err)
		return
	}

	result.Counters.Added++
	metrics.ObserveBookOutcome(outcomeAdded)
	logger.Info("book added",
		zap.String("identifier", book.Identifier),
		zap.Strings("genres", classification.Genres),
	)
}

// classify returns the book's genre classification, or an empty one when the
// classifier fails. Classification problems never fail the book.
func (r *Runner) classify(ctx context.Context, logger *zap.Logger, book ingest.BookMetadata) ingest.GenreClassification {
	classification, err := r.deps.Classifier.Classify(ctx, book)
	if err != nil || classification == nil {
		logger.Warn("classification failed, continuing without genres",
			zap.String("identifier", book.Identifier),
			zap.Error(err),
		)
		return ingest.GenreClassification{}
	}
	return *classification
}

func (r *Runner) fail(logger *zap.Logger, result *ingest.JobResult, identifier string, err error) {
	result.Counters.Failed++
	result.Errors = append(result.Errors, ingest.JobError{
		Identifier: identifier,
		Error:      err.Error(),
		Timestamp:  r.deps.Clock.Now().UTC(),
	})
	metrics.ObserveBookOutcome(outcomeFailed)
	logger.Error("book failed",
		zap.String("identifier", identifier),
		zap.Error(err),
	)
}

// finalStatus derives the run status: completed when nothing failed, partial
// when failures mixed with additions, failed when only failures.
func finalStatus(result ingest.JobResult) ingest.JobStatus {
	if len(result.Errors) == 0 {
		return ingest.JobStatusCompleted
	}
	if result.Counters.Added > 0 {
		return ingest.JobStatusPartial
	}
	return ingest.JobStatusFailed
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
