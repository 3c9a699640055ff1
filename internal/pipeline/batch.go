package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/seosmoke/internal/model"
)

// defaultConcurrency is used when WithConcurrency is not given.
const defaultConcurrency = 4

// Factory builds the pipeline for one target URL. Site-specific settings
// such as cookies or a user agent override are applied here.
type Factory func(target string) *Pipeline

// BatchProcessor checks multiple URLs concurrently.
// Each URL gets a fresh pipeline from the factory, so no state is shared
// between runs.
type BatchProcessor struct {
	pipelineFactory Factory
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of URLs checked at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     defaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatchWithCallback checks all targets and calls callback as each
// report completes. callback runs on the worker goroutine and must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(report *model.Report, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_urls", len(targets),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report, err := bp.pipelineFactory(target).Check(ctx, target)
			if err != nil {
				// The report still describes what happened.
				bp.logger.Warn("check interrupted", "url", target, "error", err)
			}
			callback(report, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_urls", len(targets),
		"elapsed", time.Since(startTime),
	)
	return err
}
