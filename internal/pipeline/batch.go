package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/model"
	"golang.org/x/sync/errgroup"
)

// Factory creates the pipeline for one seed.
// It receives the seed so that per-site settings (cookie, headers, page cap,
// patterns) can be resolved for each target of a batch.
type Factory func(seed string) *Pipeline

// BatchProcessor crawls several seeds concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-seed execution
// 2. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each seed.
	pipelineFactory Factory

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed reports in seed order.
	results []*model.ScanReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Values below 1 are ignored.
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
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls every seed and returns the reports in seed order.
// A failing crawl does not stop the others; its report carries the error.
// The returned error is non-nil only when ctx ended before every seed started,
// in which case the reports of seeds that never ran are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.ScanReport, error) {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]*model.ScanReport, len(seeds))

	err := bp.run(ctx, seeds, func(rep *model.ScanReport, i int) {
		bp.mu.Lock()
		bp.results[i] = rep
		bp.mu.Unlock()
	})

	bp.logger.Info("batch processing complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback crawls every seed and calls callback as each
// report completes. The callback runs on the goroutine that finished the
// crawl, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(report *model.ScanReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)
	return bp.run(ctx, seeds, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, seeds []string, done func(*model.ScanReport, int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			// Seeds that have not started when the batch is cancelled are skipped.
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bp.logger.Info("crawling seed",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			rep := model.NewScanReport(seed)
			if err := bp.pipelineFactory(seed).Execute(gctx, rep); err != nil {
				// Recorded in the report; the other seeds keep going.
				bp.logger.Warn("crawl failed", "seed", seed, "error", err)
			} else {
				bp.logger.Info("crawl completed", "seed", seed)
			}

			done(rep, i)
			return nil
		})
	}

	return g.Wait()
}
