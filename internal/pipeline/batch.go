package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/ideagraph/internal/model"
)

// DefaultConcurrency is the default number of pages scraped at once.
const DefaultConcurrency = 1

// ProgressFunc is told about every finished job and its position in the
// input. With concurrency above 1 it is called from several goroutines.
type ProgressFunc func(job *model.ScrapeJob, index int)

// BatchProcessor scrapes a list of URLs, each through its own pipeline.
type BatchProcessor struct {
	factory     func() *Pipeline
	concurrency int
	progress    ProgressFunc
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger. The default is slog.Default().
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency caps the number of jobs in flight. Values below 1 are
// ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress registers fn to be called after each job.
func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// NewBatchProcessor returns a processor calling factory once per URL, so
// no step state is shared between pages.
func NewBatchProcessor(factory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(bp)
	}
	return bp
}

// ProcessBatch scrapes urls and returns one job per URL in input order.
//
// A failing page is recorded on its job and the rest go on. The error is
// non-nil only when ctx ended before the batch did; URLs that were never
// started then have a nil job.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.ScrapeJob, error) {
	log := bp.logger.With("total_urls", len(urls))
	log.Info("batch started", "concurrency", bp.concurrency)
	start := time.Now()

	jobs := make([]*model.ScrapeJob, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, pageURL := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			jobs[i] = bp.scrape(gctx, pageURL, i, len(urls))
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	log.Info("batch finished", "elapsed", time.Since(start), "cancelled", err != nil)
	return jobs, err
}

// scrape runs one URL through a fresh pipeline.
func (bp *BatchProcessor) scrape(ctx context.Context, pageURL string, index, total int) *model.ScrapeJob {
	bp.logger.Info("scraping page", "url", pageURL, "index", index+1, "total", total)

	job := model.NewScrapeJob(pageURL)
	if err := bp.factory().Execute(ctx, job); err != nil {
		bp.logger.Warn("scrape failed", "url", pageURL, "error", err)
	}
	if bp.progress != nil {
		bp.progress(job, index)
	}
	return job
}
