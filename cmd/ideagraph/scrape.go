package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/ideagraph/internal/config"
	"github.com/nao1215/ideagraph/internal/model"
	"github.com/nao1215/ideagraph/internal/pipeline"
	"github.com/spf13/cobra"
)

// errPagesFailed is returned when at least one page of a scrape failed.
var errPagesFailed = errors.New("some pages failed")

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <url>...",
		Short: "Scrape interest pages into the local database",
		Long: `Scrape fetches interest ("ideas") pages, extracts the interest record and
its pins from the embedded page state, and stores them.

A page that fails does not stop the others. The command exits non-zero
when any page failed.

Examples:
  # Scrape one page
  ideagraph scrape https://www.pinterest.com/ideas/garden-ideas/918105274631/

  # Scrape a German page with the de-DE locale from the config file
  ideagraph scrape --lang de-DE https://de.pinterest.com/ideas/gartenideen/918105274631/

  # Output JSON without touching the database
  ideagraph scrape --json --no-save <url>`,
		Args: cobra.ArbitraryArgs,
		RunE: runScrapeCmd,
	}

	addLocaleFlags(cmd)
	addNetworkFlags(cmd)
	addReportFlags(cmd)
	addDBFlag(cmd)

	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of pages scraped in parallel")
	cmd.Flags().Bool("no-save", false,
		"Do not store results in the database")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := validatePageURLs(cfg.Targets); err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()
	startMetrics(ctx, cfg, logger)

	return runScrape(ctx, cmd, cfg, logger)
}

// runScrape scrapes every target and writes the report.
func runScrape(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scrape",
		"targets", len(cfg.Targets),
		"concurrency", cfg.Concurrency,
		"save_to_db", cfg.SaveToDB,
	)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	f, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}

	writer, closeWriter, err := newReportWriter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeWriter() //nolint:errcheck // Best effort close of the report file

	progress := cmd.ErrOrStderr()
	var mu sync.Mutex
	bp := pipeline.NewBatchProcessor(
		newPipelineFactory(cfg, f, store, logger),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
		pipeline.WithProgress(func(job *model.ScrapeJob, index int) {
			mu.Lock()
			defer mu.Unlock()
			if job.Failed() {
				fmt.Fprintf(progress, "[%d/%d] failed %s: %v\n", index+1, len(cfg.Targets), job.URL, job.Err)
				return
			}
			fmt.Fprintf(progress, "[%d/%d] scraped %s\n", index+1, len(cfg.Targets), job.URL)
		}),
	)

	fmt.Fprintf(progress, "Scraping %d page(s)...\n", len(cfg.Targets))
	startTime := time.Now()

	jobs, batchErr := bp.ProcessBatch(ctx, cfg.Targets)
	jobs = finishedJobs(jobs)

	fmt.Fprintf(progress, "Scrape completed in %s\n\n",
		time.Since(startTime).Round(time.Millisecond))

	if _, err := writer.WriteJobs(jobs); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if batchErr != nil {
		return batchErr
	}

	if failed := countFailed(jobs); failed > 0 {
		return fmt.Errorf("%w: %d of %d", errPagesFailed, failed, len(jobs))
	}
	return nil
}

// finishedJobs drops the jobs never started because of cancellation.
func finishedJobs(jobs []*model.ScrapeJob) []*model.ScrapeJob {
	out := make([]*model.ScrapeJob, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			out = append(out, job)
		}
	}
	return out
}

// countFailed returns the number of jobs carrying an error.
func countFailed(jobs []*model.ScrapeJob) int {
	n := 0
	for _, job := range jobs {
		if job.Failed() {
			n++
		}
	}
	return n
}
