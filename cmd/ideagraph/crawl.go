package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nao1215/ideagraph/internal/config"
	"github.com/nao1215/ideagraph/internal/crawler"
	"github.com/nao1215/ideagraph/internal/database"
	"github.com/nao1215/ideagraph/internal/model"
	"github.com/nao1215/ideagraph/internal/pipeline"
	"github.com/nao1215/ideagraph/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl the keyword graph below an interest page",
		Long: `Crawl seeds a tree with one interest page and expands it level by level
through the pivot links of every loaded interest.

Every page the crawl loads is stored like a scraped page. The tree itself
is stored as a crawl session and can be printed again with
"ideagraph show --session <id>".

An interest reached a second time is shown as a reference to its first
occurrence and is not loaded again. Pages that fail become error nodes;
--retry-failed gives each of them one more attempt; nodes stopped by
--max-depth are not retried.

Examples:
  # Expand the root and its children
  ideagraph crawl --levels 2 https://www.pinterest.com/ideas/garden-ideas/918105274631/

  # Keep the crawl small and slow
  ideagraph crawl --max-nodes 50 --delay 1s <url>`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	addLocaleFlags(cmd)
	addNetworkFlags(cmd)
	addReportFlags(cmd)
	addDBFlag(cmd)

	cmd.Flags().IntP("levels", "l", config.DefaultLevels,
		"Number of levels to expand below the root")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Deepest level the crawler loads (root is 0)")
	cmd.Flags().IntP("max-nodes", "n", config.DefaultMaxNodes,
		"Maximum number of nodes in the tree")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between page fetches")
	cmd.Flags().Bool("retry-failed", false,
		"Retry every failed node once after the expansion (depth limit stops excluded)")
	cmd.Flags().Bool("no-save", false,
		"Do not store pages or the crawl session in the database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
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

	retryFailed, err := cmd.Flags().GetBool("retry-failed")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()
	startMetrics(ctx, cfg, logger)

	return runCrawl(ctx, cmd, cfg, retryFailed, logger)
}

// runCrawl seeds, expands, stores and reports one crawl session.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, retryFailed bool, logger *slog.Logger) error {
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

	progress := cmd.ErrOrStderr()
	var loaded atomic.Int64
	loader := pipeline.NewLoader(
		newPipelineFactory(cfg, f, store, logger),
		pipeline.WithJobHook(func(job *model.ScrapeJob) {
			n := loaded.Add(1)
			if job.Failed() {
				fmt.Fprintf(progress, "[%d] failed %s: %v\n", n, job.URL, job.Err)
				return
			}
			fmt.Fprintf(progress, "[%d] loaded %s\n", n, job.URL)
		}),
	)

	c := crawler.New(loader,
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxNodes(cfg.MaxNodes),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithLogger(logger),
	)

	target := cfg.Targets[0]
	fmt.Fprintf(progress, "Crawling %s (levels: %d, max nodes: %d)...\n", target, cfg.Levels, cfg.MaxNodes)
	startTime := time.Now()

	if _, err := c.Seed(ctx, target); err != nil {
		return err
	}

	// A partial tree is still stored and reported when the expansion stops early.
	expandErr := c.ExpandTree(ctx, cfg.Levels)
	if expandErr == nil && retryFailed {
		expandErr = retryErrorNodes(ctx, c)
	}

	fmt.Fprintf(progress, "Crawl completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	tree := report.NewTree(c)
	if store != nil {
		session := &database.CrawlSession{
			ID:        tree.SessionID,
			RootID:    tree.RootID,
			Timestamp: time.Now(),
			Nodes:     tree.Nodes,
		}
		if err := store.SaveCrawlSession(context.WithoutCancel(ctx), session); err != nil {
			logger.Error("failed to save crawl session", "crawl_session", tree.SessionID, "error", err)
		}
	}

	writer, closeWriter, err := newReportWriter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeWriter() //nolint:errcheck // Best effort close of the report file

	if _, err := writer.WriteTree(tree); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return expandErr
}

// retryErrorNodes retries every failed non-root node once. Depth budget
// stops are skipped: their pages loaded and would only hit the limit again.
func retryErrorNodes(ctx context.Context, c *crawler.Crawler) error {
	for _, node := range c.Nodes() {
		if node.Status != model.StatusError || node.IsRoot() || node.IsPolicyStop() {
			continue
		}
		if err := c.Retry(ctx, node.ID); err != nil {
			return err
		}
	}
	return nil
}
