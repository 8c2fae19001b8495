package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/ideagraph/internal/extractor"
	"github.com/nao1215/ideagraph/internal/model"
	"github.com/nao1215/ideagraph/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract an interest from a saved page without fetching",
		Long: `Extract runs the extractor on a page saved to disk. Nothing is fetched.

Use --url to tell the extractor where the page came from. It becomes the
record URL when the page state carries none, and a login or challenge URL
is reported as such.

Examples:
  # Print the interest of a saved page
  ideagraph extract --file page.html

  # Store the result as if it was scraped from its URL
  ideagraph extract --file page.html --url https://www.pinterest.com/ideas/garden-ideas/918105274631/ --save`,
		Args: cobra.NoArgs,
		RunE: runExtractCmd,
	}

	addLocaleFlags(cmd)
	addReportFlags(cmd)
	addDBFlag(cmd)

	cmd.Flags().StringP("file", "f", "", "Saved page to extract (required)")
	cmd.Flags().String("url", "", "URL the page was fetched from")
	cmd.Flags().Bool("save", false, "Store the result in the database")
	_ = cmd.MarkFlagRequired("file") //nolint:errcheck // The flag is registered above

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	sourceURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, []string{path})
	if err != nil {
		return err
	}
	cfg.SaveToDB, err = cmd.Flags().GetBool("save")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if sourceURL != "" {
		if err := validatePageURLs([]string{sourceURL}); err != nil {
			return err
		}
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	raw, err := os.ReadFile(path) //nolint:gosec // The path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewExtractStep(
		extractor.New(extractor.WithLogger(logger)),
		pageContext(cfg),
		pipeline.WithExtractLogger(logger),
	))
	if store != nil {
		p.AddStep(pipeline.NewPersistStep(store))
	}

	job := model.NewScrapeJob(sourceURL)
	job.FinalURL = sourceURL
	job.Body = raw

	_ = p.Execute(cmd.Context(), job) //nolint:errcheck // job.Err is reported after the report is written

	writer, closeWriter, err := newReportWriter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeWriter() //nolint:errcheck // Best effort close of the report file

	if _, err := writer.WriteJobs([]*model.ScrapeJob{job}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if job.Failed() {
		return fmt.Errorf("extract %s: %w", path, job.Err)
	}
	return nil
}
