package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/ideagraph/internal/config"
	"github.com/nao1215/ideagraph/internal/database"
	"github.com/nao1215/ideagraph/internal/report"
	"github.com/spf13/cobra"
)

// defaultShowLimit is the number of interests listed without --limit.
const defaultShowLimit = 20

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show stored interests and crawl sessions",
		Long: `Show prints what earlier scrapes and crawls stored in the database.

Without arguments the most recently scraped interests are listed. With an
interest id, that interest is printed together with its pins.

Examples:
  # List the 20 most recently scraped interests
  ideagraph show

  # Print one interest with its pins as Markdown
  ideagraph show --markdown 918105274631

  # List stored crawl sessions, then print one of them
  ideagraph show --sessions
  ideagraph show --session 3f1c9a2e-6c1b-4bde-9a57-0d4f0e6c7a11`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShowCmd,
	}

	addReportFlags(cmd)
	addDBFlag(cmd)

	cmd.Flags().Int("limit", defaultShowLimit,
		"Maximum number of interests to list (0 lists all)")
	cmd.Flags().Bool("sessions", false,
		"List stored crawl sessions")
	cmd.Flags().String("session", "",
		"Print the tree of a stored crawl session")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	listSessions, err := cmd.Flags().GetBool("sessions")
	if err != nil {
		return err
	}
	sessionID, err := cmd.Flags().GetString("session")
	if err != nil {
		return err
	}

	store, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if listSessions {
		return showSessions(ctx, cmd.OutOrStdout(), cfg, store)
	}

	writer, closeWriter, err := newReportWriter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeWriter() //nolint:errcheck // Best effort close of the report file

	switch {
	case sessionID != "":
		session, err := store.GetCrawlSession(ctx, sessionID)
		if err != nil {
			return err
		}
		_, err = writer.WriteTree(report.NewStoredTree(session.ID, session.RootID, session.Nodes))
		return err
	case len(cfg.Targets) == 1:
		interest, err := loadInterest(ctx, store, cfg.Targets[0])
		if err != nil {
			return err
		}
		_, err = writer.WriteInterests([]*report.Interest{interest})
		return err
	default:
		stored, err := store.ListInterests(ctx, limit)
		if err != nil {
			return err
		}
		interests := make([]*report.Interest, 0, len(stored))
		for _, si := range stored {
			interests = append(interests, &report.Interest{
				Record:      &si.InterestRecord,
				ScrapeCount: si.ScrapeCount,
			})
		}
		_, err = writer.WriteInterests(interests)
		return err
	}
}

// loadInterest reads one interest and its pins.
func loadInterest(ctx context.Context, store *database.Store, id string) (*report.Interest, error) {
	si, err := store.GetInterest(ctx, id)
	if err != nil {
		return nil, err
	}
	pins, err := store.ListPins(ctx, id)
	if err != nil {
		return nil, err
	}
	return &report.Interest{
		Record:      &si.InterestRecord,
		Pins:        pins,
		ScrapeCount: si.ScrapeCount,
	}, nil
}

// showSessions lists stored crawl sessions, newest first.
func showSessions(ctx context.Context, w io.Writer, cfg *config.Config, store *database.Store) error {
	sessions, err := store.ListCrawlSessions(ctx)
	if err != nil {
		return err
	}

	if cfg.JSONReport {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if sessions == nil {
			sessions = []database.SessionSummary{}
		}
		return encoder.Encode(sessions)
	}

	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No crawl sessions stored.")
		return err
	}
	for _, s := range sessions {
		if _, err := fmt.Fprintf(w, "%s  root=%-14s nodes=%-4d %s\n",
			s.ID, s.RootID, s.NodeCount, s.Timestamp.Local().Format(time.DateTime)); err != nil {
			return err
		}
	}
	return nil
}
