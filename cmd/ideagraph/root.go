// Package main provides the entry point for the ideagraph CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for ideagraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ideagraph",
		Short: "Scrape and crawl the interest graph of ideas pages",
		Long: `ideagraph scrapes public interest ("ideas") pages whose state is embedded
as inline JSON, turns them into interest and pin records, and crawls the
keyword graph formed by their pivot links.

Results are stored in a local SQLite database (XDG data directory by
default) and can be listed later with "ideagraph show".`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	cmd.PersistentFlags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address while running (e.g., :9090)")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
