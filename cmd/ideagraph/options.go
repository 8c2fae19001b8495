package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/ideagraph/internal/config"
	"github.com/nao1215/ideagraph/internal/database"
	"github.com/nao1215/ideagraph/internal/extractor"
	"github.com/nao1215/ideagraph/internal/fetcher"
	securelog "github.com/nao1215/ideagraph/internal/log"
	"github.com/nao1215/ideagraph/internal/metrics"
	"github.com/nao1215/ideagraph/internal/pipeline"
	"github.com/nao1215/ideagraph/internal/report"
	"github.com/spf13/cobra"
)

// errInvalidPageURL is returned for targets that are not absolute http(s) URLs.
var errInvalidPageURL = errors.New("page URL must be an absolute http(s) URL")

// addLocaleFlags registers the flags that decide how pages are interpreted.
func addLocaleFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ideagraph in current or home directory)")
	cmd.Flags().String("lang", "",
		"Language hint stored on every record; selects the matching locale of the config file (e.g., de-DE)")
	cmd.Flags().String("domain", config.DefaultTargetDomain,
		"Scheme and host relative links are resolved against")
	cmd.Flags().String("accept-language", config.DefaultAcceptLanguage,
		"Accept-Language header value")
}

// addNetworkFlags registers the flags of commands that fetch pages.
func addNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("user-agent", nil,
		"User-Agent to rotate through (repeatable; default: built-in browser list)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second across all fetches (0 disables)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
}

// addReportFlags registers the output format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// addDBFlag registers the database directory flag.
func addDBFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the SQLite database")
}

// rootFlag returns the string form of a root persistent flag. Commands
// run outside Execute have not merged the root set yet, so it is the
// fallback.
func rootFlag(cmd *cobra.Command, name string) string {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.Root().PersistentFlags().Lookup(name)
	}
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// flagChanged reports whether the command has the flag and the user set it.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// override copies a flag value into dst when the user set the flag.
// Flags left at their default never clobber values from the config file.
func override[T any](cmd *cobra.Command, name string, get func(string) (T, error), dst *T) error {
	if !flagChanged(cmd, name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// buildConfig creates a Config from defaults, the config file and the
// command flags, in that order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = rootFlag(cmd, "verbose") == "true"
	cfg.MetricsAddr = rootFlag(cmd, "metrics-addr")
	format, err := securelog.ParseFormat(rootFlag(cmd, "log-format"))
	if err != nil {
		return nil, err
	}
	cfg.LogFormat = string(format)
	cfg.Targets = args

	if cmd.Flags().Lookup("config") != nil {
		if err := loadConfigFile(cmd, cfg); err != nil {
			return nil, err
		}
	}

	fs := cmd.Flags()
	overrides := []error{
		override(cmd, "domain", fs.GetString, &cfg.TargetDomain),
		override(cmd, "accept-language", fs.GetString, &cfg.AcceptLanguage),
		override(cmd, "user-agent", fs.GetStringSlice, &cfg.UserAgents),
		override(cmd, "proxy", fs.GetString, &cfg.ProxyAddress),
		override(cmd, "rate", fs.GetFloat64, &cfg.RateLimit),
		override(cmd, "timeout", fs.GetDuration, &cfg.Timeout),
		override(cmd, "concurrency", fs.GetInt, &cfg.Concurrency),
		override(cmd, "delay", fs.GetDuration, &cfg.CrawlDelay),
		override(cmd, "max-depth", fs.GetInt, &cfg.MaxDepth),
		override(cmd, "max-nodes", fs.GetInt, &cfg.MaxNodes),
		override(cmd, "levels", fs.GetInt, &cfg.Levels),
		override(cmd, "json", fs.GetBool, &cfg.JSONReport),
		override(cmd, "markdown", fs.GetBool, &cfg.MarkdownReport),
		override(cmd, "output", fs.GetString, &cfg.ReportFile),
		override(cmd, "db-dir", fs.GetString, &cfg.DBDir),
	}
	if err := errors.Join(overrides...); err != nil {
		return nil, err
	}

	if flagChanged(cmd, "no-save") {
		noSave, err := fs.GetBool("no-save")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noSave
	}

	return cfg, nil
}

// loadConfigFile folds the locale selected by --lang into cfg.
// If the user explicitly specified a config file path, it is an error when
// the file does not exist. Otherwise a missing file is silently ignored.
func loadConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg.LanguageHint, err = cmd.Flags().GetString("lang")
	if err != nil {
		return err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.File = &config.File{Locales: make(map[string]config.LocaleConfig)}
	}

	cfg.ApplyLocale(cfg.File.GetLocaleConfig(cfg.LanguageHint))
	return nil
}

// validatePageURLs rejects targets that cannot be fetched.
func validatePageURLs(targets []string) error {
	for _, target := range targets {
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", errInvalidPageURL, target)
		}
	}
	return nil
}

// setupLogger creates a structured logger that masks cookies and tokens.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return securelog.New(w, securelog.Format(cfg.LogFormat), cfg.Verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// startMetrics serves Prometheus metrics until ctx is done.
// It is a no-op when no address is configured.
func startMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	if cfg.MetricsAddr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
			logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
		}
	}()
}

// newFetcher creates a page fetcher from the configuration.
func newFetcher(cfg *config.Config, logger *slog.Logger) (*fetcher.Fetcher, error) {
	opts := []fetcher.Option{
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithAcceptLanguage(cfg.AcceptLanguage),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithRateLimit(cfg.RateLimit, 1),
		fetcher.WithLogger(logger),
	}
	if len(cfg.UserAgents) > 0 {
		opts = append(opts, fetcher.WithUserAgents(cfg.UserAgents...))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, fetcher.WithHeaders(cfg.Headers))
	}
	if cfg.Cookie != "" {
		opts = append(opts, fetcher.WithCookie(cfg.Cookie))
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, fetcher.WithProxy(cfg.ProxyAddress))
	}

	f, err := fetcher.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	return f, nil
}

// pageContext returns the extraction context shared by every page.
func pageContext(cfg *config.Config) extractor.PageContext {
	return extractor.PageContext{
		TargetDomain:   cfg.TargetDomain,
		AcceptLanguage: cfg.AcceptLanguage,
		LanguageHint:   cfg.LanguageHint,
	}
}

// openStore opens the database when saving is enabled.
// It returns a nil store otherwise.
func openStore(cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database opened", "path", store.Path())
	return store, nil
}

// pipelineStore converts a possibly nil store into the pipeline interface.
// A nil *database.Store must become a nil interface so nothing is persisted.
func pipelineStore(store *database.Store) pipeline.Store {
	if store == nil {
		return nil
	}
	return store
}

// newPipelineFactory returns a factory of fetch -> extract [-> persist]
// pipelines sharing one fetcher and extractor.
func newPipelineFactory(cfg *config.Config, f *fetcher.Fetcher, store *database.Store, logger *slog.Logger) func() *pipeline.Pipeline {
	ex := extractor.New(extractor.WithLogger(logger))
	pc := pageContext(cfg)
	ps := pipelineStore(store)
	return func() *pipeline.Pipeline {
		return pipeline.DefaultPipeline(pipeline.DefaultPipelineConfig{
			Fetcher:     f,
			Extractor:   ex,
			PageContext: pc,
			Store:       ps,
			Logger:      logger,
		})
	}
}

// formatWriter returns the report writer of the requested format.
func formatWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// newReportWriter returns the writer for the command output and a close
// function. With --output the requested format goes to the file and a
// human-readable summary still goes to stdout.
func newReportWriter(cmd *cobra.Command, cfg *config.Config) (report.Writer, func() error, error) {
	stdout := cmd.OutOrStdout()
	if cfg.ReportFile == "" {
		return formatWriter(cfg, stdout), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may contain session-specific data, so only the owner can read them.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := report.NewMultiWriter(
		formatWriter(cfg, f),
		report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)),
	)
	return w, f.Close, nil
}
