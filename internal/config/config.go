package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "ideagraph"

	// DefaultTargetDomain is the scheme and host relative edge links are
	// rewritten against.
	DefaultTargetDomain = "https://www.pinterest.com"

	// DefaultAcceptLanguage is sent when no locale overrides it.
	DefaultAcceptLanguage = "en-US,en;q=0.9"

	// DefaultTimeout bounds a single page request. Interest pages are heavy
	// and the upstream is slow under load, so this is generous.
	DefaultTimeout = 35 * time.Second

	// DefaultCrawlDelay is the pause between network fetches inside one
	// expansion. Lower values trip upstream rate limiting quickly.
	DefaultCrawlDelay = 300 * time.Millisecond

	// DefaultMaxDepth is the deepest level the crawler will load.
	DefaultMaxDepth = 10

	// DefaultMaxNodes caps the number of nodes of one crawl session.
	DefaultMaxNodes = 200

	// DefaultLevels is how many levels `crawl` expands below the root.
	DefaultLevels = 1

	// DefaultConcurrency of 1 keeps batch scrapes sequential. The upstream
	// blocks parallel clients from the same address quickly.
	DefaultConcurrency = 1

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Config holds all configuration options for ideagraph.
// It is populated from defaults, then the config file, then CLI flags, and
// passed through the application rather than kept as global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, CrawlConfig) for simplicity. Per-locale settings live
// in the config file and are folded in with ApplyLocale.
type Config struct {
	// TargetDomain is the scheme and host relative edge links are rewritten
	// against. It is never taken from the URL that was actually fetched.
	TargetDomain string

	// AcceptLanguage is the Accept-Language header value for every request.
	AcceptLanguage string

	// LanguageHint is stored verbatim on every extracted record.
	// It also selects the locale section of the config file.
	LanguageHint string

	// UserAgents is the rotation of User-Agent values.
	// Empty means the fetcher's built-in list.
	UserAgents []string

	// Headers are extra request headers.
	Headers map[string]string

	// Cookie is an optional Cookie header value.
	Cookie string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// RateLimit is the number of requests per second allowed across all
	// fetches. 0 disables pacing beyond CrawlDelay.
	RateLimit float64

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// CrawlDelay is the delay between network fetches of one expansion.
	CrawlDelay time.Duration

	// MaxDepth is the deepest level the crawler loads. The root is level 0.
	MaxDepth int

	// MaxNodes caps the node count of a crawl session.
	MaxNodes int

	// Levels is the number of levels expanded by the crawl command.
	Levels int

	// Concurrency is the number of pages scraped in parallel by batch scrapes.
	Concurrency int

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/ideagraph on Linux).
	DBDir string

	// SaveToDB indicates whether scrape results are persisted.
	SaveToDB bool

	// MetricsAddr is the listen address of the Prometheus endpoint.
	// Empty disables it.
	MetricsAddr string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .ideagraph is searched in the current and home directories.
	ConfigFilePath string

	// File holds the loaded configuration file, if any.
	File *File

	// Targets is the list of page URLs (or files, for extract) to process.
	Targets []string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, budgets).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		TargetDomain:   DefaultTargetDomain,
		AcceptLanguage: DefaultAcceptLanguage,
		Timeout:        DefaultTimeout,
		CrawlDelay:     DefaultCrawlDelay,
		MaxDepth:       DefaultMaxDepth,
		MaxNodes:       DefaultMaxNodes,
		Levels:         DefaultLevels,
		Concurrency:    DefaultConcurrency,
		MaxBodySize:    DefaultMaxBodySize,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// ApplyLocale copies the non-empty fields of lc onto the configuration.
// Headers are merged; other fields are replaced.
func (c *Config) ApplyLocale(lc LocaleConfig) {
	if lc.Domain != "" {
		c.TargetDomain = lc.Domain
	}
	if lc.AcceptLanguage != "" {
		c.AcceptLanguage = lc.AcceptLanguage
	}
	if len(lc.UserAgents) > 0 {
		c.UserAgents = append([]string(nil), lc.UserAgents...)
	}
	if len(lc.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(lc.Headers))
		}
		for k, v := range lc.Headers {
			c.Headers[k] = v
		}
	}
	if lc.Cookie != "" {
		c.Cookie = lc.Cookie
	}
	if lc.Proxy != "" {
		c.ProxyAddress = lc.Proxy
	}
}

// XDGDataDir returns the XDG data directory for ideagraph.
// On Linux: ~/.local/share/ideagraph
// On macOS: ~/Library/Application Support/ideagraph
// On Windows: %LOCALAPPDATA%\ideagraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for ideagraph.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for ideagraph.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any request is made.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.MaxNodes <= 0 {
		return ErrInvalidMaxNodes
	}

	if c.Levels < 0 {
		return ErrInvalidLevels
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if !validDomain(c.TargetDomain) {
		return ErrInvalidTargetDomain
	}

	if c.AcceptLanguage != "" {
		if _, _, err := language.ParseAcceptLanguage(c.AcceptLanguage); err != nil {
			return ErrInvalidAcceptLanguage
		}
	}

	if c.LanguageHint != "" {
		if _, err := language.Parse(c.LanguageHint); err != nil {
			return ErrInvalidLanguageHint
		}
	}

	return nil
}

// validDomain reports whether s is an absolute http(s) URL with a host.
func validDomain(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
