package config

import "errors"

// Sentinel errors returned by Config.Validate and the flag layer. Callers
// match them with errors.Is; the text is what the user sees.
var (
	// ErrNoTarget is returned when no page URL or file is given.
	ErrNoTarget = errors.New("no target specified: provide at least one page URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxNodes is returned when the node budget is not positive.
	// The root alone needs one node.
	ErrInvalidMaxNodes = errors.New("invalid max nodes: must be positive")

	// ErrInvalidLevels is returned when the number of crawl levels is negative.
	ErrInvalidLevels = errors.New("invalid levels: must be non-negative")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidTargetDomain is returned when the target domain is not an
	// absolute http(s) URL.
	ErrInvalidTargetDomain = errors.New("invalid target domain: must be an absolute http(s) URL such as https://www.example.com")

	// ErrInvalidAcceptLanguage is returned when the Accept-Language value
	// cannot be parsed.
	ErrInvalidAcceptLanguage = errors.New("invalid accept-language value")

	// ErrInvalidLanguageHint is returned when the language hint is not a
	// BCP 47 tag.
	ErrInvalidLanguageHint = errors.New("invalid language hint: must be a BCP 47 tag such as en-US")
)
