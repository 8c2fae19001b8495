package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/ideagraph/internal/metrics"
	"github.com/nao1215/ideagraph/internal/model"
)

// Defaults.
const (
	DefaultTimeout     = 35 * time.Second
	DefaultMaxBodySize = 10 * 1024 * 1024
	DefaultAccept      = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// DefaultUserAgents is the rotation used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// Page is a successfully fetched page.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Fetcher downloads pages. It is safe for concurrent use.
type Fetcher struct {
	client         *http.Client
	transport      http.RoundTripper
	userAgents     []string
	next           atomic.Uint64
	acceptLanguage string
	headers        map[string]string
	cookie         string
	proxyAddress   string
	timeout        time.Duration
	maxBodySize    int64
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithUserAgents sets the User-Agent rotation. Requests use them round-robin.
func WithUserAgents(agents ...string) Option {
	return func(f *Fetcher) {
		f.userAgents = agents
	}
}

// WithAcceptLanguage sets the Accept-Language header value.
func WithAcceptLanguage(value string) Option {
	return func(f *Fetcher) {
		f.acceptLanguage = value
	}
}

// WithHeaders adds static headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithCookie sets a raw cookie string sent with every request.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithProxy routes requests through a SOCKS5 proxy at host:port.
func WithProxy(address string) Option {
	return func(f *Fetcher) {
		f.proxyAddress = address
	}
}

// WithRateLimit sets the shared token bucket. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithMaxBodySize limits how much of a response body is read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithTransport replaces the base round tripper. Mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher. It fails only on an invalid proxy address.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		userAgents:  DefaultUserAgents,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if len(f.userAgents) == 0 {
		f.userAgents = DefaultUserAgents
	}

	if f.transport == nil {
		transport, err := newTransport(f.proxyAddress)
		if err != nil {
			return nil, err
		}
		f.transport = transport
	}
	f.client = newHTTPClient(f.transport, f.cookie, f.headers)
	return f, nil
}

// nextUserAgent returns the next User-Agent in rotation.
func (f *Fetcher) nextUserAgent() string {
	n := f.next.Add(1) - 1
	return f.userAgents[n%uint64(len(f.userAgents))]
}

// Fetch downloads pageURL.
//
// It waits for the shared rate limiter first; the timeout covers only the
// request itself. Failures are *FetchError values.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	start := time.Now()
	page, err := f.fetch(ctx, pageURL)

	outcome := metrics.Outcome(err)
	metrics.FetchesTotal.WithLabelValues(outcome).Inc()
	metrics.FetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		f.logger.Debug("fetch failed", "url", pageURL, "error", err)
		return nil, err
	}
	f.logger.Debug("fetched page",
		"url", pageURL,
		"final_url", page.FinalURL,
		"status", page.StatusCode,
		"bytes", len(page.Body),
		"elapsed", time.Since(start),
	)
	return page, nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (*Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: pageURL, Kind: model.ErrFetchFailed, Err: err}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: model.ErrFetchFailed, Err: err}
	}
	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", DefaultAccept)
	if f.acceptLanguage != "" {
		req.Header.Set("Accept-Language", f.acceptLanguage)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: classifyTransportError(reqCtx, err), Err: err}
	}
	defer resp.Body.Close()

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{
			URL:        pageURL,
			FinalURL:   finalURL,
			StatusCode: resp.StatusCode,
			Kind:       classifyTransportError(reqCtx, err),
			Err:        fmt.Errorf("read body: %w", err),
		}
	}

	if kind := classifyStatus(resp.StatusCode); kind != nil {
		return nil, &FetchError{URL: pageURL, FinalURL: finalURL, StatusCode: resp.StatusCode, Kind: kind}
	}
	if kind := model.RedirectFailure(finalURL); kind != nil {
		return nil, &FetchError{URL: pageURL, FinalURL: finalURL, StatusCode: resp.StatusCode, Kind: kind}
	}

	return &Page{
		URL:        pageURL,
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
	}, nil
}

// classifyStatus maps a non-2xx status to its failure kind.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusForbidden, code == http.StatusTooManyRequests:
		return model.ErrBlocked
	default:
		return model.ErrFetchFailed
	}
}

// classifyTransportError separates deadline expiry from other failures.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.ErrTimeout
	}
	return model.ErrFetchFailed
}
