package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/ideagraph/internal/model"
)

// PageContext is the caller-supplied configuration for one extraction.
// None of it is inferred from page content.
type PageContext struct {
	// TargetDomain is the scheme and host relative links are resolved
	// against, e.g. "https://www.pinterest.com". A bare host gets https.
	TargetDomain string

	// AcceptLanguage is the header value the page was requested with.
	AcceptLanguage string

	// LanguageHint is stored verbatim on the record.
	LanguageHint string

	// SourceURL is the URL that was requested. It is the record URL
	// fallback when the resource has none.
	SourceURL string

	// FinalURL is the URL after redirects. A login or challenge path here
	// is reported before the page body is looked at.
	FinalURL string
}

// Result is a successful extraction.
type Result struct {
	Record *model.InterestRecord
	Pins   []model.PinRecord

	// Marker and Strategy name the embedding convention and the resource
	// path that matched.
	Marker   string
	Strategy string
}

// Extractor turns a raw interest page into an InterestRecord and its pins.
// It is safe for concurrent use; Extract has no side effects.
type Extractor struct {
	markers    []Marker
	strategies []Strategy
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMarkers replaces the embedding markers tried on each page.
func WithMarkers(markers ...Marker) Option {
	return func(e *Extractor) {
		e.markers = markers
	}
}

// WithStrategies replaces the interest resource strategies.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// WithClock sets the clock used for LastScrape.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor with the default markers and strategies.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		markers:    DefaultMarkers,
		strategies: DefaultStrategies,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract runs the extraction on one raw page.
//
// Every failure is an *Error whose Kind is one of model.ErrBlocked,
// model.ErrChallengeRequired, model.ErrNoEmbeddedState,
// model.ErrMalformedState, model.ErrResourceNotFound or model.ErrNoName.
func (e *Extractor) Extract(raw []byte, pc PageContext) (*Result, error) {
	if err := model.RedirectFailure(pc.FinalURL); err != nil {
		return nil, &Error{Kind: err, Err: fmt.Errorf("redirected to %s", pc.FinalURL)}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &Error{Kind: model.ErrMalformedState, Err: err}
	}

	marker, blob, ok := locateState(doc, e.markers)
	if !ok {
		if err := sniffFailure(raw); err != nil {
			return nil, newError(err, "")
		}
		return nil, newError(model.ErrNoEmbeddedState, "")
	}

	tree, err := decodeState(blob)
	if err != nil {
		return nil, &Error{Kind: model.ErrMalformedState, Marker: marker, Err: err}
	}

	strategy, res, ok := e.resolveInterest(tree)
	if !ok {
		return nil, &Error{
			Kind:   model.ErrResourceNotFound,
			Marker: marker,
			Keys:   presentResourceKeys(tree),
		}
	}

	base := baseURL(pc.TargetDomain)
	rec, err := buildRecord(res, base, pc)
	if err != nil {
		return nil, &Error{Kind: err, Marker: marker}
	}

	pins := []model.PinRecord{}
	var pairs []TagLink
	if items, ok := resolvePinItems(tree); ok {
		pins, pairs = extractPins(items, model.MaxPinsPerInterest, base)
	}
	rec.TopAnnotations = AggregateAnnotations(pairs, model.MaxTopAnnotations)
	rec.LastScrape = e.now().UTC()

	e.logger.Debug("extracted interest",
		"id", rec.ID,
		"name", rec.Name,
		"marker", marker,
		"strategy", strategy,
		"pins", len(pins),
		"pivots", len(rec.PivotEdges),
	)

	return &Result{
		Record:   rec,
		Pins:     pins,
		Marker:   marker,
		Strategy: strategy,
	}, nil
}

// resolveInterest returns the first strategy hit.
func (e *Extractor) resolveInterest(tree any) (string, map[string]any, bool) {
	for _, s := range e.strategies {
		if res, ok := s.Resolve(tree); ok {
			return s.Name, res, true
		}
	}
	return "", nil, false
}

// decodeState parses a state blob. Numbers stay json.Number so large ids
// keep every digit.
func decodeState(blob string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(blob)))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return tree, nil
}
