package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/ideagraph/internal/extractor"
	"github.com/nao1215/ideagraph/internal/fetcher"
	"github.com/nao1215/ideagraph/internal/metrics"
	"github.com/nao1215/ideagraph/internal/model"
)

// Step names.
const (
	StepFetch   = "fetch"
	StepExtract = "extract"
	StepPersist = "persist"
)

// ErrNothingToExtract is returned by ExtractStep when the job has no body.
var ErrNothingToExtract = errors.New("job has no page body")

// PageFetcher downloads one page. *fetcher.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error)
}

// Store is the persistence collaborator. *database.Store implements it.
type Store interface {
	UpsertInterest(ctx context.Context, rec *model.InterestRecord) (bool, error)
	UpsertPins(ctx context.Context, interestID string, pins []model.PinRecord) error
}

// FetchStep downloads the job URL.
type FetchStep struct {
	fetcher PageFetcher
}

// NewFetchStep creates a fetch step.
func NewFetchStep(f PageFetcher) *FetchStep {
	return &FetchStep{fetcher: f}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return StepFetch
}

// Do fetches the page and stores body, final URL and status on the job.
func (s *FetchStep) Do(ctx context.Context, job *model.ScrapeJob) error {
	page, err := s.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		var fe *fetcher.FetchError
		if errors.As(err, &fe) {
			job.FinalURL = fe.FinalURL
			job.StatusCode = fe.StatusCode
		}
		return err
	}

	job.FinalURL = page.FinalURL
	job.StatusCode = page.StatusCode
	job.Body = page.Body
	return nil
}

// ExtractStep turns the fetched body into a record and pins.
type ExtractStep struct {
	extractor *extractor.Extractor

	// pageContext carries the caller settings. SourceURL and FinalURL are
	// filled in per job.
	pageContext extractor.PageContext

	logger *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates an extract step.
func NewExtractStep(ex *extractor.Extractor, pc extractor.PageContext, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		extractor:   ex,
		pageContext: pc,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return StepExtract
}

// Do runs the extractor on the job body.
func (s *ExtractStep) Do(_ context.Context, job *model.ScrapeJob) error {
	if len(job.Body) == 0 {
		return ErrNothingToExtract
	}

	pc := s.pageContext
	pc.SourceURL = job.URL
	pc.FinalURL = job.FinalURL

	res, err := s.extractor.Extract(job.Body, pc)
	if err != nil {
		marker := ""
		var exErr *extractor.Error
		if errors.As(err, &exErr) {
			marker = exErr.Marker
		}
		metrics.ExtractionsTotal.WithLabelValues(marker, metrics.Outcome(err)).Inc()
		if model.IsOperational(err) {
			s.logger.Warn("upstream refused page", "url", job.URL, "error", err)
		}
		return err
	}

	metrics.ExtractionsTotal.WithLabelValues(res.Marker, metrics.Outcome(nil)).Inc()
	job.Record = res.Record
	job.Pins = res.Pins
	job.Marker = res.Marker
	job.Strategy = res.Strategy
	return nil
}

// PersistStep stores the record and replaces its pins.
type PersistStep struct {
	store Store
}

// NewPersistStep creates a persist step.
func NewPersistStep(store Store) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return StepPersist
}

// Do upserts the record, then its pins.
func (s *PersistStep) Do(ctx context.Context, job *model.ScrapeJob) error {
	if job.Record == nil {
		return fmt.Errorf("persist %s: no record", job.URL)
	}

	isNew, err := s.store.UpsertInterest(ctx, job.Record)
	if err != nil {
		return fmt.Errorf("persist interest %s: %w", job.Record.ID, err)
	}
	if err := s.store.UpsertPins(ctx, job.Record.ID, job.Pins); err != nil {
		return fmt.Errorf("persist pins of %s: %w", job.Record.ID, err)
	}

	job.IsNew = isNew
	job.Persisted = true
	if isNew {
		metrics.PersistedTotal.WithLabelValues("inserted").Inc()
	} else {
		metrics.PersistedTotal.WithLabelValues("updated").Inc()
	}
	return nil
}

// DefaultPipelineConfig holds the collaborators of the standard pipeline.
type DefaultPipelineConfig struct {
	Fetcher     PageFetcher
	Extractor   *extractor.Extractor
	PageContext extractor.PageContext

	// Store is optional. Without it nothing is persisted.
	Store Store

	Logger *slog.Logger
}

// DefaultPipeline builds fetch -> extract [-> persist].
func DefaultPipeline(cfg DefaultPipelineConfig, opts ...Option) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)
	p.AddSteps(
		NewFetchStep(cfg.Fetcher),
		NewExtractStep(cfg.Extractor, cfg.PageContext, WithExtractLogger(logger)),
	)
	if cfg.Store != nil {
		p.AddStep(NewPersistStep(cfg.Store))
	}
	return p
}
