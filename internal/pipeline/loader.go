package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/ideagraph/internal/crawler"
	"github.com/nao1215/ideagraph/internal/model"
)

var _ crawler.Loader = (*Loader)(nil)

// Loader feeds crawler fetches through a pipeline, so every page the
// crawler follows is also extracted and, when configured, persisted.
type Loader struct {
	factory func() *Pipeline
	onJob   func(job *model.ScrapeJob)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithJobHook registers a callback that sees every finished job.
func WithJobHook(hook func(job *model.ScrapeJob)) LoaderOption {
	return func(l *Loader) {
		l.onJob = hook
	}
}

// NewLoader creates a Loader running a fresh pipeline per page.
func NewLoader(factory func() *Pipeline, opts ...LoaderOption) *Loader {
	l := &Loader{factory: factory}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements crawler.Loader.
func (l *Loader) Load(ctx context.Context, pageURL string) (*model.InterestRecord, error) {
	job := model.NewScrapeJob(pageURL)
	err := l.factory().Execute(ctx, job)
	if l.onJob != nil {
		l.onJob(job)
	}
	if err == nil {
		err = job.Err
	}
	if err != nil {
		return nil, err
	}
	if job.Record == nil {
		return nil, fmt.Errorf("load %s: pipeline produced no record", pageURL)
	}
	return job.Record, nil
}
