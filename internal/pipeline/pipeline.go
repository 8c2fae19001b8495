package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/ideagraph/internal/model"
)

// Step is one stage of a scrape job: fetch, extract or persist.
type Step interface {
	// Do runs the stage. A returned error ends the job and is recorded on it.
	Do(ctx context.Context, job *model.ScrapeJob) error

	// Name identifies the stage in logs and in job.Steps.
	Name() string
}

// Pipeline runs its steps in order on one job at a time. A Pipeline is not
// safe for concurrent use; batches build one per job through a factory.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New returns an empty pipeline. Steps are added with AddStep or AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.AddSteps(step)
}

// AddSteps appends steps in the given order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps on job and stops at the first failure, which is
// both returned and stored on the job. A cancelled context is noticed
// between steps; a step in flight relies on its own ctx handling.
// job.Elapsed covers the whole run, failed or not.
func (p *Pipeline) Execute(ctx context.Context, job *model.ScrapeJob) error {
	defer func(start time.Time) {
		job.Elapsed = time.Since(start)
	}(time.Now())

	for _, step := range p.steps {
		log := p.logger.With("step", step.Name(), "url", job.URL)

		if err := ctx.Err(); err != nil {
			log.Warn("scrape job cancelled", "reason", err)
			fail(job, err)
			return err
		}

		log.Debug("step started")
		err := step.Do(ctx, job)
		job.Steps = append(job.Steps, step.Name())
		if err != nil {
			log.Warn("step failed", "error", err)
			fail(job, err)
			return err
		}
		log.Debug("step done")
	}
	return nil
}

// fail records err on job unless an earlier error is already there.
func fail(job *model.ScrapeJob, err error) {
	if job.Err == nil {
		job.Err = err
		job.ErrorMessage = err.Error()
	}
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
