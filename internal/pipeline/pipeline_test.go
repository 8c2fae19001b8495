package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/ideagraph/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *model.ScrapeJob) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *model.ScrapeJob) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithLogger option", func(t *testing.T) {
		t.Parallel()

		logger := discardLogger()
		if p := New(WithLogger(logger)); p.logger != logger {
			t.Error("expected custom logger")
		}
	})
}

// TestPipelineExecute tests step execution order and error handling.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"one", "two", "three"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.ScrapeJob) error {
					order = append(order, name)
					return nil
				},
			})
		}

		job := model.NewScrapeJob("https://example.com/ideas/a/1/")
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"one", "two", "three"}
		for i := range want {
			if order[i] != want[i] || job.Steps[i] != want[i] {
				t.Errorf("step %d: expected %q, got order %q steps %q", i, want[i], order[i], job.Steps[i])
			}
		}
		if job.Failed() {
			t.Errorf("expected no error on job, got %v", job.Err)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("step failed")
		first := &mockStep{name: "first", doFunc: func(context.Context, *model.ScrapeJob) error { return stepErr }}
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		job := model.NewScrapeJob("https://example.com/")
		err := p.Execute(context.Background(), job)
		if !errors.Is(err, stepErr) {
			t.Fatalf("expected step error, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("second step should not run")
		}
		if !errors.Is(job.Err, stepErr) || job.ErrorMessage != "step failed" {
			t.Errorf("expected error recorded on job, got %v / %q", job.Err, job.ErrorMessage)
		}
	})

	t.Run("keeps an error recorded earlier and sets elapsed", func(t *testing.T) {
		t.Parallel()

		earlier := errors.New("earlier")
		p := New()
		p.AddStep(&mockStep{name: "a", doFunc: func(context.Context, *model.ScrapeJob) error {
			time.Sleep(time.Millisecond)
			return errors.New("later")
		}})

		job := model.NewScrapeJob("https://example.com/")
		job.Err = earlier
		if err := p.Execute(context.Background(), job); err == nil || err.Error() != "later" {
			t.Fatalf("expected step error returned, got %v", err)
		}
		if !errors.Is(job.Err, earlier) {
			t.Errorf("expected earlier error kept, got %v", job.Err)
		}
		if job.Elapsed <= 0 {
			t.Errorf("expected elapsed to be set, got %v", job.Elapsed)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		t.Parallel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		job := model.NewScrapeJob("https://example.com/")
		if err := p.Execute(ctx, job); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not run after cancellation")
		}
	})
}

// TestPipelineStepNames tests step name reporting.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(&mockStep{name: StepFetch}, &mockStep{name: StepExtract})

	names := p.StepNames()
	if len(names) != 2 || names[0] != StepFetch || names[1] != StepExtract {
		t.Errorf("unexpected names %v", names)
	}
}
