package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/ideagraph/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to one page at a time", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests batch scraping.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order and failed jobs", func(t *testing.T) {
		t.Parallel()

		failing := "https://example.com/ideas/b/2/"
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "record",
				doFunc: func(_ context.Context, job *model.ScrapeJob) error {
					if job.URL == failing {
						return model.ErrBlocked
					}
					job.Record = &model.InterestRecord{Name: job.URL}
					return nil
				},
			})
			return p
		}

		urls := []string{"https://example.com/ideas/a/1/", failing, "https://example.com/ideas/c/3/"}
		jobs, err := NewBatchProcessor(factory, WithConcurrency(3)).ProcessBatch(context.Background(), urls)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(jobs) != 3 {
			t.Fatalf("expected 3 jobs, got %d", len(jobs))
		}
		for i, job := range jobs {
			if job.URL != urls[i] {
				t.Errorf("job %d: expected %s, got %s", i, urls[i], job.URL)
			}
		}
		if !errors.Is(jobs[1].Err, model.ErrBlocked) {
			t.Errorf("expected blocked job, got %v", jobs[1].Err)
		}
		if jobs[0].Record == nil || jobs[2].Record == nil {
			t.Error("expected records on successful jobs")
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "slow",
				doFunc: func(context.Context, *model.ScrapeJob) error {
					n := running.Add(1)
					for {
						old := peak.Load()
						if n <= old || peak.CompareAndSwap(old, n) {
							break
						}
					}
					time.Sleep(10 * time.Millisecond)
					running.Add(-1)
					return nil
				},
			})
			return p
		}

		urls := make([]string, 8)
		for i := range urls {
			urls[i] = "https://example.com/"
		}
		if _, err := NewBatchProcessor(factory, WithConcurrency(2)).ProcessBatch(context.Background(), urls); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent jobs, got %d", peak.Load())
		}
	})

	t.Run("progress sees every job", func(t *testing.T) {
		t.Parallel()

		var (
			mu   sync.Mutex
			seen = map[int]string{}
		)
		bp := NewBatchProcessor(func() *Pipeline { return New() },
			WithConcurrency(2),
			WithProgress(func(job *model.ScrapeJob, index int) {
				mu.Lock()
				seen[index] = job.URL
				mu.Unlock()
			}),
		)
		if _, err := bp.ProcessBatch(context.Background(), []string{"a", "b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[0] != "a" || seen[1] != "b" {
			t.Errorf("unexpected callbacks %v", seen)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewBatchProcessor(func() *Pipeline { return New() }).ProcessBatch(ctx, []string{"a"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
