package batchsched_test

import (
	"context"
	"sync"
	"testing"
	"time"

	bs "github.com/Andrej220/go-utils/batchsched"
)

const testTimeout = 2 * time.Second

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func newTestScheduler[T, R any](t *testing.T, opts bs.Options[T, R]) *bs.Scheduler[T, R] {
	t.Helper()
	if opts.Name == "" {
		opts.Name = t.Name()
	}
	s := bs.New(opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

// eventually polls cond until it holds or the test timeout passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// recorder collects values in call order from concurrent jobs.
type recorder[V any] struct {
	mu   sync.Mutex
	vals []V
}

func (r *recorder[V]) add(v V) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder[V]) snapshot() []V {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]V, len(r.vals))
	copy(out, r.vals)
	return out
}

func mustSubmit[T, R any](t *testing.T, s *bs.Scheduler[T, R], job bs.Job[T, R], urgent bool) bs.JobID {
	t.Helper()
	id, err := s.Submit(job, urgent)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return id
}
