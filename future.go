package batchsched

import (
	"context"
	"sync"
)

// Outcome is what a wait resolves with: the job's value, or Removed when
// the job was cancelled, cleared or never known to the scheduler.
type Outcome[R any] struct {
	ID      JobID
	Value   R
	Removed bool
}

// Future is a one-shot handle on a job's completion, returned by Await.
type Future[R any] struct {
	id   JobID
	keep bool

	once sync.Once
	done chan struct{}
	out  Outcome[R]
	err  error
}

func newFuture[R any](id JobID, keep bool) *Future[R] {
	return &Future[R]{id: id, keep: keep, done: make(chan struct{})}
}

// ID returns the awaited job id.
func (f *Future[R]) ID() JobID { return f.id }

// Done is closed once the future is settled.
func (f *Future[R]) Done() <-chan struct{} { return f.done }

// Wait blocks until the job settles or ctx is done.
//
// A finished job yields its value with a nil error; a failed job yields
// the job's error; a removed job yields an Outcome with Removed set and a
// nil error.
func (f *Future[R]) Wait(ctx context.Context) (Outcome[R], error) {
	select {
	case <-f.done:
		return f.out, f.err
	case <-ctx.Done():
		return Outcome[R]{ID: f.id}, ctx.Err()
	}
}

func (f *Future[R]) resolve(v R) {
	f.settle(Outcome[R]{ID: f.id, Value: v}, nil)
}

func (f *Future[R]) reject(err error) {
	f.settle(Outcome[R]{ID: f.id}, err)
}

func (f *Future[R]) removed() {
	f.settle(Outcome[R]{ID: f.id, Removed: true}, nil)
}

func (f *Future[R]) settle(out Outcome[R], err error) {
	f.once.Do(func() {
		f.out = out
		f.err = err
		close(f.done)
	})
}
