package batchsched

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lg "github.com/Andrej220/go-utils/zlog"
	"golang.org/x/sync/errgroup"
)

// Status is the lifecycle state of a job id.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"

	// StatusRemoved covers cancelled, cleared and unknown ids.
	StatusRemoved Status = "removed"
)

// Scheduler queues jobs and runs them with at most MaxConcurrent in
// flight. It is safe for concurrent use.
type Scheduler[T, R any] struct {
	opts Options[T, R]

	mu      sync.Mutex
	queue   *fifoQueue[T, R]
	running map[JobID]struct{}
	results *resultStore[R]
	waiters *waitRegistry[R]
	run     *dispatchRun // nil while stopped
	clears  uint64       // number of Clear calls

	inflight sync.WaitGroup
}

// New creates a scheduler. Dispatching starts right away unless
// opts.NoAutoStart is set.
func New[T, R any](opts Options[T, R]) *Scheduler[T, R] {
	opts.FillDefaults()
	s := &Scheduler[T, R]{
		opts:    opts,
		queue:   newFifoQueue[T, R](initialFifoCapacity),
		running: make(map[JobID]struct{}),
		results: newResultStore[R](opts.NoAutoClear),
		waiters: newWaitRegistry[R](),
	}
	if !opts.NoAutoStart {
		s.Start()
	}
	return s
}

// Name returns the scheduler label.
func (s *Scheduler[T, R]) Name() string { return s.opts.Name }

// Submit enqueues job and returns its id. An urgent job goes to the head
// of the queue.
//
// Submit declines with an empty id and ErrNoExecutor when no function can
// run the job, or ErrSubmitVetoed when the submit hook refuses it.
func (s *Scheduler[T, R]) Submit(job Job[T, R], urgent bool) (JobID, error) {
	job = job.normalize()
	ctx := s.jobCtx(job)
	logger := lg.FromContext(ctx).With(lg.String("scheduler", s.opts.Name))

	if s.executor(job) == nil {
		logger.Warn("no executor for job", lg.String("name", job.Name), lg.String("shape", job.kind.String()))
		return "", ErrNoExecutor
	}
	if hook := s.opts.SubmitHook; hook != nil && !s.admit(ctx, hook, job, urgent) {
		logger.Info("job submission vetoed", lg.String("name", job.Name))
		return "", ErrSubmitVetoed
	}

	s.mu.Lock()
	id := job.ID
	if !s.opts.IDs.Valid(id) || s.queue.Has(id) || s.isRunningLocked(id) {
		id = s.opts.IDs.NewID()
	}
	job.ID = id
	s.results.forget(id)
	t := &task[T, R]{id: id, job: job}
	s.queue.Push(t, urgent)
	waiting, running := s.queue.Len(), len(s.running)
	s.opts.Metrics.SetDepth(waiting, running)
	s.signalLocked()
	s.mu.Unlock()

	s.opts.Metrics.IncSubmitted()
	logger.Info("job submitted",
		lg.String("job", t.displayName()),
		lg.Any("urgent", urgent),
		lg.Int("waiting", waiting),
	)
	s.notify(Event{Kind: EventSubmitted, ID: id, Name: job.Name})
	return id, nil
}

// SubmitFunc submits a job running fn.
func (s *Scheduler[T, R]) SubmitFunc(fn func(ctx context.Context) (R, error), urgent bool) (JobID, error) {
	return s.Submit(Func[T, R](fn), urgent)
}

// SubmitArg submits arg for the default executor.
func (s *Scheduler[T, R]) SubmitArg(arg T, urgent bool) (JobID, error) {
	return s.Submit(Arg[T, R](arg), urgent)
}

func (s *Scheduler[T, R]) admit(ctx context.Context, hook SubmitHook[T, R], job Job[T, R], urgent bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.reportInternalError(fmt.Errorf("batchsched: submit hook panicked: %v", r))
			ok = false
		}
	}()
	return hook(ctx, queueView[T, R]{s: s}, job, urgent)
}

// Cancel removes a waiting job and resolves its waiters as removed.
// It returns false for running, finished, failed and unknown ids.
func (s *Scheduler[T, R]) Cancel(id JobID) bool {
	s.mu.Lock()
	if !s.queue.Remove(id) {
		s.mu.Unlock()
		return false
	}
	s.waiters.settleRemoved(id)
	waiting, running := s.queue.Len(), len(s.running)
	s.opts.Metrics.SetDepth(waiting, running)
	s.mu.Unlock()

	s.opts.Metrics.AddRemoved(1)
	lg.FromContext(s.opts.Ctx).Info("job cancelled",
		lg.String("scheduler", s.opts.Name),
		lg.String("job", string(id)),
	)
	s.notify(Event{Kind: EventRemoved, ID: id})
	return true
}

// Status reports the state of id. An empty id yields the empty Status.
func (s *Scheduler[T, R]) Status(id JobID) Status {
	if id == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(id)
}

func (s *Scheduler[T, R]) statusLocked(id JobID) Status {
	switch {
	case s.results.isFailed(id):
		return StatusFailed
	case s.queue.Has(id):
		return StatusWaiting
	case s.isRunningLocked(id):
		return StatusRunning
	case s.results.isFinished(id):
		return StatusFinished
	default:
		return StatusRemoved
	}
}

func (s *Scheduler[T, R]) isRunningLocked(id JobID) bool {
	_, ok := s.running[id]
	return ok
}

// Result returns the value or error stored for a finished or failed job.
// found is false when nothing is stored: the job is not terminal, or its
// result was already read or cleared.
//
// Unless keep or Options.NoAutoClear is set, the stored result is dropped
// by this read; Status keeps answering for the id.
func (s *Scheduler[T, R]) Result(id JobID, keep bool) (value R, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.get(id, keep)
}

// Await returns a future settling when id reaches a terminal state.
// Ids that are already terminal, removed or unknown settle at once.
//
// For a terminal id whose result was already consumed, the two cases
// differ: a finished id resolves with the zero value, a failed id rejects
// with ErrResultCleared.
func (s *Scheduler[T, R]) Await(id JobID, keep bool) *Future[R] {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.statusLocked(id) {
	case StatusWaiting, StatusRunning:
		return s.waiters.register(id, keep)
	case StatusFailed:
		f := newFuture[R](id, keep)
		_, _, err := s.results.get(id, keep)
		if err == nil {
			err = ErrResultCleared
		}
		f.reject(err)
		return f
	case StatusFinished:
		f := newFuture[R](id, keep)
		v, _, _ := s.results.get(id, keep)
		f.resolve(v)
		return f
	default:
		f := newFuture[R](id, keep)
		f.removed()
		return f
	}
}

// SubmitAndAwait submits job and waits for its outcome. A declined
// submission returns an error wrapping ErrSubmitFailed and the reason.
func (s *Scheduler[T, R]) SubmitAndAwait(ctx context.Context, job Job[T, R], keep bool) (Outcome[R], error) {
	id, err := s.Submit(job, false)
	if err != nil {
		return Outcome[R]{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	return s.Await(id, keep).Wait(ctx)
}

// AwaitAll waits for every id and returns the outcomes in ids order.
// It returns as soon as one job fails, with that job's error.
func (s *Scheduler[T, R]) AwaitAll(ctx context.Context, ids []JobID, keep bool) ([]Outcome[R], error) {
	futures := make([]*Future[R], len(ids))
	for i, id := range ids {
		futures[i] = s.Await(id, keep)
	}

	out := make([]Outcome[R], len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range futures {
		g.Go(func() error {
			o, err := f.Wait(gctx)
			out[i] = o
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// Size returns the number of waiting jobs.
func (s *Scheduler[T, R]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Running returns the ids of running jobs, sorted.
func (s *Scheduler[T, R]) Running() []JobID {
	s.mu.Lock()
	ids := make([]JobID, 0, len(s.running))
	for id := range s.running {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Clear stops dispatching, drops every waiting job and stored result, and
// resolves waiters as removed. Running jobs are not interrupted: their
// waiters settle normally when they end. A job running at Clear time is
// not retried; a failed attempt ends it as failed.
func (s *Scheduler[T, R]) Clear() {
	s.Stop()

	s.mu.Lock()
	s.clears++
	ids := s.queue.Clear()
	s.results.reset()
	s.waiters.settleAllExcept(s.running)
	waiting, running := s.queue.Len(), len(s.running)
	s.opts.Metrics.SetDepth(waiting, running)
	s.mu.Unlock()

	s.opts.Metrics.AddRemoved(len(ids))
	lg.FromContext(s.opts.Ctx).Info("scheduler cleared",
		lg.String("scheduler", s.opts.Name),
		lg.Int("removed", len(ids)),
		lg.Int("running", running),
	)
	for _, id := range ids {
		s.notify(Event{Kind: EventRemoved, ID: id})
	}
}

// ClearResults drops stored values and errors to free memory. Status
// still reports finished and failed ids.
func (s *Scheduler[T, R]) ClearResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results.blank()
}

func (s *Scheduler[T, R]) jobCtx(job Job[T, R]) context.Context {
	if job.Ctx != nil {
		return job.Ctx
	}
	return s.opts.Ctx
}

// executor resolves the function to run for job; nil if there is none.
func (s *Scheduler[T, R]) executor(job Job[T, R]) JobFunc[T, R] {
	if job.kind == kindArg {
		return s.opts.DefaultExec
	}
	return job.Fn
}
