package batchsched

import (
	"context"
	"fmt"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
)

// dispatchRun is one armed period of the dispatch loop, from Start to Stop.
type dispatchRun struct {
	stop chan struct{}
	wake chan struct{} // cap 1: one pending wake-up is enough
}

// Start arms the dispatch loop. Calling Start on a running scheduler only
// triggers a dispatch attempt.
func (s *Scheduler[T, R]) Start() {
	s.mu.Lock()
	if s.run == nil {
		r := &dispatchRun{
			stop: make(chan struct{}),
			wake: make(chan struct{}, 1),
		}
		s.run = r
		go s.loop(r)
		lg.FromContext(s.opts.Ctx).Info("start dispatching", lg.String("scheduler", s.opts.Name))
	}
	s.signalLocked()
	s.mu.Unlock()
}

// Stop disarms the dispatch loop. Running jobs finish; waiting jobs stay
// queued until the next Start.
func (s *Scheduler[T, R]) Stop() {
	s.mu.Lock()
	if s.run != nil {
		close(s.run.stop)
		s.run = nil
		lg.FromContext(s.opts.Ctx).Info("stop dispatching", lg.String("scheduler", s.opts.Name))
	}
	s.mu.Unlock()
}

// Shutdown stops dispatching and waits for running jobs, retry delays
// included, to end. It returns ctx.Err() if ctx is done first.
func (s *Scheduler[T, R]) Shutdown(ctx context.Context) error {
	s.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.inflight.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler[T, R]) signalLocked() {
	if s.run == nil {
		return
	}
	select {
	case s.run.wake <- struct{}{}:
	default:
	}
}

// loop dispatches jobs on every wake-up until the queue is empty or the
// concurrency budget is used up.
func (s *Scheduler[T, R]) loop(r *dispatchRun) {
	for {
		select {
		case <-r.stop:
			return
		case <-r.wake:
		}
		for s.pace(r) && s.dispatch(r) {
		}
	}
}

// pace waits DispatchInterval before a dispatch attempt. It returns false
// if the run was stopped meanwhile.
func (s *Scheduler[T, R]) pace(r *dispatchRun) bool {
	if s.opts.DispatchInterval <= 0 {
		return true
	}
	timer := time.NewTimer(s.opts.DispatchInterval)
	select {
	case <-timer.C:
		return true
	case <-r.stop:
		timer.Stop()
		return false
	}
}

// dispatch moves the head job to running and starts it. The capacity
// check and the reservation happen under one lock.
func (s *Scheduler[T, R]) dispatch(r *dispatchRun) bool {
	s.mu.Lock()
	if s.run != r || len(s.running) >= s.opts.MaxConcurrent {
		s.mu.Unlock()
		return false
	}
	t, ok := s.queue.Pop()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.running[t.id] = struct{}{}
	t.epoch = s.clears
	s.inflight.Add(1)
	waiting, running := s.queue.Len(), len(s.running)
	s.opts.Metrics.SetDepth(waiting, running)
	s.mu.Unlock()

	lg.FromContext(s.jobCtx(t.job)).Info("dispatching job",
		lg.String("scheduler", s.opts.Name),
		lg.String("job", t.displayName()),
		lg.Int("running", running),
		lg.Int("waiting", waiting),
		lg.Int("max_concurrent", s.opts.MaxConcurrent),
	)
	go s.execute(t)
	return true
}

// execute runs one attempt of t and records the outcome.
func (s *Scheduler[T, R]) execute(t *task[T, R]) {
	defer s.inflight.Done()

	ctx := s.jobCtx(t.job)
	logger := lg.FromContext(ctx).With(
		lg.String("scheduler", s.opts.Name),
		lg.String("job", t.displayName()),
	)
	eff := s.resolveRetry(t.job)

	var (
		v   R
		err error
	)
	if err = ctx.Err(); err == nil {
		s.notify(Event{Kind: EventRun, ID: t.id, Name: t.job.Name, Retries: t.retries})
		s.opts.Metrics.IncExecuted()
		v, err = s.invoke(ctx, s.executor(t.job), t.job.Arg)
	}
	if err == nil {
		logger.Info("job finished", lg.Int("retries", t.retries))
		s.finish(t, v, nil)
		return
	}

	s.reportJobError(t.id, err)
	if !s.shouldRetry(ctx, t, eff, err) || s.clearedSince(t) {
		logger.Error("job failed", lg.Int("retries", t.retries), lg.Any("error", err))
		s.finish(t, v, err)
		return
	}

	if !t.job.ForceRetry {
		t.retries++
	}
	if t.delays == nil {
		t.delays = eff.newDelaySource()
	}
	delay := t.delays.Next()
	logger.Warn("job failed; retrying",
		lg.Int("retries", t.retries),
		lg.String("sleep", delay.String()),
		lg.Any("error", err),
	)
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			logger.Info("job canceled during retry delay", lg.Any("reason", ctx.Err()))
			s.finish(t, v, ctx.Err())
			return
		}
	}
	s.requeue(t, v, err, !eff.later)
}

func (s *Scheduler[T, R]) invoke(ctx context.Context, fn JobFunc[T, R], arg T) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanic, r)
		}
	}()
	if fn == nil {
		return v, ErrNoExecutor
	}
	return fn(ctx, arg)
}

// shouldRetry applies the forced-retry flag, MaxRetry and the policy.
// A job whose context is done is never retried.
func (s *Scheduler[T, R]) shouldRetry(ctx context.Context, t *task[T, R], eff effectiveRetry, err error) (ok bool) {
	if ctx.Err() != nil {
		return false
	}
	if t.job.ForceRetry {
		return true
	}
	if eff.exhausted(t.retries) {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			s.reportInternalError(fmt.Errorf("batchsched: retry predicate panicked for %s: %v", t.id, r))
			ok = false
		}
	}()
	return eff.policy.allows(ctx, err)
}

// resolveRetry merges job-level overrides onto the scheduler settings.
func (s *Scheduler[T, R]) resolveRetry(job Job[T, R]) effectiveRetry {
	eff := effectiveRetry{
		policy:     job.Retry.or(s.opts.Retry),
		maxRetry:   s.opts.MaxRetry,
		delay:      s.opts.RetryDelay,
		backoffMax: s.opts.RetryBackoffMax,
		later:      s.opts.RetryLater,
	}
	if job.MaxRetry > 0 {
		eff.maxRetry = job.MaxRetry
	}
	if job.RetryDelay > 0 {
		eff.delay = job.RetryDelay
	}
	if job.RetryLater != nil {
		eff.later = *job.RetryLater
	}
	return eff
}

// finish stores the terminal outcome of t, releases its slot and settles
// its waiters in one critical section.
func (s *Scheduler[T, R]) finish(t *task[T, R], v R, err error) {
	s.mu.Lock()
	delete(s.running, t.id)
	if err != nil {
		s.results.setFailed(t.id, err)
	} else {
		s.results.setFinished(t.id, v)
	}
	s.settleLocked(t.id)
	waiting, running := s.queue.Len(), len(s.running)
	s.opts.Metrics.SetDepth(waiting, running)
	s.signalLocked()
	s.mu.Unlock()

	if err != nil {
		s.opts.Metrics.IncFailed()
		s.notify(Event{Kind: EventFailed, ID: t.id, Name: t.job.Name, Err: err, Retries: t.retries})
	} else {
		s.opts.Metrics.IncFinished()
		s.notify(Event{Kind: EventFinished, ID: t.id, Name: t.job.Name, Retries: t.retries})
	}
	s.notify(Event{Kind: EventDone, ID: t.id, Name: t.job.Name, Retries: t.retries})
}

// requeue puts t back into the queue under the same id. The attempt's
// events go out first: once requeued, t may be dispatched again.
// A task whose scheduler was cleared meanwhile ends as failed instead.
func (s *Scheduler[T, R]) requeue(t *task[T, R], v R, cause error, head bool) {
	if s.clearedSince(t) {
		s.finish(t, v, cause)
		return
	}
	s.opts.Metrics.IncRetried()
	s.notify(Event{Kind: EventRetry, ID: t.id, Name: t.job.Name, Err: cause, Retries: t.retries})
	s.notify(Event{Kind: EventDone, ID: t.id, Name: t.job.Name, Retries: t.retries})

	s.mu.Lock()
	if t.epoch != s.clears {
		s.mu.Unlock()
		s.finish(t, v, cause)
		return
	}
	delete(s.running, t.id)
	s.queue.Push(t, head)
	s.opts.Metrics.SetDepth(s.queue.Len(), len(s.running))
	s.signalLocked()
	s.mu.Unlock()
}

// clearedSince reports whether Clear ran after t was dispatched.
func (s *Scheduler[T, R]) clearedSince(t *task[T, R]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.epoch != s.clears
}

// settleLocked hands the stored outcome of id to every waiter. The result
// is read once, retained if any waiter asked to keep it.
func (s *Scheduler[T, R]) settleLocked(id JobID) {
	if !s.waiters.has(id) {
		return
	}
	v, _, err := s.results.get(id, s.waiters.keep(id))
	failed := s.results.isFailed(id)
	for _, f := range s.waiters.take(id) {
		if failed {
			f.reject(err)
		} else {
			f.resolve(v)
		}
	}
}
