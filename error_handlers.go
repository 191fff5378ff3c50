package batchsched

import (
	"fmt"
)

// reportInternalError reports a scheduler-side failure such as a
// panicking submit hook, retry predicate or observer.
// If no handler is registered, the error is silently ignored.
func (s *Scheduler[T, R]) reportInternalError(e error) {
	if s.opts.OnInternalError != nil {
		s.opts.OnInternalError(e)
	}
}

// reportJobError reports an execution error of job id. It is called for
// every failed execution, including those that get retried.
//
// Job errors never stop the scheduler.
func (s *Scheduler[T, R]) reportJobError(id JobID, err error) {
	if s.opts.OnJobError != nil {
		s.opts.OnJobError(id, err)
	}
}

// notify delivers e to the observer, isolating observer panics.
func (s *Scheduler[T, R]) notify(e Event) {
	if s.opts.Observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.reportInternalError(fmt.Errorf("batchsched: observer panicked on %s: %v", e.Kind, r))
		}
	}()
	s.opts.Observer.Notify(e)
}
