package batchsched

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// MetricsPolicy defines hooks used by the scheduler to report
// queueing and execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {
	// IncSubmitted counts an accepted submission.
	IncSubmitted()

	// IncExecuted counts an executor invocation, retries included.
	IncExecuted()

	IncFinished()
	IncFailed()
	IncRetried()

	// AddRemoved counts n jobs dropped from the queue by Cancel or Clear.
	AddRemoved(n int)

	// SetDepth reports the current number of waiting and running jobs.
	SetDepth(waiting, running int)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	submitted atomic.Uint64
	executed  atomic.Uint64
	finished  atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
	removed   atomic.Uint64

	_ cpu.CacheLinePad // counters and gauges are written by different paths

	waiting atomic.Int64
	running atomic.Int64
}

// Submitted returns the total number of accepted submissions.
func (m *AtomicMetrics) Submitted() uint64 { return m.submitted.Load() }

// Executed returns the total number of executor invocations.
func (m *AtomicMetrics) Executed() uint64 { return m.executed.Load() }

// Finished returns the number of jobs that completed successfully.
func (m *AtomicMetrics) Finished() uint64 { return m.finished.Load() }

// Failed returns the number of jobs that failed terminally.
func (m *AtomicMetrics) Failed() uint64 { return m.failed.Load() }

// Retried returns the number of failed executions that were requeued.
func (m *AtomicMetrics) Retried() uint64 { return m.retried.Load() }

// Removed returns the number of waiting jobs dropped by Cancel or Clear.
func (m *AtomicMetrics) Removed() uint64 { return m.removed.Load() }

// Waiting returns the last reported queue depth.
func (m *AtomicMetrics) Waiting() int64 { return m.waiting.Load() }

// Running returns the last reported number of running jobs.
func (m *AtomicMetrics) Running() int64 { return m.running.Load() }

// IncSubmitted and the other Inc methods count one event each.
func (m *AtomicMetrics) IncSubmitted() { m.submitted.Add(1) }
func (m *AtomicMetrics) IncExecuted()  { m.executed.Add(1) }
func (m *AtomicMetrics) IncFinished()  { m.finished.Add(1) }
func (m *AtomicMetrics) IncFailed()    { m.failed.Add(1) }
func (m *AtomicMetrics) IncRetried()   { m.retried.Add(1) }

// AddRemoved adds n dropped jobs.
func (m *AtomicMetrics) AddRemoved(n int) { m.removed.Add(uint64(n)) }

// SetDepth stores the current waiting and running counts.
func (m *AtomicMetrics) SetDepth(waiting, running int) {
	m.waiting.Store(int64(waiting))
	m.running.Store(int64(running))
}

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncSubmitted()     {}
func (m *NoopMetrics) IncExecuted()      {}
func (m *NoopMetrics) IncFinished()      {}
func (m *NoopMetrics) IncFailed()        {}
func (m *NoopMetrics) IncRetried()       {}
func (m *NoopMetrics) AddRemoved(int)    {}
func (m *NoopMetrics) SetDepth(int, int) {}
