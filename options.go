package batchsched

import (
	"context"
	"time"
)

const (
	DefaultMaxConcurrent = 1
)

// Options configure a Scheduler.
//
// Out-of-range values are replaced with defaults in FillDefaults rather
// than rejected.
type Options[T, R any] struct {
	// DefaultExec runs jobs that carry only an argument.
	DefaultExec JobFunc[T, R]

	// MaxConcurrent caps the number of running jobs. Default 1.
	MaxConcurrent int

	// Retry is the default retry policy. Default Never.
	Retry RetryPolicy

	// RetryLater requeues retried jobs at the tail instead of the head.
	RetryLater bool

	// MaxRetry bounds retries per job. Zero or negative means unbounded.
	MaxRetry int

	// RetryDelay is the wait before a retried job is requeued.
	RetryDelay time.Duration

	// RetryBackoffMax, when larger than RetryDelay, makes successive
	// retry delays of a job grow from RetryDelay up to this cap.
	RetryBackoffMax time.Duration

	// DispatchInterval paces dispatch attempts.
	DispatchInterval time.Duration

	// Name labels the scheduler in logs and metrics.
	Name string

	SubmitHook SubmitHook[T, R]

	// NoAutoStart leaves dispatching off until Start is called.
	NoAutoStart bool

	// NoAutoClear keeps results readable after the first read.
	NoAutoClear bool

	// Ctx is the base context for jobs without their own and the source
	// of the scheduler's logger.
	Ctx context.Context

	IDs      IDGenerator
	Metrics  MetricsPolicy
	Observer Observer

	OnJobError      func(id JobID, err error)
	OnInternalError func(err error)
}

func (o *Options[T, R]) FillDefaults() {
	if o.MaxConcurrent < 1 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.Retry.IsZero() {
		o.Retry = Never()
	}
	if o.MaxRetry < 0 {
		o.MaxRetry = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.RetryBackoffMax <= o.RetryDelay {
		o.RetryBackoffMax = 0
	}
	if o.DispatchInterval < 0 {
		o.DispatchInterval = 0
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.IDs == nil {
		o.IDs = UUIDGenerator{}
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
}
