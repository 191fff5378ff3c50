package batchsched

import (
	"context"
	"time"
)

// JobFunc is the function executed for a job. arg is the job argument;
// ctx is the job context (or the scheduler context when the job has none).
type JobFunc[T, R any] func(ctx context.Context, arg T) (R, error)

type jobKind uint8

const (
	kindUnset jobKind = iota
	kindFunc
	kindFuncWithArg
	kindArg
)

func (k jobKind) String() string {
	switch k {
	case kindFunc:
		return "func"
	case kindFuncWithArg:
		return "func+arg"
	case kindArg:
		return "arg"
	default:
		return "unset"
	}
}

// Job represents a single unit of work submitted to the scheduler.
//
// Build jobs with Func, FuncWith or Arg. A Job literal is accepted too: it
// runs Fn with Arg when Fn is set, and the scheduler's default executor with
// Arg otherwise.
//
// Zero override fields mean "use the scheduler setting".
type Job[T, R any] struct {
	// ID is an optional caller-chosen identifier. It is replaced with a
	// generated one when invalid or already in use.
	ID JobID

	// Name is a human readable label used in logs and events.
	Name string

	Fn  JobFunc[T, R]
	Arg T

	// Ctx is passed to Fn and carries the logger. A context that is done
	// before dispatch fails the job without running it.
	Ctx context.Context

	Retry      RetryPolicy
	RetryLater *bool
	MaxRetry   int
	RetryDelay time.Duration

	// ForceRetry requeues the job after every failure regardless of
	// policy and MaxRetry. Forced retries do not count as retries.
	ForceRetry bool

	kind jobKind
}

// Func returns a job running fn. fn receives no argument.
func Func[T, R any](fn func(ctx context.Context) (R, error)) Job[T, R] {
	if fn == nil {
		return Job[T, R]{kind: kindFunc}
	}
	return Job[T, R]{
		Fn:   func(ctx context.Context, _ T) (R, error) { return fn(ctx) },
		kind: kindFunc,
	}
}

// FuncWith returns a job running fn with arg.
func FuncWith[T, R any](fn JobFunc[T, R], arg T) Job[T, R] {
	return Job[T, R]{Fn: fn, Arg: arg, kind: kindFuncWithArg}
}

// Arg returns a job handing arg to the scheduler's default executor.
func Arg[T, R any](arg T) Job[T, R] {
	return Job[T, R]{Arg: arg, kind: kindArg}
}

// SetRetryLater overrides the scheduler's RetryLater for this job.
func (j *Job[T, R]) SetRetryLater(later bool) {
	j.RetryLater = &later
}

func (j Job[T, R]) normalize() Job[T, R] {
	if j.kind == kindUnset {
		if j.Fn != nil {
			j.kind = kindFuncWithArg
		} else {
			j.kind = kindArg
		}
	}
	return j
}

// task is the scheduler-owned wrapper around a submitted job.
type task[T, R any] struct {
	id      JobID
	job     Job[T, R]
	retries int
	delays  delaySource

	// epoch is the scheduler's clear count when the task was dispatched.
	epoch uint64
}

func (t *task[T, R]) displayName() string {
	if t.job.Name != "" {
		return t.job.Name + " " + string(t.id)
	}
	return string(t.id)
}
