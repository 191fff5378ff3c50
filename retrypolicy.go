package batchsched

import (
	"context"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
)

// RetryPredicate decides whether a failed job should be retried.
// It may block; ctx is the job context.
type RetryPredicate func(ctx context.Context, err error) bool

type retryKind uint8

const (
	retryInherit retryKind = iota
	retryNever
	retryAlways
	retryPredicate
)

// RetryPolicy decides whether a failed job is requeued.
// The zero value means "inherit": on a job it defers to the scheduler
// policy, on the scheduler it means Never.
type RetryPolicy struct {
	kind retryKind
	pred RetryPredicate
}

// Never disables retries.
func Never() RetryPolicy { return RetryPolicy{kind: retryNever} }

// Always retries every failure, subject to MaxRetry.
func Always() RetryPolicy { return RetryPolicy{kind: retryAlways} }

// RetryIf retries failures for which pred returns true, subject to MaxRetry.
// A nil pred behaves like Never.
func RetryIf(pred RetryPredicate) RetryPolicy {
	if pred == nil {
		return Never()
	}
	return RetryPolicy{kind: retryPredicate, pred: pred}
}

// RetryFlag maps a plain boolean onto Always or Never.
func RetryFlag(retry bool) RetryPolicy {
	if retry {
		return Always()
	}
	return Never()
}

// IsZero reports whether p is the inherit policy.
func (p RetryPolicy) IsZero() bool { return p.kind == retryInherit }

func (p RetryPolicy) String() string {
	switch p.kind {
	case retryNever:
		return "never"
	case retryAlways:
		return "always"
	case retryPredicate:
		return "predicate"
	default:
		return "inherit"
	}
}

func (p RetryPolicy) or(def RetryPolicy) RetryPolicy {
	if p.kind == retryInherit {
		return def
	}
	return p
}

// allows evaluates the policy. The caller recovers predicate panics.
func (p RetryPolicy) allows(ctx context.Context, err error) bool {
	switch p.kind {
	case retryAlways:
		return true
	case retryPredicate:
		return p.pred(ctx, err)
	default:
		return false
	}
}

// effectiveRetry is the per-dispatch resolution of job and scheduler
// retry settings.
type effectiveRetry struct {
	policy     RetryPolicy
	maxRetry   int // 0 means unbounded
	delay      time.Duration
	backoffMax time.Duration
	later      bool
}

func (r effectiveRetry) exhausted(retries int) bool {
	return r.maxRetry > 0 && retries >= r.maxRetry
}

// delaySource yields successive retry delays for one task.
type delaySource interface {
	Next() time.Duration
}

type fixedDelay time.Duration

func (d fixedDelay) Next() time.Duration { return time.Duration(d) }

type delayFunc func() time.Duration

func (f delayFunc) Next() time.Duration { return f() }

// newDelaySource returns a fixed delay, or a backoff growing from delay
// towards backoffMax when backoffMax is larger.
func (r effectiveRetry) newDelaySource() delaySource {
	if r.delay > 0 && r.backoffMax > r.delay {
		bo := boff.New(r.delay, r.backoffMax, time.Now().UnixNano())
		return delayFunc(bo.Next)
	}
	return fixedDelay(r.delay)
}
