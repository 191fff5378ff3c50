package batchsched

import (
	"context"

	"golang.org/x/time/rate"
)

// SubmitHook decides whether a job may be submitted. It runs before the
// job is enqueued and outside the scheduler lock, so it may block; ctx is
// the job context. Returning false vetoes the submission.
//
// The hook is the only sanctioned external mutator of the queue, through q.
type SubmitHook[T, R any] func(ctx context.Context, q QueueView[T, R], job Job[T, R], urgent bool) bool

// AllGates admits a job only if every gate does. Gates run in order and
// evaluation stops at the first veto.
func AllGates[T, R any](gates ...SubmitHook[T, R]) SubmitHook[T, R] {
	return func(ctx context.Context, q QueueView[T, R], job Job[T, R], urgent bool) bool {
		for _, g := range gates {
			if g != nil && !g(ctx, q, job, urgent) {
				return false
			}
		}
		return true
	}
}

// RateGate vetoes submissions beyond the limiter's rate.
func RateGate[T, R any](l *rate.Limiter) SubmitHook[T, R] {
	return func(context.Context, QueueView[T, R], Job[T, R], bool) bool {
		return l.Allow()
	}
}

// PacedGate holds each submission until the limiter grants a token.
// It vetoes only when the job context ends first.
func PacedGate[T, R any](l *rate.Limiter) SubmitHook[T, R] {
	return func(ctx context.Context, _ QueueView[T, R], _ Job[T, R], _ bool) bool {
		return l.Wait(ctx) == nil
	}
}

// DepthGate vetoes non-urgent submissions while limit jobs are waiting.
func DepthGate[T, R any](limit int) SubmitHook[T, R] {
	return func(_ context.Context, q QueueView[T, R], _ Job[T, R], urgent bool) bool {
		return urgent || q.Len() < limit
	}
}

// UniqueNameGate vetoes a named job while another job with the same name
// is waiting. With replace set, the waiting job is cancelled instead and
// the new one admitted.
func UniqueNameGate[T, R any](replace bool) SubmitHook[T, R] {
	return func(_ context.Context, q QueueView[T, R], job Job[T, R], _ bool) bool {
		if job.Name == "" {
			return true
		}
		id, _, ok := q.Find(func(_ JobID, queued Job[T, R]) bool {
			return queued.Name == job.Name
		})
		if !ok {
			return true
		}
		if replace {
			q.Cancel(id)
			return true
		}
		return false
	}
}
