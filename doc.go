// Package batchsched provides an in-process batch job scheduler with a
// concurrency ceiling, retries and completion waiting by job id.
//
// Lifecycle
//
// Every submitted job gets a JobID and moves through these states:
//
//	waiting -> running -> finished | failed
//	waiting -> removed            (Cancel or Clear)
//	running -> waiting            (retry, same id)
//
// An id is in exactly one state at a time. Unknown ids report removed.
//
// Architecture overview
//
// The scheduler is composed of four parts, all owned by one Scheduler and
// guarded by its mutex:
//
//  1. Waiting queue
//     FIFO, except that urgent submissions go to the head. The latest
//     urgent job is dispatched first.
//
//  2. Dispatch loop
//     A goroutine armed by Start and disarmed by Stop. It wakes up on
//     submission and on every job completion, and starts jobs until the
//     queue is empty or MaxConcurrent jobs are running. Each job runs in
//     its own goroutine.
//
//  3. Result store
//     Finished values and failure errors by id. Reads are one-shot unless
//     asked to keep the result or Options.NoAutoClear is set; Status
//     keeps answering after a read or ClearResults.
//
//  4. Wait registry
//     Futures returned by Await, settled when their job ends or is
//     removed.
//
// Job shapes
//
// A job is built with Func (a function without argument), FuncWith (a
// function and its argument) or Arg (an argument for the scheduler's
// default executor). Job-level retry settings override the scheduler's.
//
// Retries
//
// A failed job is requeued under the same id while its retry count is
// below MaxRetry and the retry policy accepts the error. Retried jobs go to
// the head of the queue, or to the tail with RetryLater. ForceRetry
// requeues unconditionally and does not count. The job keeps its running
// slot during RetryDelay.
//
// Error handling
//
// Job errors and recovered job panics are stored per id and surface only
// through Result, Await and the OnJobError hook; they never affect the
// scheduler or other jobs. Submit declines with ErrNoExecutor or
// ErrSubmitVetoed instead of panicking.
//
// Submission gate
//
// An optional SubmitHook runs before every submission and may veto it.
// RateGate, PacedGate, DepthGate and UniqueNameGate cover common cases.
package batchsched
