package batchsched

import (
	"errors"
)

var (
	// ErrNoExecutor is returned by Submit when neither the job nor the
	// scheduler provides a function to run.
	ErrNoExecutor = errors.New("batchsched: no executor for job")

	// ErrSubmitVetoed is returned by Submit when the submit hook declines
	// the job.
	ErrSubmitVetoed = errors.New("batchsched: submission vetoed")

	// ErrSubmitFailed wraps the reason SubmitAndAwait could not submit.
	ErrSubmitFailed = errors.New("batchsched: job submit failed")

	// ErrResultCleared rejects a wait on a failed job whose error was
	// already consumed or cleared.
	ErrResultCleared = errors.New("batchsched: result already consumed")

	// ErrJobPanic wraps a panic recovered from a job function.
	ErrJobPanic = errors.New("batchsched: job panicked")
)
