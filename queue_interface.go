package batchsched

// QueueView is the access to the waiting queue handed to submit hooks.
//
// Every method takes the scheduler lock on its own, so a hook may call
// them freely; the queue may change between two calls.
type QueueView[T, R any] interface {
	// Len returns the number of waiting jobs.
	Len() int

	// Has reports whether id is waiting.
	Has(id JobID) bool

	// Find returns the first waiting job, head to tail, accepted by match.
	Find(match func(id JobID, job Job[T, R]) bool) (JobID, Job[T, R], bool)

	// Last returns the job at the tail of the queue.
	Last() (JobID, Job[T, R], bool)

	// Cancel removes a waiting job, exactly like Scheduler.Cancel.
	Cancel(id JobID) bool
}

type queueView[T, R any] struct {
	s *Scheduler[T, R]
}

func (v queueView[T, R]) Len() int { return v.s.Size() }

func (v queueView[T, R]) Has(id JobID) bool {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.queue.Has(id)
}

func (v queueView[T, R]) Find(match func(JobID, Job[T, R]) bool) (JobID, Job[T, R], bool) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	t, ok := v.s.queue.Find(func(t *task[T, R]) bool { return match(t.id, t.job) })
	if !ok {
		return "", Job[T, R]{}, false
	}
	return t.id, t.job, true
}

func (v queueView[T, R]) Last() (JobID, Job[T, R], bool) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	t, ok := v.s.queue.Last()
	if !ok {
		return "", Job[T, R]{}, false
	}
	return t.id, t.job, true
}

func (v queueView[T, R]) Cancel(id JobID) bool { return v.s.Cancel(id) }
