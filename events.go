package batchsched

// EventKind names a job lifecycle notification.
type EventKind uint8

const (
	EventSubmitted EventKind = iota + 1
	EventRun
	EventFinished
	EventFailed
	EventRetry
	EventRemoved
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventSubmitted:
		return "submitted"
	case EventRun:
		return "run"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	case EventRetry:
		return "retry"
	case EventRemoved:
		return "removed"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle step of a job.
type Event struct {
	Kind EventKind
	ID   JobID
	Name string

	// Err is set for EventFailed and EventRetry.
	Err error

	// Retries is the job's retry count at the time of the event.
	Retries int
}

// Observer receives job events. Notify is called synchronously from the
// goroutine driving the job, outside the scheduler lock; it must not block
// for long.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }
