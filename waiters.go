package batchsched

// waitRegistry holds pending futures by job id. Not safe for concurrent use.
type waitRegistry[R any] struct {
	pending map[JobID][]*Future[R]
}

func newWaitRegistry[R any]() *waitRegistry[R] {
	return &waitRegistry[R]{pending: make(map[JobID][]*Future[R])}
}

func (w *waitRegistry[R]) register(id JobID, keep bool) *Future[R] {
	f := newFuture[R](id, keep)
	w.pending[id] = append(w.pending[id], f)
	return f
}

func (w *waitRegistry[R]) has(id JobID) bool {
	_, ok := w.pending[id]
	return ok
}

// keep reports whether any waiter on id asked to retain the result.
func (w *waitRegistry[R]) keep(id JobID) bool {
	for _, f := range w.pending[id] {
		if f.keep {
			return true
		}
	}
	return false
}

// take removes and returns every future registered for id.
func (w *waitRegistry[R]) take(id JobID) []*Future[R] {
	fs := w.pending[id]
	delete(w.pending, id)
	return fs
}

func (w *waitRegistry[R]) settleRemoved(id JobID) int {
	fs := w.take(id)
	for _, f := range fs {
		f.removed()
	}
	return len(fs)
}

// settleAllExcept resolves every pending future with Removed, except those
// for ids in keep, which stay registered.
func (w *waitRegistry[R]) settleAllExcept(keep map[JobID]struct{}) {
	for id := range w.pending {
		if _, ok := keep[id]; ok {
			continue
		}
		w.settleRemoved(id)
	}
}

func (w *waitRegistry[R]) len() int { return len(w.pending) }
