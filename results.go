package batchsched

// slot holds a finished value or a failure. A blanked slot keeps its key
// so Status can still answer for the id.
type slot[R any] struct {
	value R
	err   error
	set   bool
}

// resultStore keeps terminal outcomes by id. Not safe for concurrent use.
type resultStore[R any] struct {
	finished map[JobID]slot[R]
	failed   map[JobID]slot[R]

	// retain disables one-shot reads globally (Options.NoAutoClear).
	retain bool
}

func newResultStore[R any](retain bool) *resultStore[R] {
	return &resultStore[R]{
		finished: make(map[JobID]slot[R]),
		failed:   make(map[JobID]slot[R]),
		retain:   retain,
	}
}

func (s *resultStore[R]) setFinished(id JobID, v R) {
	s.finished[id] = slot[R]{value: v, set: true}
}

func (s *resultStore[R]) setFailed(id JobID, err error) {
	s.failed[id] = slot[R]{err: err, set: true}
}

func (s *resultStore[R]) isFinished(id JobID) bool {
	_, ok := s.finished[id]
	return ok
}

func (s *resultStore[R]) isFailed(id JobID) bool {
	_, ok := s.failed[id]
	return ok
}

// get returns the stored value or error for id. Unless keep or retain is
// set, the slot is blanked after the read.
func (s *resultStore[R]) get(id JobID, keep bool) (R, bool, error) {
	var zero R
	m := s.finished
	if _, ok := s.failed[id]; ok {
		m = s.failed
	}
	sl, ok := m[id]
	if !ok || !sl.set {
		return zero, false, nil
	}
	if !keep && !s.retain {
		m[id] = slot[R]{}
	}
	return sl.value, true, sl.err
}

// forget drops id entirely, used when a terminal id is submitted again.
func (s *resultStore[R]) forget(id JobID) {
	delete(s.finished, id)
	delete(s.failed, id)
}

// blank drops every stored value and error but keeps the keys.
func (s *resultStore[R]) blank() {
	for id := range s.finished {
		s.finished[id] = slot[R]{}
	}
	for id := range s.failed {
		s.failed[id] = slot[R]{}
	}
}

// reset drops all keys.
func (s *resultStore[R]) reset() {
	clear(s.finished)
	clear(s.failed)
}
