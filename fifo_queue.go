// fifo_queue.go
package batchsched

const (
	initialFifoCapacity = 64
)

// fifoQueue is the waiting queue: a growable circular buffer of tasks.
//
// Plain submissions go to the tail. Urgent submissions go to the head, so
// the latest urgent task is always dispatched first.
// Id lookups scan the buffer; queue depth is expected to stay moderate.
//
// fifoQueue is not safe for concurrent use; the scheduler guards it.
type fifoQueue[T, R any] struct {
	buf        []*task[T, R] // circular buffer
	head, tail int           // read/write indices
	size       int           // number of tasks currently buffered
	capacity   int
}

func newFifoQueue[T, R any](capacity int) *fifoQueue[T, R] {
	if capacity <= 0 {
		capacity = initialFifoCapacity
	}
	return &fifoQueue[T, R]{
		buf:      make([]*task[T, R], capacity),
		capacity: capacity,
	}
}

// Len returns the number of tasks waiting in the queue.
func (q *fifoQueue[T, R]) Len() int { return q.size }

// grow doubles the buffer and unwraps it so head lands at index 0.
func (q *fifoQueue[T, R]) grow() {
	newCap := q.capacity * 2
	buf := make([]*task[T, R], newCap)
	for i := 0; i < q.size; i++ {
		buf[i] = q.buf[(q.head+i)%q.capacity]
	}
	q.buf = buf
	q.head = 0
	q.tail = q.size
	q.capacity = newCap
}

// PushBack inserts a task at the tail.
func (q *fifoQueue[T, R]) PushBack(t *task[T, R]) {
	if q.size == q.capacity {
		q.grow()
	}
	q.buf[q.tail] = t
	q.tail++
	if q.tail == q.capacity {
		q.tail = 0
	}
	q.size++
}

// PushFront inserts a task at the head.
func (q *fifoQueue[T, R]) PushFront(t *task[T, R]) {
	if q.size == q.capacity {
		q.grow()
	}
	q.head--
	if q.head < 0 {
		q.head = q.capacity - 1
	}
	q.buf[q.head] = t
	q.size++
}

// Push inserts at the head when urgent, at the tail otherwise.
func (q *fifoQueue[T, R]) Push(t *task[T, R], urgent bool) {
	if urgent {
		q.PushFront(t)
		return
	}
	q.PushBack(t)
}

// Pop removes and returns the head task.
//
// If the queue is empty, returns nil and false.
func (q *fifoQueue[T, R]) Pop() (*task[T, R], bool) {
	if q.size == 0 {
		return nil, false
	}
	t := q.buf[q.head]
	q.buf[q.head] = nil
	q.head++
	if q.head == q.capacity {
		q.head = 0
	}
	q.size--
	return t, true
}

func (q *fifoQueue[T, R]) at(i int) *task[T, R] {
	return q.buf[(q.head+i)%q.capacity]
}

func (q *fifoQueue[T, R]) index(id JobID) int {
	for i := 0; i < q.size; i++ {
		if q.at(i).id == id {
			return i
		}
	}
	return -1
}

// Has reports whether a task with id is queued.
func (q *fifoQueue[T, R]) Has(id JobID) bool { return q.index(id) >= 0 }

// Remove deletes the task with id, preserving the order of the others.
// It returns false if no such task is queued.
func (q *fifoQueue[T, R]) Remove(id JobID) bool {
	i := q.index(id)
	if i < 0 {
		return false
	}
	for ; i < q.size-1; i++ {
		q.buf[(q.head+i)%q.capacity] = q.at(i + 1)
	}
	q.tail--
	if q.tail < 0 {
		q.tail = q.capacity - 1
	}
	q.buf[q.tail] = nil
	q.size--
	return true
}

// Find returns the first task, head to tail, for which match is true.
func (q *fifoQueue[T, R]) Find(match func(*task[T, R]) bool) (*task[T, R], bool) {
	for i := 0; i < q.size; i++ {
		if t := q.at(i); match(t) {
			return t, true
		}
	}
	return nil, false
}

// Last returns the tail task without removing it.
func (q *fifoQueue[T, R]) Last() (*task[T, R], bool) {
	if q.size == 0 {
		return nil, false
	}
	return q.at(q.size - 1), true
}

// Clear drops every queued task and returns their ids in queue order.
func (q *fifoQueue[T, R]) Clear() []JobID {
	ids := make([]JobID, 0, q.size)
	for i := 0; i < q.size; i++ {
		ids = append(ids, q.at(i).id)
	}
	for i := range q.buf {
		q.buf[i] = nil
	}
	q.head, q.tail, q.size = 0, 0, 0
	return ids
}
