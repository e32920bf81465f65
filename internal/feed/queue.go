package feed

import (
	"sync"
)

// queue is a bounded thread-safe FIFO ring buffer. Send blocks while the
// queue is full, Receive blocks while it is empty, and Close wakes every
// waiter. After Close, Send fails immediately and Receive drains
// whatever is buffered before failing. Arrival order is preserved.
type queue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool
}

// newQueue creates a queue with the given capacity.
func newQueue[T any](capacity int) *queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &queue[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Send appends an item, blocking while the queue is full. It fails with
// ErrDisconnected once the queue is closed, even if space remains.
func (q *queue[T]) Send(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrDisconnected
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % q.capacity
	q.count++

	q.notEmpty.Signal()
	return nil
}

// Receive removes and returns the oldest item, blocking while the queue
// is empty. After Close it keeps returning buffered items until the
// queue is drained, then fails with ErrDisconnected.
func (q *queue[T]) Receive() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		var zero T
		return zero, ErrDisconnected
	}

	item := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // clear the slot for GC
	q.head = (q.head + 1) % q.capacity
	q.count--

	q.notFull.Signal()
	return item, nil
}

// Close marks the queue closed and wakes all blocked senders and
// receivers. Idempotent.
func (q *queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Len returns the current number of queued items.
func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue's fixed capacity.
func (q *queue[T]) Cap() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity
}
