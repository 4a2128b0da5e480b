package hub

import (
	"sync"
)

// Queue is a thread-safe bounded FIFO. When full, Send drops the new item.
type Queue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool
}

// NewQueue creates a new queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send adds an item to the queue without blocking.
// Returns false if the queue is closed or full.
func (q *Queue[T]) Send(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if q.count == q.capacity {
		return false
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % q.capacity
	q.count++

	// Signal waiting receivers
	q.cond.Signal()
	return true
}

// Receive removes and returns an item from the queue.
// Blocks until an item is available or the queue is closed.
// Returns the item and true, or zero value and false once closed.
// Items still queued at Close are discarded.
func (q *Queue[T]) Receive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}

	if q.closed {
		var zero T
		return zero, false
	}

	return q.pop(), true
}

// Close closes the queue and wakes all blocked receivers. Safe to call twice.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true

	// Release references held by undelivered items
	var zero T
	for i := range q.buf {
		q.buf[i] = zero
	}
	q.count = 0

	q.cond.Broadcast()
}

// Len returns the current number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// pop removes the head item. Must be called with lock held and count > 0.
func (q *Queue[T]) pop() T {
	item := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // Clear reference for GC
	q.head = (q.head + 1) % q.capacity
	q.count--
	return item
}
