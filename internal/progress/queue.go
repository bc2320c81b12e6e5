package progress

import "sync"

// Queue is a thread-safe FIFO that doubles its capacity when it reaches 70%
// full. Once it holds limit items, Send drops the oldest one.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []T
	head   int // read position
	tail   int // write position
	count  int
	limit  int
	closed bool

	// Stats
	sent    int64
	dropped int64
	resizes int
}

// NewQueue creates a queue with the given initial capacity and item limit.
// A limit below the initial capacity is raised to it.
func NewQueue[T any](initial, limit int) *Queue[T] {
	if initial < 1 {
		initial = 1
	}
	if limit < initial {
		limit = initial
	}
	q := &Queue[T]{
		buf:   make([]T, initial),
		limit: limit,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send appends item. It returns false once the queue is closed.
func (q *Queue[T]) Send(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if q.count == q.limit {
		q.pop()
		q.dropped++
	}

	threshold := max(len(q.buf)*70/100, 1)
	if q.count+1 >= threshold && len(q.buf) < q.limit {
		q.grow()
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % len(q.buf)
	q.count++
	q.sent++

	q.cond.Signal()
	return true
}

// Receive blocks until an item is available or the queue is closed and empty.
func (q *Queue[T]) Receive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// TryReceive returns the next item without blocking.
func (q *Queue[T]) TryReceive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// Close wakes all receivers. Remaining items can still be received.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// QueueStats describes a queue.
type QueueStats struct {
	Count    int
	Capacity int
	Sent     int64
	Dropped  int64
	Resizes  int
}

// Stats returns queue statistics.
func (q *Queue[T]) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Count:    q.count,
		Capacity: len(q.buf),
		Sent:     q.sent,
		Dropped:  q.dropped,
		Resizes:  q.resizes,
	}
}

// pop removes the head item. Must be called with lock held and count > 0.
func (q *Queue[T]) pop() T {
	item := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // Clear reference for GC
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return item
}

// grow doubles capacity, capped at limit. Must be called with lock held.
func (q *Queue[T]) grow() {
	next := make([]T, min(len(q.buf)*2, q.limit))

	if q.count > 0 {
		if q.head < q.tail {
			copy(next, q.buf[q.head:q.tail])
		} else {
			n := copy(next, q.buf[q.head:])
			copy(next[n:], q.buf[:q.tail])
		}
	}

	q.buf = next
	q.head = 0
	q.tail = q.count
	q.resizes++
}
