// File: queue/bounded.go
// Package queue implements a fixed-capacity blocking FIFO.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded decouples a producer from a consumer with its own lock and
// two wait conditions (not-empty, not-full). Once a session's workers
// are active it is the single hand-off point between them and callers.
// Close is the cooperative cancellation point: blocked Push and Pop
// calls return ErrQueueClosed instead of waiting forever.

package queue

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/netsess/api"
)

// Bounded is a fixed-capacity FIFO with blocking push/pop.
type Bounded[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items  []T
	head   int
	tail   int
	size   int
	closed bool

	// mirrors size for lock-free Len snapshots
	snap atomic.Int64
}

// New allocates a queue holding up to capacity items.
func New[T any](capacity int) (*Bounded[T], error) {
	if capacity <= 0 {
		return nil, api.ErrInvalidArgument
	}
	q := &Bounded[T]{items: make([]T, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// Push appends item, blocking while the queue is full.
// Returns ErrQueueClosed if the queue is closed before space appears.
func (q *Bounded[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size == len(q.items) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return api.ErrQueueClosed
	}
	q.items[q.tail] = item
	q.tail = (q.tail + 1) % len(q.items)
	q.size++
	q.snap.Store(int64(q.size))
	q.notEmpty.Signal()
	return nil
}

// Pop removes the oldest item, blocking while the queue is empty.
// Remaining items are still delivered after Close; once drained,
// Pop returns ErrQueueClosed.
func (q *Bounded[T]) Pop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.size == 0 {
		var zero T
		return zero, api.ErrQueueClosed
	}
	return q.popLocked(), nil
}

// TryPush appends item without blocking.
func (q *Bounded[T]) TryPush(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return api.ErrQueueClosed
	}
	if q.size == len(q.items) {
		return api.ErrQueueFull
	}
	q.items[q.tail] = item
	q.tail = (q.tail + 1) % len(q.items)
	q.size++
	q.snap.Store(int64(q.size))
	q.notEmpty.Signal()
	return nil
}

// TryPop removes the oldest item without blocking.
func (q *Bounded[T]) TryPop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		var zero T
		if q.closed {
			return zero, api.ErrQueueClosed
		}
		return zero, api.ErrQueueEmpty
	}
	return q.popLocked(), nil
}

func (q *Bounded[T]) popLocked() T {
	item := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	q.snap.Store(int64(q.size))
	q.notFull.Signal()
	return item
}

// Drain removes and returns all queued items in FIFO order without
// blocking. Works on open and closed queues; waiting producers are
// signaled as slots free up.
func (q *Bounded[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, 0, q.size)
	for q.size > 0 {
		out = append(out, q.popLocked())
	}
	return out
}

// Len returns an instantaneous, racy size snapshot without taking the
// queue lock. Diagnostics only.
func (q *Bounded[T]) Len() int {
	return int(q.snap.Load())
}

// Cap returns the fixed capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.items)
}

// Close marks the queue closed and wakes all blocked waiters.
// Idempotent.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
