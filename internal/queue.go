package internal

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue is a bounded FIFO shared by many producers and consumers. Add never
// blocks: when the queue is full the oldest buffered item is evicted to make
// room for the new one.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	size   int
	closed bool

	// one token per buffered item, so takers can wait with select
	ready   chan struct{}
	done    chan struct{}
	dropped atomic.Int64
}

func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		items: make([]T, capacity),
		ready: make(chan struct{}, capacity),
		done:  make(chan struct{}),
	}
}

func (q *Queue[T]) Add(t T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	capacity := len(q.items)
	if q.size == capacity {
		// the oldest slot becomes the newest; the token count stays the same
		q.items[q.head] = t
		q.head = (q.head + 1) % capacity
		q.dropped.Add(1)
		return nil
	}

	q.items[(q.head+q.size)%capacity] = t
	q.size++
	q.ready <- struct{}{}
	return nil
}

// Take waits for the next item. It returns ErrQueueClosed once the queue is
// closed and drained, or the context error when ctx is done first.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		q.mu.Lock()
		if q.size > 0 {
			t := q.items[q.head]
			q.items[q.head] = zero
			q.head = (q.head + 1) % len(q.items)
			q.size--
			q.mu.Unlock()
			return t, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, ErrQueueClosed
		}
	}
}

// Close stops admissions. Buffered items can still be taken.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *Queue[T]) Cap() int {
	return len(q.items)
}

// Dropped is the number of items evicted by overflow.
func (q *Queue[T]) Dropped() int64 {
	return q.dropped.Load()
}
