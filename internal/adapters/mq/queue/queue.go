// Package queue buffers submitted segments until a worker picks them up.
package queue

import (
	"context"
	"sync"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Segment is the payload flowing through the queue.
type Segment = model.Segment

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue returns ErrQueueFull or ErrQueueClosed when s was not queued.
	Enqueue(ctx context.Context, s Segment) error

	// Dequeue returns a channel receiving segments until the queue is
	// closed and drained or ctx is done.
	Dequeue(ctx context.Context) <-chan Segment

	// Len returns the current number of queued segments.
	Len(ctx context.Context) int

	// Close stops accepting segments. Queued segments are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	segments chan Segment
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.segments = make(chan Segment, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a segment to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Segment) error { //nolint:gocritic // hugeParam: Segment is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.segments <- s:
		metrics.UpdateQueueSize(len(q.segments))
		return nil
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns a channel that will receive segments as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Segment {
	out := make(chan Segment)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-q.segments:
				if !ok {
					return
				}
				select {
				case out <- s:
					metrics.UpdateQueueSize(len(q.segments))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued segments.
func (q *InMemoryQueue) Len(context.Context) int {
	size := len(q.segments)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.segments)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
