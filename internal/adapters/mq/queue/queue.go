// Package queue holds pending snapshot refresh requests.
//
// Requests come from the periodic ticker, the file watcher and the HTTP
// refresh endpoint. The queue is bounded and never blocks the caller.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/scorecard/pkg/metrics"
)

const defaultQueueCapacity = 8

// Request asks for the snapshot to be reloaded.
type Request struct {
	ID     string
	Reason string
	At     time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. It returns false when the queue is full or
	// closed.
	Enqueue(ctx context.Context, r Request) bool

	// Dequeue returns the channel requests are delivered on. It is closed
	// when the queue is closed.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the number of pending requests.
	Len(ctx context.Context) int

	// Close stops accepting requests.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
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
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateRefreshQueueSize(0)
	return q
}

// Enqueue adds a request without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRefreshRejected()
		return false
	}

	select {
	case q.requests <- r:
		metrics.UpdateRefreshQueueSize(len(q.requests))
		return true
	case <-ctx.Done():
		metrics.RecordRefreshRejected()
		return false
	default:
		metrics.RecordRefreshRejected()
		return false
	}
}

// Dequeue returns the request channel.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	return q.requests
}

// Len returns the number of pending requests.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.requests)
	metrics.UpdateRefreshQueueSize(size)
	return size
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops accepting requests and closes the dequeue channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
