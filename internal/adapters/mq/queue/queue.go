// Package queue buffers vote rounds between the HTTP handlers and the single
// writer that applies them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/pkg/metrics"
)

const defaultCapacity = 1024

// Queue is a bounded FIFO of vote rounds.
type Queue interface {
	// Enqueue adds r without blocking. It fails with ErrFull or ErrClosed.
	Enqueue(ctx context.Context, r model.Round) error
	// Next blocks until a round is available. After Close it drains what is left
	// and then returns ErrClosed.
	Next(ctx context.Context) (model.Round, error)
	// Len returns the number of waiting rounds.
	Len() int
	// Cap returns the capacity.
	Cap() int
	Close() error
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	rounds   chan model.Round
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.rounds = make(chan model.Round, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, r model.Round) error {
	// The read lock keeps Close from closing the channel under a send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}

	select {
	case q.rounds <- r:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "full")
		return ErrFull
	}
}

func (q *InMemoryQueue) Next(ctx context.Context) (model.Round, error) {
	select {
	case r, ok := <-q.rounds:
		if !ok {
			return model.Round{}, ErrClosed
		}
		metrics.RecordQueueDequeue()
		q.observe()
		return r, nil
	case <-ctx.Done():
		return model.Round{}, ctx.Err()
	}
}

func (q *InMemoryQueue) Len() int { return len(q.rounds) }

func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops new enqueues. Waiting rounds can still be drained with Next.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.rounds)
	}
	return nil
}

func (q *InMemoryQueue) observe() {
	n := len(q.rounds)
	metrics.UpdateQueueSize(n)
	metrics.UpdateQueueUtilization(float64(n) / float64(q.capacity))
}
