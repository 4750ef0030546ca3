// Package worker runs the background loop that applies refresh requests.
package worker

import (
	"context"
	"fmt"

	"github.com/okian/scorecard/internal/adapters/mq/queue"
	"github.com/okian/scorecard/pkg/logger"
	"github.com/okian/scorecard/pkg/metrics"
)

// Reloader reloads the snapshot. reason is informational.
type Reloader interface {
	Reload(ctx context.Context, reason string) error
}

// Queue defines how the refresher receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Refresher drains a request queue and reloads once per burst.
type Refresher struct {
	queue    Queue
	reloader Reloader
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewRefresher creates a refresher with configuration options.
func NewRefresher(q Queue, r Reloader, opts ...Option) *Refresher {
	w := &Refresher{
		queue:    q,
		reloader: r,
		name:     "refresher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes requests until ctx is cancelled, Shutdown is called or the
// queue is closed.
func (w *Refresher) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			merged := drain(requests)
			if err := w.process(ctx, req, merged); err != nil {
				w.logger.Error(ctx, "snapshot refresh failed", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the loop and waits for the in-flight reload to finish.
func (w *Refresher) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *Refresher) Done() <-chan struct{} {
	return w.done
}

func (w *Refresher) process(ctx context.Context, req queue.Request, merged int) error {
	w.logger.Debug(ctx, "refreshing snapshot",
		logger.String("request_id", req.ID),
		logger.String("reason", req.Reason),
		logger.Int("merged", merged),
	)
	if err := w.reloader.Reload(ctx, req.Reason); err != nil {
		metrics.RecordErrorByType("snapshot_reload", "high")
		return fmt.Errorf("request %s: %w", req.ID, err)
	}
	return nil
}

// drain discards requests already queued behind the current one; a single
// reload satisfies them all.
func drain(requests <-chan queue.Request) int {
	n := 0
	for {
		select {
		case _, ok := <-requests:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
