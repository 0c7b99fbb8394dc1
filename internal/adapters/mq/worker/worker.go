// Package worker delivers queued notifications to their sinks.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/bout/internal/domain/dedupe"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/pkg/logger"
	"github.com/okian/bout/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultRetryDelay   = 100 * time.Millisecond
	poolShutdownTimeout = 5 * time.Second
)

// Sink is an external collaborator receiving notifications, such as
// analytics or the whistle.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n model.Notification) error
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Notification
}

// Worker delivers notifications until its queue is drained or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker fans each notification out to every sink. A failed delivery
// is retried once after retryDelay and then logged; it never stops the loop.
type InMemoryWorker struct {
	queue      Queue
	sinks      []Sink
	name       string
	retryDelay time.Duration
	deduper    dedupe.Deduper

	delivered atomic.Int64
	failed    atomic.Int64
	active    *atomic.Int64 // shared with the pool

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sinks []Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		sinks:      sinks,
		name:       "worker",
		retryDelay: defaultRetryDelay,
		active:     &atomic.Int64{},
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run consumes the queue until it is closed and drained, ctx is done or
// Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			w.process(ctx, n)
		}
	}
}

// Shutdown stops the worker without draining.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
}

// Delivered returns how many sink deliveries succeeded.
func (w *InMemoryWorker) Delivered() int64 { return w.delivered.Load() }

// Failed returns how many sink deliveries failed after the retry.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, n model.Notification) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	if w.deduper != nil && w.deduper.SeenAndRecord(ctx, n.ID) {
		metrics.RecordNotificationDuplicate()
		w.logger.Debug(ctx, "skipping duplicate notification", logger.String("id", n.ID))
		return
	}

	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() { metrics.UpdateWorkerActiveCount(int(w.active.Add(-1))) }()

	for _, s := range w.sinks {
		if err := w.deliver(ctx, s, n); err != nil {
			w.failed.Add(1)
			metrics.RecordDeliveryFailure(s.Name())
			metrics.RecordErrorByComponent("worker", "delivery_failed")
			w.logger.Warn(ctx, "notification delivery failed",
				logger.String("sink", s.Name()),
				logger.String("kind", string(n.Kind)),
				logger.String("table", n.Table),
				logger.Error(err))
			continue
		}
		w.delivered.Add(1)
	}
}

// deliver makes at most two attempts separated by retryDelay.
func (w *InMemoryWorker) deliver(ctx context.Context, s Sink, n model.Notification) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.RecordDeliveryRetry(s.Name())
		}
		start := time.Now()
		err := s.Deliver(ctx, n)
		metrics.RecordDeliveryLatency(s.Name(), float64(time.Since(start).Microseconds())/1000)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(w.retryDelay), 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("deliver %s to %s after %d attempts: %w", n.Kind, s.Name(), attempt, err)
	}
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int64
	logger  logger.Logger
}

// NewPool creates count workers delivering to sinks. Options apply to every
// worker; names are suffixed with the worker index.
func NewPool(count int, queue Queue, sinks []Sink, opts ...Option) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		queue:   queue,
		logger:  logger.Nop(),
	}
	for i := 0; i < count; i++ {
		w := NewInMemoryWorker(queue, sinks, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
		w.active = &p.active
		p.workers[i] = w
	}
	p.logger = p.workers[0].logger

	metrics.UpdateWorkerCount(count)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats returns successful and failed deliveries across workers.
func (p *Pool) Stats() (delivered, failed int64) {
	for _, w := range p.workers {
		delivered += w.Delivered()
		failed += w.Failed()
	}
	return delivered, failed
}

// Shutdown closes the queue, lets the workers drain what is buffered and
// then stops any worker still running when ctx or the pool timeout ends.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
