// Package worker delivers queued notifications to their sinks.
package worker

import (
	"time"

	"github.com/okian/bout/internal/domain/dedupe"
	"github.com/okian/bout/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRetryDelay sets the wait before the single retry of a failed delivery.
func WithRetryDelay(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.retryDelay = d
		}
	}
}

// WithDeduper skips notifications whose id was already handled. Workers of
// one pool should share the deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *InMemoryWorker) {
		w.deduper = d
	}
}
