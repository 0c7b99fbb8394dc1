package service

import (
	"time"

	"github.com/okian/bout/internal/adapters/mq/worker"
	"github.com/okian/bout/internal/adapters/repository"
	"github.com/okian/bout/internal/config"
	"github.com/okian/bout/internal/domain/clock"
	"github.com/okian/bout/internal/domain/timeline"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the match config store. The service closes it on Stop.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithStoreKey sets the key the match config is kept under.
func WithStoreKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.storeKey = key
		}
	}
}

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the notification queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRetryDelay sets the pause before the single delivery retry.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithSinks sets the notification sinks, in delivery order.
func WithSinks(sinks ...worker.Sink) Option {
	return func(s *Service) {
		s.sinks = sinks
	}
}

// WithExitPenalty sets the exit penalty for every match opened.
func WithExitPenalty(p types.ExitPenalty) Option {
	return func(s *Service) {
		s.exitPenalty = p
	}
}

// WithTimelineOptions passes options to every match timeline.
func WithTimelineOptions(opts ...timeline.Option) Option {
	return func(s *Service) {
		s.timelineOpts = append(s.timelineOpts, opts...)
	}
}

// WithClockOptions passes options to every match clock.
func WithClockOptions(opts ...clock.Option) Option {
	return func(s *Service) {
		s.clockOpts = append(s.clockOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// FromConfig translates process configuration into service options. The
// store and sinks are supplied by the caller.
func FromConfig(cfg *config.Config) ([]Option, error) {
	penalty, err := types.ParseExitPenalty(cfg.ExitPenalty)
	if err != nil {
		return nil, err
	}
	order, err := types.ParseTimelineOrder(cfg.TimelineOrder)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithStoreKey(cfg.StoreKey),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithRetryDelay(cfg.RetryDelay()),
		WithExitPenalty(penalty),
		WithTimelineOptions(
			timeline.WithOrder(order),
			timeline.WithDescriber(timeline.NewDescriber(cfg.Locale)),
		),
		WithClockOptions(clock.WithInterval(cfg.TickInterval())),
	}, nil
}
