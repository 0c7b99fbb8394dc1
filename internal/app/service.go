// Package service wires matches to the config store and the notification
// pipeline. One Service can run several tables at once.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/bout/internal/adapters/mq/queue"
	workerpool "github.com/okian/bout/internal/adapters/mq/worker"
	"github.com/okian/bout/internal/adapters/repository"
	"github.com/okian/bout/internal/domain/clock"
	"github.com/okian/bout/internal/domain/dedupe"
	"github.com/okian/bout/internal/domain/match"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/timeline"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/pkg/logger"
	"github.com/okian/bout/pkg/metrics"
)

// Service owns the config store, the notification queue and its workers,
// and the open matches keyed by table.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	queue    atomic.Pointer[eventqueue.InMemoryQueue] // read by Notify without the lock
	pool     *workerpool.Pool
	sinks    []workerpool.Sink
	latch    dedupe.Deduper // finish latches of every match
	matches  map[string]*match.Match
	matchCfg model.MatchConfig

	// Configuration
	storeKey     string
	workerCount  int
	queueSize    int
	retryDelay   time.Duration
	exitPenalty  types.ExitPenalty
	timelineOpts []timeline.Option
	clockOpts    []clock.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// ConfigResult reports which open tables took a new config at once and
// which hold it until their next reset.
type ConfigResult struct {
	Applied  []string
	Deferred []string
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeKey:    repository.DefaultConfigKey,
		workerCount: 1, // one worker keeps delivery in emission order
		queueSize:   1024,
		retryDelay:  100 * time.Millisecond,
		exitPenalty: types.ExitPenaltyFoul,
		matches:     make(map[string]*match.Match),
		matchCfg:    model.DefaultMatchConfig(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the stored match config and starts the delivery workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	s.logger.Info(ctx, "starting scoreboard service...")

	s.matchCfg = repository.LoadMatchConfig(ctx, s.store, s.storeKey, s.logger.Named("store"))
	s.latch = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(4096))
	q := eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.queue.Store(q)
	s.pool = workerpool.NewPool(s.workerCount, q, s.sinks,
		workerpool.WithLogger(s.logger),
		workerpool.WithRetryDelay(s.retryDelay),
		workerpool.WithDeduper(dedupe.NewInMemoryDeduper()),
	)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "scoreboard service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("sinks", len(s.sinks)),
		logger.Any("config", s.matchCfg),
	)
	return nil
}

// Stop closes every match, drains the queued notifications and closes the
// store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping scoreboard service...")

	for table, m := range s.matches {
		m.Close(ctx)
		delete(s.matches, table)
	}
	metrics.UpdateMatchesActive(0)

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown workers: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "scoreboard service stopped")
	return errors.Join(errs...)
}

// OpenMatch returns the match on table, creating it with the current config
// if none is open.
func (s *Service) OpenMatch(ctx context.Context, table string) (*match.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	if m, ok := s.matches[table]; ok {
		return m, nil
	}

	m, err := match.New(s.matchCfg,
		match.WithTable(table),
		match.WithExitPenalty(s.exitPenalty),
		match.WithTimelineOptions(s.timelineOpts...),
		match.WithClockOptions(s.clockOpts...),
		match.WithNotifier(s),
		match.WithLatch(s.latch),
		match.WithLogger(s.logger.Named("match")),
	)
	if err != nil {
		return nil, fmt.Errorf("open match %q: %w", table, err)
	}
	s.matches[table] = m
	metrics.UpdateMatchesActive(len(s.matches))
	s.logger.Info(ctx, "match opened", logger.String("table", table), logger.String("match_id", m.ID()))
	return m, nil
}

// Match returns the open match on table.
func (s *Service) Match(table string) (*match.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[table]
	return m, ok
}

// Tables lists the open tables in name order.
func (s *Service) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tables := make([]string, 0, len(s.matches))
	for t := range s.matches {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// CloseMatch stops and forgets the match on table. It reports whether one
// was open.
func (s *Service) CloseMatch(ctx context.Context, table string) bool {
	s.mu.Lock()
	m, ok := s.matches[table]
	if ok {
		delete(s.matches, table)
		metrics.UpdateMatchesActive(len(s.matches))
	}
	s.mu.Unlock()

	if ok {
		m.Close(ctx)
		s.logger.Info(ctx, "match closed", logger.String("table", table))
	}
	return ok
}

// Config returns the match config new matches start with.
func (s *Service) Config(_ context.Context) model.MatchConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matchCfg
}

// UpdateConfig makes cfg the config for new matches, hands it to every open
// match and persists it. A failed save is logged and returned wrapped in
// ErrConfigNotSaved; the config is in force regardless.
func (s *Service) UpdateConfig(ctx context.Context, cfg model.MatchConfig) (ConfigResult, error) {
	if err := cfg.Validate(); err != nil {
		return ConfigResult{}, fmt.Errorf("update config: %w", err)
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ConfigResult{}, ErrNotStarted
	}
	s.matchCfg = cfg
	open := make(map[string]*match.Match, len(s.matches))
	for t, m := range s.matches {
		open[t] = m
	}
	store, key := s.store, s.storeKey
	s.mu.Unlock()

	var res ConfigResult
	for table, m := range open {
		applied, err := m.Configure(ctx, cfg)
		switch {
		case errors.Is(err, match.ErrMatchClosed):
			continue
		case err != nil:
			return res, err
		case applied:
			res.Applied = append(res.Applied, table)
		default:
			res.Deferred = append(res.Deferred, table)
		}
	}
	sort.Strings(res.Applied)
	sort.Strings(res.Deferred)

	s.Notify(ctx, model.Notification{
		ID:      uuid.NewString(),
		Kind:    model.NotifyConfigChanged,
		At:      time.Now(),
		Payload: model.ConfigPayload{Config: cfg},
	})

	if err := repository.SaveMatchConfig(ctx, store, key, cfg); err != nil {
		s.logger.Error(ctx, "saving match config failed", logger.Error(err))
		metrics.RecordErrorByComponent("service", "config_save")
		return res, fmt.Errorf("%w: %w", ErrConfigNotSaved, err)
	}
	s.logger.Info(ctx, "match config updated", logger.Any("config", cfg),
		logger.Int("applied", len(res.Applied)), logger.Int("deferred", len(res.Deferred)))
	return res, nil
}

// ResetConfig restores the default rules through UpdateConfig.
func (s *Service) ResetConfig(ctx context.Context) (ConfigResult, error) {
	return s.UpdateConfig(ctx, model.DefaultMatchConfig())
}

// Notify hands n to the delivery queue without blocking. Matches call it
// under their own lock, so it never takes the service lock. A full or closed
// queue drops n with a warning.
func (s *Service) Notify(ctx context.Context, n model.Notification) { //nolint:gocritic // hugeParam: matches match.Notifier
	q := s.queue.Load()
	if q == nil {
		metrics.RecordNotificationDropped("not_started")
		return
	}
	err := q.Enqueue(ctx, n)
	switch {
	case err == nil:
		metrics.RecordNotificationEmitted(string(n.Kind))
	case errors.Is(err, eventqueue.ErrQueueFull):
		metrics.RecordNotificationDropped("queue_full")
		s.logger.Warn(ctx, "notification dropped, queue full",
			logger.String("kind", string(n.Kind)), logger.String("table", n.Table))
	default:
		metrics.RecordNotificationDropped("queue_closed")
		s.logger.Warn(ctx, "notification dropped", logger.String("kind", string(n.Kind)), logger.Error(err))
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"matches":     len(s.matches),
	}

	if s.started {
		queueLen := s.queue.Load().Len(context.Background())
		delivered, failed := s.pool.Stats()

		stats["queueLength"] = queueLen
		stats["delivered"] = delivered
		stats["failed"] = failed
		stats["latches"] = s.latch.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
		metrics.UpdateMatchesActive(len(s.matches))
	}

	return stats
}
