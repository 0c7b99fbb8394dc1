// Package repository persists the match configuration in a key-value store.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/bout/pkg/logger"
	"github.com/okian/bout/pkg/metrics"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Config selects and addresses a backend.
type Config struct {
	Backend       string
	Path          string // file and sqlite
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open creates the configured backend wrapped with store metrics.
func Open(ctx context.Context, cfg Config, opts ...Option) (Store, error) {
	o := openOptions{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		s   Store
		err error
	)
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case BackendMemory, "":
		backend = BackendMemory
		s = NewMemoryStore()
	case BackendFile:
		s, err = NewFileStore(cfg.Path)
	case BackendRedis:
		if o.redisClient != nil {
			s, err = NewRedisStoreWithClient(ctx, o.redisClient)
		} else {
			s, err = NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
	case BackendSQLite:
		s, err = NewSQLiteStore(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}

	o.logger.Debug(ctx, "config store opened", logger.String("backend", backend))
	return &instrumented{Store: s, backend: backend}, nil
}

// instrumented records the latency and outcome of every call.
type instrumented struct {
	Store
	backend string
}

func (s *instrumented) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	v, err := s.Store.Get(ctx, key)
	s.record("get", start, err)
	return v, err
}

func (s *instrumented) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.Store.Set(ctx, key, value)
	s.record("set", start, err)
	return err
}

func (s *instrumented) record(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case isNotFound(err):
		result = "not_found"
	default:
		result = "error"
		metrics.RecordErrorByComponent("store", s.backend+"_"+op)
	}
	metrics.RecordStoreOperation(s.backend, op, result, float64(time.Since(start).Microseconds())/1000)
}
