// Package config defines process configuration and its loading.
//
// Conventions:
//   - Flat koanf keys, one per field, matching the BOUT_ environment names.
//   - New returns the defaults; Load layers a YAML file and the environment
//     on top and validates the result.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okian/bout/internal/adapters/repository"
	"github.com/okian/bout/internal/domain/types"
)

var metricNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Table names the scoreboard this process drives.
	Table string `koanf:"table"`

	// StoreBackend selects the match config store: memory, file, redis, sqlite.
	StoreBackend string `koanf:"store_backend"`
	// StorePath is the file or database path for the file and sqlite backends.
	StorePath string `koanf:"store_path"`
	// StoreKey is the key the match config is kept under.
	StoreKey string `koanf:"store_key"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// ExitPenalty is what an exit warning turns into: foul_offender or point_opponent.
	ExitPenalty string `koanf:"exit_penalty"`
	// TimelineOrder is oldest_first or newest_first.
	TimelineOrder string `koanf:"timeline_order"`
	// Locale picks the timeline description catalog, e.g. "en" or "es".
	Locale string `koanf:"locale"`

	// QueueSize bounds the in-memory notification queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of delivery workers. One keeps delivery in
	// emission order.
	WorkerCount int `koanf:"worker_count"`
	// RetryDelayMS is the pause before the single delivery retry.
	RetryDelayMS int `koanf:"retry_delay_ms"`
	// TickIntervalMS is the wall-clock length of one match second.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// Whistle enables the terminal bell on match finish.
	Whistle bool `koanf:"whistle"`
	// MetricsTextfile, when set, receives a Prometheus text dump on exit.
	MetricsTextfile string `koanf:"metrics_textfile"`
	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Table:            "default",
		StoreBackend:     repository.BackendFile,
		StorePath:        "bout-store.json",
		StoreKey:         repository.DefaultConfigKey,
		RedisAddr:        "localhost:6379",
		ExitPenalty:      string(types.ExitPenaltyFoul),
		TimelineOrder:    string(types.OldestFirst),
		Locale:           "en",
		QueueSize:        1024,
		WorkerCount:      1,
		RetryDelayMS:     100,
		TickIntervalMS:   1000,
		Whistle:          true,
		MetricsNamespace: "bout",
	}
}

// RetryDelay returns RetryDelayMS as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// TickInterval returns TickIntervalMS as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// Store returns the repository settings.
func (c *Config) Store() repository.Config {
	return repository.Config{
		Backend:       c.StoreBackend,
		Path:          c.StorePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

// Validate checks every field that has a closed set of values or a range.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if strings.TrimSpace(c.Table) == "" {
		return fmt.Errorf("%w: table must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.StoreKey) == "" {
		return fmt.Errorf("%w: store_key must not be empty", ErrInvalidConfig)
	}

	switch strings.ToLower(c.StoreBackend) {
	case repository.BackendMemory:
	case repository.BackendFile, repository.BackendSQLite:
		if strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("%w: store_path is required for %s", ErrInvalidConfig, c.StoreBackend)
		}
	case repository.BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("%w: redis_addr is required for redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}

	if _, err := types.ParseExitPenalty(c.ExitPenalty); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := types.ParseTimelineOrder(c.TimelineOrder); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.RetryDelayMS < 0 {
		return fmt.Errorf("%w: retry_delay_ms must not be negative", ErrInvalidConfig)
	}
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	}
	if !metricNamespace.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace %q is not a metric name", ErrInvalidConfig, c.MetricsNamespace)
	}
	return nil
}
