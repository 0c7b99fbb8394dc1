package match

import (
	"time"

	"github.com/okian/bout/internal/domain/clock"
	"github.com/okian/bout/internal/domain/dedupe"
	"github.com/okian/bout/internal/domain/timeline"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/pkg/logger"
)

// Option applies a configuration option to the Match.
type Option func(*Match)

// WithTable names the table the match runs on.
func WithTable(table string) Option {
	return func(m *Match) {
		m.table = table
	}
}

// WithExitPenalty selects how a new exit warning level is punished.
func WithExitPenalty(p types.ExitPenalty) Option {
	return func(m *Match) {
		if p == types.ExitPenaltyFoul || p == types.ExitPenaltyPoint {
			m.penalty = p
		}
	}
}

// WithTimelineOptions configures the match timeline.
func WithTimelineOptions(opts ...timeline.Option) Option {
	return func(m *Match) {
		m.timelineOpts = append(m.timelineOpts, opts...)
	}
}

// WithClockOptions configures the match clock. A tick callback passed here
// is replaced by the match's own.
func WithClockOptions(opts ...clock.Option) Option {
	return func(m *Match) {
		m.clockOpts = append(m.clockOpts, opts...)
	}
}

// WithNotifier sets the receiver of side-effect notifications.
func WithNotifier(n Notifier) Option {
	return func(m *Match) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Match) {
		if l != nil {
			m.log = l
		}
	}
}

// WithLatch sets the deduper guarding the one-shot finish notification.
// Matches on different tables may share one.
func WithLatch(d dedupe.Deduper) Option {
	return func(m *Match) {
		if d != nil {
			m.latch = d
		}
	}
}

// WithIDFunc replaces the generator for lifecycle and notification ids.
func WithIDFunc(fn func() string) Option {
	return func(m *Match) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithNow replaces the wall clock used to stamp notifications.
func WithNow(fn func() time.Time) Option {
	return func(m *Match) {
		if fn != nil {
			m.now = fn
		}
	}
}
