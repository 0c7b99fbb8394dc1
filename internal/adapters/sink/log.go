package sink

import (
	"context"

	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/pkg/logger"
)

// Log writes one structured line per notification.
type Log struct {
	log logger.Logger
}

// NewLog creates a log sink. A nil logger uses the global one.
func NewLog(l logger.Logger) *Log {
	if l == nil {
		l = logger.Get()
	}
	return &Log{log: l.Named("notifications")}
}

func (s *Log) Name() string { return "log" }

func (s *Log) Deliver(ctx context.Context, n model.Notification) error { //nolint:gocritic // hugeParam: matches worker.Sink
	s.log.Info(ctx, string(n.Kind),
		logger.String("id", n.ID),
		logger.String("table", n.Table),
		logger.String("match_id", n.MatchID),
		logger.Any("payload", n.Payload),
	)
	return nil
}
