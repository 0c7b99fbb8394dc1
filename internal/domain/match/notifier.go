package match

import (
	"context"

	"github.com/okian/bout/internal/domain/model"
)

// Notifier receives side-effect notifications. Notify is called with the
// match lock held and must not block or call back into the match.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n model.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n model.Notification) { f(ctx, n) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) {}
