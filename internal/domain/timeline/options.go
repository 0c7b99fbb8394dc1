package timeline

import "github.com/okian/bout/internal/domain/types"

// Option applies a configuration option to the Timeline.
type Option func(*Timeline)

// WithOrder sets the presentation order of Entries.
func WithOrder(order types.TimelineOrder) Option {
	return func(t *Timeline) {
		if order == types.OldestFirst || order == types.NewestFirst {
			t.order = order
		}
	}
}

// WithDescriber replaces the description renderer.
func WithDescriber(d Describer) Option {
	return func(t *Timeline) {
		if d != nil {
			t.describer = d
		}
	}
}

// WithIDFunc replaces the entry id generator.
func WithIDFunc(fn func() string) Option {
	return func(t *Timeline) {
		if fn != nil {
			t.newID = fn
		}
	}
}
