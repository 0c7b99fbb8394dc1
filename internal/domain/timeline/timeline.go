// Package timeline keeps the append-only log of counted changes during a match.
package timeline

import (
	"sort"

	"github.com/google/uuid"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
)

// Timeline is an append-only log sorted by match time. It is not safe for
// concurrent use; the owning match serializes access.
type Timeline struct {
	entries   []model.TimelineEntry // kept oldest first
	order     types.TimelineOrder
	describer Describer
	newID     func() string
}

// New creates an empty timeline presenting entries oldest first in English
// unless configured otherwise.
func New(opts ...Option) *Timeline {
	t := &Timeline{
		order:     types.OldestFirst,
		describer: NewDescriber("en"),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add appends an entry and keeps the log sorted by match time. Entries with
// equal times stay in insertion order.
func (t *Timeline) Add(kind types.Kind, c types.Competitor, delta int, matchTimeSeconds float64) model.TimelineEntry {
	e := model.TimelineEntry{
		ID:               t.newID(),
		MatchTimeSeconds: matchTimeSeconds,
		Kind:             kind,
		Competitor:       c,
		Delta:            delta,
		Description:      t.describer.Describe(kind, c, delta),
	}
	t.entries = append(t.entries, e)
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].MatchTimeSeconds < t.entries[j].MatchTimeSeconds
	})
	return e
}

// Entries returns a copy of the log in the configured order.
func (t *Timeline) Entries() []model.TimelineEntry {
	out := make([]model.TimelineEntry, len(t.entries))
	copy(out, t.entries)
	if t.order == types.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].MatchTimeSeconds > out[j].MatchTimeSeconds
		})
	}
	return out
}

// Len returns the number of entries.
func (t *Timeline) Len() int { return len(t.entries) }

// Order returns the presentation order.
func (t *Timeline) Order() types.TimelineOrder { return t.order }

// Reset drops every entry.
func (t *Timeline) Reset() { t.entries = nil }
