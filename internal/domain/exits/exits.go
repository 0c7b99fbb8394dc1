// Package exits counts ring exits and signals a penalty each time a competitor
// reaches a new warning level.
package exits

import (
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
)

// PenaltyFunc receives the competitor whose exits triggered a penalty.
type PenaltyFunc func(offender types.Competitor)

// Tracker counts exits per competitor.
type Tracker struct {
	exits           model.Pair
	lastFoulExits   model.Pair // exit count at the last penalty
	exitsForWarning int
	onPenalty       PenaltyFunc
}

// NewTracker creates a tracker signalling onPenalty whenever a competitor's
// warning level rises above the level of its last penalty. onPenalty may be nil.
func NewTracker(exitsForWarning int, onPenalty PenaltyFunc) *Tracker {
	return &Tracker{exitsForWarning: exitsForWarning, onPenalty: onPenalty}
}

// Add records one exit for c and returns the count before and after.
func (t *Tracker) Add(c types.Competitor) (old, updated int) {
	old = t.exits[c]
	updated = old + 1
	t.exits[c] = updated

	if updated >= t.exitsForWarning && t.level(updated) > t.level(t.lastFoulExits[c]) {
		t.lastFoulExits[c] = updated
		if t.onPenalty != nil {
			t.onPenalty(c)
		}
	}
	return old, updated
}

// Remove takes one exit back from c. It is a no-op at zero. The penalty
// high-water mark is kept, so climbing back does not penalize twice.
func (t *Tracker) Remove(c types.Competitor) (old, updated int) {
	old = t.exits[c]
	if old == 0 {
		return 0, 0
	}
	t.exits[c] = old - 1
	return old, old - 1
}

// Warnings returns floor(exits / exitsForWarning) for c.
func (t *Tracker) Warnings(c types.Competitor) int { return t.level(t.exits[c]) }

// WarningPair returns both warning levels.
func (t *Tracker) WarningPair() model.Pair {
	return model.Pair{t.Warnings(types.A), t.Warnings(types.B)}
}

// Exits returns c's count.
func (t *Tracker) Exits(c types.Competitor) int { return t.exits[c] }

// Pair returns both counts.
func (t *Tracker) Pair() model.Pair { return t.exits }

// SetThreshold changes exitsForWarning.
func (t *Tracker) SetThreshold(exitsForWarning int) { t.exitsForWarning = exitsForWarning }

// Reset zeros counts and high-water marks.
func (t *Tracker) Reset() {
	t.exits = model.Pair{}
	t.lastFoulExits = model.Pair{}
}

func (t *Tracker) level(exits int) int { return exits / t.exitsForWarning }
