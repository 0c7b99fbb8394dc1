// Package fouls counts fouls and converts every foulsForPoint of them into a
// point for the opponent.
package fouls

import (
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
)

// AwardFunc receives the competitor who earns a point from the opponent's fouls.
type AwardFunc func(beneficiary types.Competitor)

// Tracker counts fouls per competitor.
type Tracker struct {
	fouls         model.Pair
	foulsForPoint int
	onAward       AwardFunc
}

// NewTracker creates a tracker that calls onAward each time a competitor's
// count rises onto a multiple of foulsForPoint. onAward may be nil.
func NewTracker(foulsForPoint int, onAward AwardFunc) *Tracker {
	return &Tracker{foulsForPoint: foulsForPoint, onAward: onAward}
}

// Add records one foul against c and returns the count before and after.
func (t *Tracker) Add(c types.Competitor) (old, updated int) {
	old = t.fouls[c]
	updated = old + 1
	t.fouls[c] = updated

	// Reaching a multiple again after a removal awards again.
	if updated%t.foulsForPoint == 0 && t.onAward != nil {
		t.onAward(c.Opponent())
	}
	return old, updated
}

// Remove takes one foul back from c. It is a no-op at zero and never awards.
func (t *Tracker) Remove(c types.Competitor) (old, updated int) {
	old = t.fouls[c]
	if old == 0 {
		return 0, 0
	}
	t.fouls[c] = old - 1
	return old, old - 1
}

// Fouls returns c's count.
func (t *Tracker) Fouls(c types.Competitor) int { return t.fouls[c] }

// Pair returns both counts.
func (t *Tracker) Pair() model.Pair { return t.fouls }

// SetThreshold changes foulsForPoint.
func (t *Tracker) SetThreshold(foulsForPoint int) { t.foulsForPoint = foulsForPoint }

// Reset zeros both counts.
func (t *Tracker) Reset() { t.fouls = model.Pair{} }
