// Package scoring keeps each competitor's point total and decides the
// points-based winner.
package scoring

import (
	"math"

	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
)

// Ledger tracks point totals. Totals never drop below zero.
type Ledger struct {
	points      model.Pair
	pointsToWin int
}

// NewLedger creates an empty ledger that is won at pointsToWin.
func NewLedger(pointsToWin int) *Ledger {
	return &Ledger{pointsToWin: pointsToWin}
}

// Add applies amount (negative for corrections) to c and returns the total
// before and after. The result is clamped at zero and saturates at
// math.MaxInt.
func (l *Ledger) Add(c types.Competitor, amount int) (old, updated int) {
	old = l.points[c]
	if amount > 0 && old > math.MaxInt-amount {
		updated = math.MaxInt
	} else {
		updated = max(0, old+amount)
	}
	l.points[c] = updated
	return old, updated
}

// Points returns c's total.
func (l *Ledger) Points(c types.Competitor) int { return l.points[c] }

// Pair returns both totals.
func (l *Ledger) Pair() model.Pair { return l.points }

// HasWinner reports whether either side reached the target.
func (l *Ledger) HasWinner() bool {
	_, ok := l.Winner()
	return ok
}

// Winner returns the first competitor, A before B, whose total meets the
// target.
func (l *Ledger) Winner() (types.Competitor, bool) {
	for _, c := range types.Competitors {
		if l.points[c] >= l.pointsToWin {
			return c, true
		}
	}
	return 0, false
}

// SetTarget changes the winning total.
func (l *Ledger) SetTarget(pointsToWin int) { l.pointsToWin = pointsToWin }

// Target returns the winning total.
func (l *Ledger) Target() int { return l.pointsToWin }

// Reset zeros both totals.
func (l *Ledger) Reset() { l.points = model.Pair{} }
