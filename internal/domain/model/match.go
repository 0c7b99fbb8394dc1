// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"

	"github.com/okian/bout/internal/domain/types"
)

// ErrInvalidMatchConfig is returned when a MatchConfig has a non-positive field.
var ErrInvalidMatchConfig = errors.New("invalid match config")

// Default match rules.
const (
	DefaultPointsToWin      = 7
	DefaultFoulsForPoint    = 2
	DefaultExitsForWarning  = 3
	DefaultMaxTimeInSeconds = 90
)

// MatchConfig holds the rules of a match. The JSON names are the persisted
// format of the configuration store.
type MatchConfig struct {
	PointsToWin      int `json:"pointsToWin"`
	FoulsForPoint    int `json:"foulsForPoint"`
	ExitsForWarning  int `json:"exitsForWarning"`
	MaxTimeInSeconds int `json:"maxTimeInSeconds"`
}

// DefaultMatchConfig returns the stock rules.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		PointsToWin:      DefaultPointsToWin,
		FoulsForPoint:    DefaultFoulsForPoint,
		ExitsForWarning:  DefaultExitsForWarning,
		MaxTimeInSeconds: DefaultMaxTimeInSeconds,
	}
}

// Validate requires every field to be positive.
func (c MatchConfig) Validate() error {
	switch {
	case c.PointsToWin <= 0:
		return fmt.Errorf("%w: pointsToWin must be > 0, got %d", ErrInvalidMatchConfig, c.PointsToWin)
	case c.FoulsForPoint <= 0:
		return fmt.Errorf("%w: foulsForPoint must be > 0, got %d", ErrInvalidMatchConfig, c.FoulsForPoint)
	case c.ExitsForWarning <= 0:
		return fmt.Errorf("%w: exitsForWarning must be > 0, got %d", ErrInvalidMatchConfig, c.ExitsForWarning)
	case c.MaxTimeInSeconds <= 0:
		return fmt.Errorf("%w: maxTimeInSeconds must be > 0, got %d", ErrInvalidMatchConfig, c.MaxTimeInSeconds)
	}
	return nil
}

// Pair holds one counter per competitor, indexed by types.Competitor.
type Pair [2]int

// Get returns the value for c.
func (p Pair) Get(c types.Competitor) int { return p[c] }

// Total returns the sum of both sides.
func (p Pair) Total() int { return p[types.A] + p[types.B] }

// ClockState is the observable state of the match clock.
type ClockState struct {
	RemainingSeconds int  `json:"remainingSeconds"`
	Running          bool `json:"running"`
}

// Status is the derived outcome of a match. It is computed from counts and
// the clock on demand and never stored.
type Status struct {
	Finished bool              `json:"finished"`
	Winner   *types.Competitor `json:"winner"`
	Reason   types.Reason      `json:"reason"`
}

// Ongoing is the status of a match that has not finished.
func Ongoing() Status { return Status{} }

// FinishedBy builds a finished status with a winner.
func FinishedBy(winner types.Competitor, reason types.Reason) Status {
	return Status{Finished: true, Winner: &winner, Reason: reason}
}

// Draw builds a finished status without a winner.
func Draw() Status {
	return Status{Finished: true, Reason: types.ReasonDraw}
}

// Equal compares two statuses by value.
func (s Status) Equal(o Status) bool {
	if s.Finished != o.Finished || s.Reason != o.Reason {
		return false
	}
	if s.Winner == nil || o.Winner == nil {
		return s.Winner == nil && o.Winner == nil
	}
	return *s.Winner == *o.Winner
}

// WinnerName renders the winner or "none".
func (s Status) WinnerName() string {
	if s.Winner == nil {
		return "none"
	}
	return s.Winner.String()
}

// TimelineEntry is one immutable record of a counted change.
type TimelineEntry struct {
	ID               string           `json:"id"`
	MatchTimeSeconds float64          `json:"matchTimeSeconds"`
	Kind             types.Kind       `json:"kind"`
	Competitor       types.Competitor `json:"competitor"`
	Delta            int              `json:"delta"`
	Description      string           `json:"description"`
}

// Snapshot is a consistent copy of a match's full state.
type Snapshot struct {
	MatchID        string      `json:"matchId"`
	Table          string      `json:"table"`
	Config         MatchConfig `json:"config"`
	Points         Pair        `json:"points"`
	Fouls          Pair        `json:"fouls"`
	Exits          Pair        `json:"exits"`
	Warnings       Pair        `json:"warnings"`
	Clock          ClockState  `json:"clock"`
	ElapsedSeconds int         `json:"elapsedSeconds"`
	Status         Status      `json:"status"`
	Phase          types.Phase `json:"phase"`
}

// Infractions returns fouls plus exits for c, the tie-break measure.
func (s Snapshot) Infractions(c types.Competitor) int {
	return s.Fouls.Get(c) + s.Exits.Get(c)
}
