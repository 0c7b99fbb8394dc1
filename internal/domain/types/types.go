// Package types contains the enumerations shared across the match engine.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel parse errors.
var (
	ErrInvalidCompetitor  = errors.New("invalid competitor")
	ErrInvalidExitPenalty = errors.New("invalid exit penalty policy")
	ErrInvalidOrder       = errors.New("invalid timeline order")
)

// Competitor identifies one of the two sides of a match. The values double as
// array indexes for per-competitor pairs.
type Competitor int

const (
	A Competitor = iota
	B
)

// Competitors lists both sides in precedence order.
var Competitors = [2]Competitor{A, B}

// Opponent returns the other competitor.
func (c Competitor) Opponent() Competitor {
	if c == A {
		return B
	}
	return A
}

// Valid reports whether c is A or B.
func (c Competitor) Valid() bool {
	return c == A || c == B
}

func (c Competitor) String() string {
	switch c {
	case A:
		return "A"
	case B:
		return "B"
	default:
		return fmt.Sprintf("Competitor(%d)", int(c))
	}
}

// ParseCompetitor accepts "A" or "B" in any case.
func ParseCompetitor(s string) (Competitor, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return A, nil
	case "B":
		return B, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCompetitor, s)
	}
}

// MarshalText renders A or B, so JSON shows letters rather than indexes.
func (c Competitor) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCompetitor, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Competitor) UnmarshalText(text []byte) error {
	parsed, err := ParseCompetitor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Kind classifies a counted quantity.
type Kind string

const (
	KindPoint Kind = "point"
	KindFoul  Kind = "foul"
	KindExit  Kind = "exit"
)

// Reason explains why a match finished. Empty while the match is ongoing.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonPoints      Reason = "points"
	ReasonTime        Reason = "time"
	ReasonInfractions Reason = "infractions"
	ReasonDraw        Reason = "draw"
)

// Phase is the lifecycle stage of a match.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhasePaused     Phase = "paused"
	PhaseFinished   Phase = "finished"
)

// ExitPenalty selects what happens when a competitor reaches a new exit
// warning level.
type ExitPenalty string

const (
	// ExitPenaltyFoul records a foul against the offender.
	ExitPenaltyFoul ExitPenalty = "foul_offender"
	// ExitPenaltyPoint awards a point directly to the opponent.
	ExitPenaltyPoint ExitPenalty = "point_opponent"
)

// ParseExitPenalty validates a policy name.
func ParseExitPenalty(s string) (ExitPenalty, error) {
	switch p := ExitPenalty(strings.ToLower(strings.TrimSpace(s))); p {
	case ExitPenaltyFoul, ExitPenaltyPoint:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidExitPenalty, s)
	}
}

// TimelineOrder is the presentation order of timeline entries.
type TimelineOrder string

const (
	OldestFirst TimelineOrder = "oldest_first"
	NewestFirst TimelineOrder = "newest_first"
)

// ParseTimelineOrder validates an order name.
func ParseTimelineOrder(s string) (TimelineOrder, error) {
	switch o := TimelineOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case OldestFirst, NewestFirst:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
}
