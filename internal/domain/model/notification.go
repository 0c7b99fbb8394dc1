package model

import (
	"time"

	"github.com/okian/bout/internal/domain/types"
)

// NotificationKind identifies a side effect emitted by a match.
type NotificationKind string

const (
	NotifyMatchStarted  NotificationKind = "match_started"
	NotifyMatchStopped  NotificationKind = "match_stopped"
	NotifyMatchReset    NotificationKind = "match_reset"
	NotifyMatchFinished NotificationKind = "match_finished"
	NotifyPointsChanged NotificationKind = "points_changed"
	NotifyFoulsChanged  NotificationKind = "fouls_changed"
	NotifyExitsChanged  NotificationKind = "exits_changed"
	NotifyConfigChanged NotificationKind = "config_changed"
)

// ChangeKind maps a counted kind to its change notification.
func ChangeKind(k types.Kind) NotificationKind {
	switch k {
	case types.KindFoul:
		return NotifyFoulsChanged
	case types.KindExit:
		return NotifyExitsChanged
	default:
		return NotifyPointsChanged
	}
}

// Notification is a side-effect message for external collaborators.
type Notification struct {
	ID      string           // unique per notification
	Kind    NotificationKind // what happened
	MatchID string           // lifecycle id of the emitting match
	Table   string           // table the match runs on
	At      time.Time        // wall-clock emission time
	Payload any              // one of the *Payload types below
}

type StartedPayload struct {
	RemainingSeconds int
}

type StoppedPayload struct {
	ElapsedSeconds   int
	RemainingSeconds int
}

type ResetPayload struct{}

type FinishedPayload struct {
	Winner   *types.Competitor
	Reason   types.Reason
	Snapshot Snapshot
}

// ChangePayload describes a points, fouls or exits change.
type ChangePayload struct {
	Kind           types.Kind
	Competitor     types.Competitor
	Delta          int
	Old            int
	New            int
	ElapsedSeconds int
}

type ConfigPayload struct {
	Config MatchConfig
}
