package simulate

import (
	"time"

	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
)

// Config holds configuration for a simulation run
type Config struct {
	Bouts          int           // Number of bouts to run
	Actions        int           // Scorekeeper actions per bout
	Workers        int           // Bouts running at the same time
	ActionInterval time.Duration // Pause between actions
	BoutTimeout    time.Duration // Longest wait for one bout to finish
	OutputFile     string        // Output file for results
	LogFile        string        // Log file for simulation output
	Verbose        bool          // Enable verbose logging
}

// ActionKind is one scorekeeper button.
type ActionKind string

const (
	ActionPoint  ActionKind = "point"
	ActionFoul   ActionKind = "foul"
	ActionUnfoul ActionKind = "unfoul"
	ActionExit   ActionKind = "exit"
	ActionUnexit ActionKind = "unexit"
	ActionPause  ActionKind = "pause" // stop then start the clock
)

// Action is one generated scorekeeper input.
type Action struct {
	Kind       ActionKind       `json:"kind"`
	Competitor types.Competitor `json:"competitor"`
	Amount     int              `json:"amount,omitempty"`
}

// BoutResult is what one bout ended with.
type BoutResult struct {
	Table    string                `json:"table"`
	Actions  int                   `json:"actions"`
	Snapshot model.Snapshot        `json:"snapshot"`
	Timeline []model.TimelineEntry `json:"timeline"`
}

// Stats holds simulation statistics
type Stats struct {
	BoutsRun       int
	BoutsFinished  int
	ActionsApplied int
	Wins           [2]int               // by competitor
	Reasons        map[types.Reason]int // finished bouts by reason
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
