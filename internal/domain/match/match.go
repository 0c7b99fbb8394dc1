// Package match composes the clock, ledger, trackers and timeline into one
// match session and derives its status.
package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bout/internal/domain/clock"
	"github.com/okian/bout/internal/domain/dedupe"
	"github.com/okian/bout/internal/domain/exits"
	"github.com/okian/bout/internal/domain/fouls"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/scoring"
	"github.com/okian/bout/internal/domain/timeline"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/pkg/logger"
)

// Match is one scoreboard session. Every exported method is atomic with
// respect to the others and to clock ticks: a call and all of its cascading
// awards, timeline entries and status changes complete under one lock.
type Match struct {
	mu      sync.Mutex
	id      string // lifecycle id, renewed on every reset
	table   string
	cfg     model.MatchConfig
	pending *model.MatchConfig // applied on the next reset
	started bool               // Start succeeded in this lifecycle
	closed  bool

	clock    *clock.Clock
	ledger   *scoring.Ledger
	fouls    *fouls.Tracker
	exits    *exits.Tracker
	timeline *timeline.Timeline

	// signals raised by the trackers during a mutation, drained afterwards
	awards    []types.Competitor
	penalties []types.Competitor

	penalty  types.ExitPenalty
	latch    dedupe.Deduper
	notifier Notifier
	log      logger.Logger
	newID    func() string
	now      func() time.Time

	clockOpts    []clock.Option
	timelineOpts []timeline.Option

	ctx    context.Context // lifetime of the clock goroutine
	cancel context.CancelFunc
}

// New creates a NotStarted match with cfg. The default exit penalty is a foul
// against the offender.
func New(cfg model.MatchConfig, opts ...Option) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new match: %w", err)
	}

	m := &Match{
		cfg:      cfg,
		table:    "default",
		penalty:  types.ExitPenaltyFoul,
		notifier: nopNotifier{},
		log:      logger.Nop(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.latch == nil {
		m.latch = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(64))
	}

	m.id = m.newID()
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.clock = clock.New(cfg.MaxTimeInSeconds, append(m.clockOpts, clock.WithOnTick(m.onTick))...)
	m.ledger = scoring.NewLedger(cfg.PointsToWin)
	m.fouls = fouls.NewTracker(cfg.FoulsForPoint, func(beneficiary types.Competitor) {
		m.awards = append(m.awards, beneficiary)
	})
	m.exits = exits.NewTracker(cfg.ExitsForWarning, func(offender types.Competitor) {
		m.penalties = append(m.penalties, offender)
	})
	m.timeline = timeline.New(m.timelineOpts...)
	return m, nil
}

// ID returns the current lifecycle id.
func (m *Match) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// Table returns the table name.
func (m *Match) Table() string { return m.table }

// Start runs the clock. It returns false if the match is finished, time is
// up, the clock already runs or the match is closed.
func (m *Match) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.statusLocked().Finished {
		return false
	}
	if !m.clock.Start(m.ctx) {
		return false
	}
	m.started = true
	remaining := m.clock.Remaining()
	m.log.Info(ctx, "match started",
		logger.String("table", m.table),
		logger.String("match_id", m.id),
		logger.Int("remaining", remaining))
	m.emitLocked(ctx, model.NotifyMatchStarted, model.StartedPayload{RemainingSeconds: remaining})
	return true
}

// Stop pauses the clock and keeps every count. It returns false if the
// clock was not running.
func (m *Match) Stop(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.clock.Stop() {
		return false
	}
	payload := model.StoppedPayload{ElapsedSeconds: m.clock.Elapsed(), RemainingSeconds: m.clock.Remaining()}
	m.log.Info(ctx, "match stopped",
		logger.String("table", m.table),
		logger.Int("elapsed", payload.ElapsedSeconds),
		logger.Int("remaining", payload.RemainingSeconds))
	m.emitLocked(ctx, model.NotifyMatchStopped, payload)
	return true
}

// Reset returns the match to NotStarted: counts, warnings and timeline are
// cleared, a pending configuration is applied, the clock is refilled and the
// finish latch is re-armed under a new lifecycle id.
func (m *Match) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if m.pending != nil {
		m.cfg = *m.pending
		m.pending = nil
	}
	m.latch.Unrecord(ctx, m.latchKey())
	m.id = m.newID()

	m.clock.Reset(m.cfg.MaxTimeInSeconds)
	m.ledger.Reset()
	m.ledger.SetTarget(m.cfg.PointsToWin)
	m.fouls.Reset()
	m.fouls.SetThreshold(m.cfg.FoulsForPoint)
	m.exits.Reset()
	m.exits.SetThreshold(m.cfg.ExitsForWarning)
	m.timeline.Reset()
	m.awards, m.penalties = nil, nil
	m.started = false

	m.log.Info(ctx, "match reset", logger.String("table", m.table), logger.String("match_id", m.id))
	m.emitLocked(ctx, model.NotifyMatchReset, model.ResetPayload{})
}

// AddPoints adds amount to c's points. Negative amounts correct the total,
// which never drops below zero.
func (m *Match) AddPoints(ctx context.Context, c types.Competitor, amount int) {
	m.mutate(ctx, c, func() { m.pointsLocked(ctx, c, amount) })
}

// AddFoul records a foul against c, possibly awarding the opponent a point.
func (m *Match) AddFoul(ctx context.Context, c types.Competitor) {
	m.mutate(ctx, c, func() { m.foulLocked(ctx, c) })
}

// RemoveFoul takes back one foul from c. It never takes back awarded points.
func (m *Match) RemoveFoul(ctx context.Context, c types.Competitor) {
	m.mutate(ctx, c, func() {
		old, updated := m.fouls.Remove(c)
		m.recordLocked(ctx, types.KindFoul, c, old, updated)
	})
}

// AddExit records a ring exit by c, possibly applying the exit penalty.
func (m *Match) AddExit(ctx context.Context, c types.Competitor) {
	m.mutate(ctx, c, func() { m.exitLocked(ctx, c) })
}

// RemoveExit takes back one exit from c.
func (m *Match) RemoveExit(ctx context.Context, c types.Competitor) {
	m.mutate(ctx, c, func() {
		old, updated := m.exits.Remove(c)
		m.recordLocked(ctx, types.KindExit, c, old, updated)
	})
}

// mutate runs fn under the lock and re-evaluates the status afterwards.
func (m *Match) mutate(ctx context.Context, c types.Competitor, fn func()) {
	if !c.Valid() {
		m.log.Warn(ctx, "ignoring mutation for unknown competitor", logger.Int("competitor", int(c)))
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	fn()
	m.evaluateLocked(ctx)
}

func (m *Match) pointsLocked(ctx context.Context, c types.Competitor, amount int) {
	old, updated := m.ledger.Add(c, amount)
	m.recordLocked(ctx, types.KindPoint, c, old, updated)
}

func (m *Match) foulLocked(ctx context.Context, c types.Competitor) {
	old, updated := m.fouls.Add(c)
	m.recordLocked(ctx, types.KindFoul, c, old, updated)
	for len(m.awards) > 0 {
		beneficiary := m.awards[0]
		m.awards = m.awards[1:]
		m.pointsLocked(ctx, beneficiary, 1)
	}
}

func (m *Match) exitLocked(ctx context.Context, c types.Competitor) {
	old, updated := m.exits.Add(c)
	m.recordLocked(ctx, types.KindExit, c, old, updated)
	for len(m.penalties) > 0 {
		offender := m.penalties[0]
		m.penalties = m.penalties[1:]
		m.log.Debug(ctx, "exit penalty",
			logger.String("table", m.table),
			logger.String("offender", offender.String()),
			logger.String("policy", string(m.penalty)))
		switch m.penalty {
		case types.ExitPenaltyPoint:
			m.pointsLocked(ctx, offender.Opponent(), 1)
		default:
			m.foulLocked(ctx, offender)
		}
	}
}

// recordLocked logs an applied change to the timeline and notifies, but only
// while the clock runs. No-op changes are not recorded.
func (m *Match) recordLocked(ctx context.Context, kind types.Kind, c types.Competitor, old, updated int) {
	if old == updated {
		return
	}
	if !m.clock.Running() {
		return
	}
	elapsed := m.clock.Elapsed()
	entry := m.timeline.Add(kind, c, updated-old, float64(elapsed))
	m.log.Debug(ctx, "timeline entry",
		logger.String("table", m.table),
		logger.String("description", entry.Description),
		logger.Int("elapsed", elapsed))
	m.emitLocked(ctx, model.ChangeKind(kind), model.ChangePayload{
		Kind:           kind,
		Competitor:     c,
		Delta:          updated - old,
		Old:            old,
		New:            updated,
		ElapsedSeconds: elapsed,
	})
}

// onTick runs on the clock goroutine after every tick.
func (m *Match) onTick(remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.evaluateLocked(m.ctx)
}

// evaluateLocked derives the status and, on the first finish of this
// lifecycle, stops the clock and emits match_finished.
func (m *Match) evaluateLocked(ctx context.Context) {
	st := m.statusLocked()
	if !st.Finished {
		return
	}
	m.clock.Stop()
	if m.latch.SeenAndRecord(ctx, m.latchKey()) {
		return
	}
	snap := m.snapshotLocked()
	m.log.Info(ctx, "match finished",
		logger.String("table", m.table),
		logger.String("match_id", m.id),
		logger.String("winner", st.WinnerName()),
		logger.String("reason", string(st.Reason)))
	m.emitLocked(ctx, model.NotifyMatchFinished, model.FinishedPayload{
		Winner:   st.Winner,
		Reason:   st.Reason,
		Snapshot: snap,
	})
}

func (m *Match) latchKey() string { return m.id + "/finished" }

// statusLocked applies the finish rules in order: points, then time with the
// score, infraction and draw tie-breaks.
func (m *Match) statusLocked() model.Status {
	if w, ok := m.ledger.Winner(); ok {
		return model.FinishedBy(w, types.ReasonPoints)
	}
	if !m.clock.IsTimeUp() {
		return model.Ongoing()
	}

	pa, pb := m.ledger.Points(types.A), m.ledger.Points(types.B)
	if pa != pb {
		if pa > pb {
			return model.FinishedBy(types.A, types.ReasonTime)
		}
		return model.FinishedBy(types.B, types.ReasonTime)
	}

	ia := m.fouls.Fouls(types.A) + m.exits.Exits(types.A)
	ib := m.fouls.Fouls(types.B) + m.exits.Exits(types.B)
	if ia != ib {
		if ia < ib {
			return model.FinishedBy(types.A, types.ReasonInfractions)
		}
		return model.FinishedBy(types.B, types.ReasonInfractions)
	}
	return model.Draw()
}

func (m *Match) phaseLocked(st model.Status) types.Phase {
	switch {
	case st.Finished:
		return types.PhaseFinished
	case m.clock.Running():
		return types.PhaseRunning
	case m.started:
		return types.PhasePaused
	default:
		return types.PhaseNotStarted
	}
}

func (m *Match) snapshotLocked() model.Snapshot {
	st := m.statusLocked()
	remaining, running := m.clock.State()
	return model.Snapshot{
		MatchID:        m.id,
		Table:          m.table,
		Config:         m.cfg,
		Points:         m.ledger.Pair(),
		Fouls:          m.fouls.Pair(),
		Exits:          m.exits.Pair(),
		Warnings:       m.exits.WarningPair(),
		Clock:          model.ClockState{RemainingSeconds: remaining, Running: running},
		ElapsedSeconds: m.clock.Max() - remaining,
		Status:         st,
		Phase:          m.phaseLocked(st),
	}
}

func (m *Match) emitLocked(ctx context.Context, kind model.NotificationKind, payload any) {
	m.notifier.Notify(ctx, model.Notification{
		ID:      m.newID(),
		Kind:    kind,
		MatchID: m.id,
		Table:   m.table,
		At:      m.now(),
		Payload: payload,
	})
}

// Status returns the derived match status.
func (m *Match) Status(_ context.Context) model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Phase returns the lifecycle phase.
func (m *Match) Phase(_ context.Context) types.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phaseLocked(m.statusLocked())
}

// Snapshot returns a consistent copy of the whole match state.
func (m *Match) Snapshot(_ context.Context) model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Timeline returns the entries in the configured presentation order.
func (m *Match) Timeline(_ context.Context) []model.TimelineEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeline.Entries()
}

// Config returns the rules in force.
func (m *Match) Config(_ context.Context) model.MatchConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Pending returns a configuration waiting for the next reset, if any.
func (m *Match) Pending(_ context.Context) (model.MatchConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return model.MatchConfig{}, false
	}
	return *m.pending, true
}

// Configure replaces the rules. They apply at once while the match is
// NotStarted; otherwise they are frozen out until the next Reset and applied
// is false.
func (m *Match) Configure(ctx context.Context, cfg model.MatchConfig) (applied bool, err error) {
	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("configure match: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrMatchClosed
	}
	if m.phaseLocked(m.statusLocked()) != types.PhaseNotStarted {
		m.pending = &cfg
		m.log.Info(ctx, "match config deferred until reset", logger.String("table", m.table))
		return false, nil
	}

	m.cfg = cfg
	m.pending = nil
	m.clock.Reset(cfg.MaxTimeInSeconds)
	m.ledger.SetTarget(cfg.PointsToWin)
	m.fouls.SetThreshold(cfg.FoulsForPoint)
	m.exits.SetThreshold(cfg.ExitsForWarning)
	m.evaluateLocked(ctx)
	return true, nil
}

// Close stops the clock for good. Later mutations are ignored.
func (m *Match) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.clock.Stop()
	m.cancel()
	m.log.Debug(ctx, "match closed", logger.String("table", m.table))
}
