// Package simulate drives matches with random scorekeeper input, for demos
// and soak runs of the notification pipeline.
package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/bout/internal/domain/match"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
	pollInterval        = 5 * time.Millisecond
)

// Tables opens and closes matches; the scoreboard service implements it.
type Tables interface {
	OpenMatch(ctx context.Context, table string) (*match.Match, error)
	CloseMatch(ctx context.Context, table string) bool
}

// Run plays config.Bouts bouts, config.Workers at a time, and returns the
// statistics and per-bout results.
func Run(ctx context.Context, tables Tables, config *Config) (*Stats, []BoutResult, error) {
	stats := &Stats{
		StartTime: time.Now(),
		Reasons:   make(map[types.Reason]int),
	}

	logger.Get().Info(ctx, "starting bout simulation",
		logger.Int("bouts", config.Bouts),
		logger.Int("actions", config.Actions),
		logger.Int("workers", config.Workers),
		logger.String("actionInterval", config.ActionInterval.String()))

	jobs := make(chan int)
	results := make([]BoutResult, config.Bouts)
	errs := make([]error, config.Bouts)

	var wg sync.WaitGroup
	workers := max(1, min(config.Workers, config.Bouts))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = runBout(ctx, tables, config, fmt.Sprintf("sim-%d", i+1))
			}
		}()
	}

feed:
	for i := 0; i < config.Bouts; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("simulation cancelled: %w", err)
	}
	for i, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("bout %d: %w", i+1, err)
		}
	}

	for _, r := range results {
		stats.BoutsRun++
		stats.ActionsApplied += r.Actions
		st := r.Snapshot.Status
		if !st.Finished {
			continue
		}
		stats.BoutsFinished++
		stats.Reasons[st.Reason]++
		if st.Winner != nil {
			stats.Wins[*st.Winner]++
		}
	}

	if config.OutputFile != "" {
		if err := saveResultsToFile(ctx, config.OutputFile, results); err != nil {
			logger.Get().Warn(ctx, "failed to save results to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)
	return stats, results, nil
}

// runBout plays one bout on table until it finishes or the actions run out,
// then waits for the clock to end it.
func runBout(ctx context.Context, tables Tables, config *Config, table string) (BoutResult, error) {
	m, err := tables.OpenMatch(ctx, table)
	if err != nil {
		return BoutResult{}, err
	}
	defer tables.CloseMatch(ctx, table)

	if !m.Start(ctx) {
		return BoutResult{}, fmt.Errorf("match on %s did not start", table)
	}

	applied := 0
	for _, a := range generateActions(config.Actions) {
		if m.Status(ctx).Finished {
			break
		}
		apply(ctx, m, a)
		applied++
		if config.Verbose {
			logger.Get().Debug(ctx, "action", logger.String("table", table), logger.Any("action", a))
		}
		if err := sleep(ctx, config.ActionInterval); err != nil {
			return BoutResult{}, err
		}
	}

	if err := waitFinished(ctx, m, config.BoutTimeout); err != nil {
		logger.Get().Warn(ctx, "bout did not finish in time", logger.String("table", table), logger.Error(err))
	}

	return BoutResult{
		Table:    table,
		Actions:  applied,
		Snapshot: m.Snapshot(ctx),
		Timeline: m.Timeline(ctx),
	}, nil
}

func apply(ctx context.Context, m *match.Match, a Action) {
	switch a.Kind {
	case ActionPoint:
		m.AddPoints(ctx, a.Competitor, a.Amount)
	case ActionFoul:
		m.AddFoul(ctx, a.Competitor)
	case ActionUnfoul:
		m.RemoveFoul(ctx, a.Competitor)
	case ActionExit:
		m.AddExit(ctx, a.Competitor)
	case ActionUnexit:
		m.RemoveExit(ctx, a.Competitor)
	case ActionPause:
		if m.Stop(ctx) {
			m.Start(ctx)
		}
	}
}

// waitFinished polls until m finishes. A zero timeout waits for ctx only.
func waitFinished(ctx context.Context, m *match.Match, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !m.Status(ctx).Finished {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// saveResultsToFile writes the results as an indented JSON array.
func saveResultsToFile(ctx context.Context, filename string, results []BoutResult) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logger.Get().Info(ctx, "results saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final statistics.
func displayFinalStats(stats *Stats) {
	reasons := make(map[string]int, len(stats.Reasons))
	for r, n := range stats.Reasons {
		reasons[string(r)] = n
	}
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("boutsRun", stats.BoutsRun),
		logger.Int("boutsFinished", stats.BoutsFinished),
		logger.Int("actionsApplied", stats.ActionsApplied),
		logger.Int("winsA", stats.Wins[types.A]),
		logger.Int("winsB", stats.Wins[types.B]),
		logger.Any("reasons", reasons),
		logger.String("duration", stats.Duration.String()))
}
