// Package console drives one match from scorekeeper commands, one per line.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/bout/internal/adapters/sink"
	service "github.com/okian/bout/internal/app"
	"github.com/okian/bout/internal/domain/clock"
	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/pkg/logger"
)

// Scoreboard is the match the console drives.
type Scoreboard interface {
	Table() string
	Start(ctx context.Context) bool
	Stop(ctx context.Context) bool
	Reset(ctx context.Context)
	AddPoints(ctx context.Context, c types.Competitor, amount int)
	AddFoul(ctx context.Context, c types.Competitor)
	RemoveFoul(ctx context.Context, c types.Competitor)
	AddExit(ctx context.Context, c types.Competitor)
	RemoveExit(ctx context.Context, c types.Competitor)
	Snapshot(ctx context.Context) model.Snapshot
	Timeline(ctx context.Context) []model.TimelineEntry
	Pending(ctx context.Context) (model.MatchConfig, bool)
}

// Rules reads and changes the persisted match config.
type Rules interface {
	Config(ctx context.Context) model.MatchConfig
	UpdateConfig(ctx context.Context, cfg model.MatchConfig) (service.ConfigResult, error)
	ResetConfig(ctx context.Context) (service.ConfigResult, error)
}

// Console executes commands against a scoreboard and writes replies to out.
type Console struct {
	board    Scoreboard
	rules    Rules
	out      io.Writer
	log      logger.Logger
	handlers map[string]func(ctx context.Context, cmd Command) error
}

// New creates a console. A nil logger discards.
func New(board Scoreboard, rules Rules, out io.Writer, log logger.Logger) *Console {
	if log == nil {
		log = logger.Nop()
	}
	c := &Console{board: board, rules: rules, out: out, log: log}
	c.handlers = map[string]func(ctx context.Context, cmd Command) error{
		"start":    c.start,
		"stop":     c.stop,
		"reset":    c.reset,
		"point":    c.mutation(func(ctx context.Context, cmd Command) { board.AddPoints(ctx, cmd.Competitor, cmd.Amount) }),
		"foul":     c.mutation(func(ctx context.Context, cmd Command) { board.AddFoul(ctx, cmd.Competitor) }),
		"unfoul":   c.mutation(func(ctx context.Context, cmd Command) { board.RemoveFoul(ctx, cmd.Competitor) }),
		"exit":     c.mutation(func(ctx context.Context, cmd Command) { board.AddExit(ctx, cmd.Competitor) }),
		"unexit":   c.mutation(func(ctx context.Context, cmd Command) { board.RemoveExit(ctx, cmd.Competitor) }),
		"status":   c.status,
		"timeline": c.timeline,
		"config":   c.config,
		"set":      c.set,
		"defaults": c.defaults,
		"help":     c.help,
	}
	return c
}

// Run reads commands from in until EOF, quit or ctx is done. Bad lines are
// answered with an error message and skipped; lines starting with # are
// comments. Reading happens on its own goroutine so a cancelled ctx ends Run
// even while in has nothing to say.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)

	var readErr error
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr = sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if readErr != nil {
					return fmt.Errorf("read commands: %w", readErr)
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if c.handleLine(ctx, line) {
				return nil
			}
		}
	}
}

// handleLine runs one input line and reports whether it asked to quit.
func (c *Console) handleLine(ctx context.Context, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	cmd, err := Parse(line)
	if err != nil {
		c.printf("error: %v\n", err)
		return false
	}
	quit, err = c.Execute(ctx, cmd)
	if err != nil {
		c.printf("error: %v\n", err)
	}
	return quit
}

// Execute runs one command. quit is true for the quit command.
func (c *Console) Execute(ctx context.Context, cmd Command) (quit bool, err error) {
	if cmd.Name == "quit" {
		return true, nil
	}
	h, ok := c.handlers[cmd.Name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
	c.log.Debug(ctx, "console command", logger.String("command", cmd.Name), logger.String("table", c.board.Table()))
	return false, h(ctx, cmd)
}

func (c *Console) start(ctx context.Context, _ Command) error {
	if c.board.Start(ctx) {
		c.printf("clock running\n")
		return nil
	}
	c.printf("cannot start: match is %s\n", c.board.Snapshot(ctx).Phase)
	return nil
}

func (c *Console) stop(ctx context.Context, _ Command) error {
	if c.board.Stop(ctx) {
		c.printf("clock stopped at %s\n", clock.FormatClock(c.board.Snapshot(ctx).Clock.RemainingSeconds))
		return nil
	}
	c.printf("clock is not running\n")
	return nil
}

func (c *Console) reset(ctx context.Context, _ Command) error {
	c.board.Reset(ctx)
	c.printf("match reset\n")
	return c.status(ctx, Command{})
}

// mutation applies fn and shows the resulting scoreboard.
func (c *Console) mutation(fn func(ctx context.Context, cmd Command)) func(ctx context.Context, cmd Command) error {
	return func(ctx context.Context, cmd Command) error {
		fn(ctx, cmd)
		return c.status(ctx, cmd)
	}
}

func (c *Console) status(ctx context.Context, _ Command) error {
	c.printf("%s\n", StatusLine(c.board.Snapshot(ctx)))
	return nil
}

func (c *Console) timeline(ctx context.Context, _ Command) error {
	entries := c.board.Timeline(ctx)
	if len(entries) == 0 {
		c.printf("no events yet\n")
		return nil
	}
	for _, e := range entries {
		c.printf("%s  %s\n", clock.FormatClock(int(e.MatchTimeSeconds)), e.Description)
	}
	return nil
}

func (c *Console) config(ctx context.Context, _ Command) error {
	c.printf("%s\n", RulesLine(c.rules.Config(ctx)))
	if pending, ok := c.board.Pending(ctx); ok {
		c.printf("after reset: %s\n", RulesLine(pending))
	}
	return nil
}

func (c *Console) set(ctx context.Context, cmd Command) error {
	cfg := c.rules.Config(ctx)
	switch cmd.Field {
	case "points":
		cfg.PointsToWin = cmd.Amount
	case "fouls":
		cfg.FoulsForPoint = cmd.Amount
	case "exits":
		cfg.ExitsForWarning = cmd.Amount
	case "time":
		cfg.MaxTimeInSeconds = cmd.Amount
	}
	return c.applyRules(ctx, c.rules.UpdateConfig, cfg)
}

func (c *Console) defaults(ctx context.Context, _ Command) error {
	return c.applyRules(ctx, func(ctx context.Context, _ model.MatchConfig) (service.ConfigResult, error) {
		return c.rules.ResetConfig(ctx)
	}, model.DefaultMatchConfig())
}

func (c *Console) applyRules(ctx context.Context,
	update func(context.Context, model.MatchConfig) (service.ConfigResult, error), cfg model.MatchConfig,
) error {
	res, err := update(ctx, cfg)
	switch {
	case errors.Is(err, service.ErrConfigNotSaved):
		c.printf("warning: rules in force but not saved: %v\n", err)
	case err != nil:
		return err
	default:
		c.printf("rules saved: %s\n", RulesLine(cfg))
	}
	for _, t := range res.Deferred {
		if t == c.board.Table() {
			c.printf("the running match keeps its rules until reset\n")
		}
	}
	return nil
}

func (c *Console) help(context.Context, Command) error {
	for _, u := range usage {
		c.printf("  %s\n", u.text)
	}
	return nil
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// StatusLine renders a snapshot on one line, e.g.
// "[default] 01:30 running | A 3 f1 e0 w0 | B 1 f0 e2 w0 | in progress".
func StatusLine(s model.Snapshot) string {
	side := func(c types.Competitor) string {
		return fmt.Sprintf("%s %d f%d e%d w%d", c, s.Points[c], s.Fouls[c], s.Exits[c], s.Warnings[c])
	}
	return fmt.Sprintf("[%s] %s %s | %s | %s | %s",
		s.Table,
		clock.FormatClock(s.Clock.RemainingSeconds),
		strings.ReplaceAll(string(s.Phase), "_", " "),
		side(types.A),
		side(types.B),
		sink.Result(s.Status),
	)
}

// RulesLine renders a config for people.
func RulesLine(cfg model.MatchConfig) string {
	return fmt.Sprintf("%d points to win, %d fouls per point, %d exits per warning, %s on the clock",
		cfg.PointsToWin, cfg.FoulsForPoint, cfg.ExitsForWarning, clock.FormatClock(cfg.MaxTimeInSeconds))
}
