package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/okian/bout/internal/adapters/mq/worker"
	"github.com/okian/bout/internal/adapters/repository"
	"github.com/okian/bout/internal/adapters/sink"
	app "github.com/okian/bout/internal/app"
	"github.com/okian/bout/internal/config"
	"github.com/okian/bout/internal/domain/clock"
	"github.com/okian/bout/internal/domain/types"
	"github.com/okian/bout/internal/simulate"
	"github.com/okian/bout/pkg/logger"
	"github.com/okian/bout/pkg/metrics"
)

// Default configuration constants.
const (
	defaultBouts       = 4
	defaultActions     = 40
	defaultWorkers     = 2
	defaultTick        = 10 * time.Millisecond
	defaultPace        = 5 * time.Millisecond
	defaultBoutTimeout = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		bouts      = flag.Int("bouts", defaultBouts, "Number of bouts to play")
		actions    = flag.Int("actions", defaultActions, "Scorekeeper actions per bout")
		workers    = flag.Int("workers", defaultWorkers, "Bouts played at the same time")
		tick       = flag.Duration("tick", defaultTick, "Wall-clock length of one match second")
		pace       = flag.Duration("pace", defaultPace, "Pause between scorekeeper actions")
		outputFile = flag.String("output", "", "Write per-bout results as JSON to this file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every action")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp(os.Stdout)
		return
	}

	closer, err := simulate.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		return
	}
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)
	metrics.Configure(metrics.WithNamespace(cfg.MetricsNamespace))

	simCfg := &simulate.Config{
		Bouts:          *bouts,
		Actions:        *actions,
		Workers:        *workers,
		ActionInterval: *pace,
		BoutTimeout:    defaultBoutTimeout,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}
	if err := run(ctx, cfg, simCfg, *tick, os.Stdout); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}

func run(ctx context.Context, cfg *config.Config, simCfg *simulate.Config, tick time.Duration, out io.Writer) error {
	store, err := repository.Open(ctx, cfg.Store(), repository.WithLogger(logger.Get()))
	if err != nil {
		return err
	}
	opts, err := app.FromConfig(cfg)
	if err != nil {
		_ = store.Close()
		return err
	}

	sinks := []worker.Sink{sink.NewAnalytics()}
	if simCfg.Verbose {
		sinks = append(sinks, sink.NewLog(nil))
	}
	if cfg.Whistle {
		sinks = append(sinks, sink.NewWhistle(out))
	}
	opts = append(opts,
		app.WithStore(store),
		app.WithSinks(sinks...),
		app.WithLogger(logger.Get()),
		app.WithClockOptions(clock.WithInterval(tick)),
	)

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	stats, _, err := simulate.Run(ctx, svc, simCfg)
	if stopErr := svc.Stop(context.WithoutCancel(ctx)); stopErr != nil {
		logger.Get().Warn(ctx, "service shutdown failed", logger.Error(stopErr))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "bouts %d, finished %d, actions %d\n", stats.BoutsRun, stats.BoutsFinished, stats.ActionsApplied)
	fmt.Fprintf(out, "wins A %d, B %d\n", stats.Wins[0], stats.Wins[1])
	reasons := make([]string, 0, len(stats.Reasons))
	for r := range stats.Reasons {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(out, "  %-12s %d\n", r, stats.Reasons[types.Reason(r)])
	}
	fmt.Fprintf(out, "took %s\n", stats.Duration.Round(time.Millisecond))

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Get().Warn(ctx, "failed to write metrics", logger.Error(err))
		}
	}
	return nil
}
