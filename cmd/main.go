package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/bout/internal/adapters/console"
	"github.com/okian/bout/internal/adapters/mq/worker"
	"github.com/okian/bout/internal/adapters/repository"
	"github.com/okian/bout/internal/adapters/sink"
	app "github.com/okian/bout/internal/app"
	"github.com/okian/bout/internal/config"
	"github.com/okian/bout/pkg/logger"
	"github.com/okian/bout/pkg/metrics"
)

const (
	shutdownTimeout        = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Stdout belongs to the scoreboard; logs go to stderr.
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Get().Error(ctx, "scoreboard failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run wires the scoreboard for the configured table and serves the console
// until in is exhausted, quit is typed or ctx is cancelled.
func run(ctx context.Context, in io.Reader, out io.Writer) error {
	log := logger.Get()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	// A process drives one table, so the table is a const label.
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithConstLabels(map[string]string{"table": cfg.Table}),
	)

	svc, err := newService(ctx, cfg, out)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(shutdownCtx); err != nil {
			log.Error(ctx, "service shutdown failed", logger.Error(err))
		}
		writeMetrics(ctx, cfg.MetricsTextfile)
	}()

	updaterCtx, stopUpdater := context.WithCancel(ctx)
	defer stopUpdater()
	go startServiceMetricsUpdater(updaterCtx, svc)

	m, err := svc.OpenMatch(ctx, cfg.Table)
	if err != nil {
		return err
	}

	err = console.New(m, svc, out, log.Named("console")).Run(ctx, in)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newService opens the configured store and builds the service with its
// sinks. The whistle writes to out next to the scoreboard.
func newService(ctx context.Context, cfg *config.Config, out io.Writer) (*app.Service, error) {
	store, err := repository.Open(ctx, cfg.Store(), repository.WithLogger(logger.Get()))
	if err != nil {
		return nil, err
	}
	opts, err := app.FromConfig(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sinks := []worker.Sink{sink.NewAnalytics(), sink.NewLog(nil)}
	if cfg.Whistle {
		sinks = append(sinks, sink.NewWhistle(out))
	}
	opts = append(opts,
		app.WithStore(store),
		app.WithSinks(sinks...),
		app.WithLogger(logger.Get()),
	)
	return app.New(opts...), nil
}

// startServiceMetricsUpdater refreshes the queue and worker gauges until ctx
// is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

func writeMetrics(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Get().Warn(ctx, "failed to write metrics", logger.String("path", path), logger.Error(err))
	}
}
