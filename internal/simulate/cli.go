package simulate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/bout/pkg/logger"
)

// SetupLogging sends logs to stderr and, when logFile is set, to that file
// as well. Stdout is left for the summary.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		if err := logger.InitWithWriter(os.Stderr); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return io.NopCloser(nil), nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stderr, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Bout Simulator
==============

Plays random bouts against the scoreboard engine with an accelerated clock.
Rules, store and exit penalty come from the usual BOUT_* configuration.

Usage:
  go run ./cmd/simulate [options]

Options:
  -bouts int
        Number of bouts to play (default 4)
  -actions int
        Scorekeeper actions per bout (default 40)
  -workers int
        Bouts played at the same time (default 2)
  -tick duration
        Wall-clock length of one match second (default 10ms)
  -pace duration
        Pause between scorekeeper actions (default 5ms)
  -output string
        Write per-bout results as JSON to this file
  -log string
        Also write logs to this file
  -verbose
        Log every action
  -help
        Show this help message

Examples:
  # A quick demo
  go run ./cmd/simulate

  # Soak the notification pipeline
  go run ./cmd/simulate -bouts 200 -workers 16 -tick 1ms -pace 0
`)
}
