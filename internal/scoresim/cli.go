package scoresim

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/rbd-scoreboard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both the console and a file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, format string) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "score_sim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Resilience by Design Score Simulator
====================================

Plays random games against a running scoreboard, then checks the
leaderboards it serves.

Usage:
  go run ./cmd/score-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -games int
        Number of games to play (default 500)
  -teams int
        Number of distinct teams (default 20)
  -optin int
        Percentage of games published on the leaderboards (default 80)
  -top int
        Number of rows to print from each board (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for played games (default: none)
  -log string
        Log file for run output (default: score_sim_TIMESTAMP.log)
  -format string
        Log format, text or json (default "text")
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Play with default settings
  go run ./cmd/score-sim

  # Many games between few teams
  go run ./cmd/score-sim -games 5000 -teams 5 -workers 16 -url http://localhost:8080
`)
}
