package scoresim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/rbd-scoreboard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// Run executes a complete simulation: health check, play, submit, read the
// boards back and verify them.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting scoreboard simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("games", config.NumGames),
		logger.Int("teams", config.NumTeams),
		logger.Int("optInRate", config.OptInRate),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	games, err := generateGames(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("game generation failed: %w", err)
	}

	if err := submitGames(ctx, config, games, stats); err != nil {
		return stats, fmt.Errorf("game submission failed: %w", err)
	}

	boards, err := getLeaderboards(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	if err := verifyResults(ctx, config, games, boards, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := saveGamesToFile(ctx, config.OutputFile, games); err != nil {
			logger.Get().Warn(ctx, "failed to save games to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// The health endpoint answers with Prometheus metrics
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveGamesToFile writes the played games as a JSON array.
func saveGamesToFile(ctx context.Context, filename string, games []Game) error {
	if len(games) == 0 {
		return fmt.Errorf("no games to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal games: %w", err)
	}
	if err := os.WriteFile(filename, data, outputPermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "games saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var storedRate, gamesPerSecond float64

	if stats.GamesSubmitted > 0 {
		storedRate = float64(stats.SavedRemote+stats.SavedLocal) / float64(stats.GamesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		gamesPerSecond = float64(stats.GamesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("gamesGenerated", stats.GamesGenerated),
		logger.Int("gamesSubmitted", stats.GamesSubmitted),
		logger.Int("savedRemote", stats.SavedRemote),
		logger.Int("savedLocal", stats.SavedLocal),
		logger.Int("skipped", stats.Skipped),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("winsEntries", stats.WinsEntries),
		logger.Int("scoreEntries", stats.ScoreEntries),
		logger.String("boardSource", stats.BoardSource),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("storedRate", storedRate),
		logger.Float64("gamesPerSecond", gamesPerSecond))
}
