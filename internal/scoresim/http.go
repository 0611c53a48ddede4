package scoresim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	service "github.com/okian/rbd-scoreboard/internal/app"
	"github.com/okian/rbd-scoreboard/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitGames posts every game concurrently and records where each was saved.
func submitGames(ctx context.Context, config *Config, games []Game, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "submitting games", logger.Int("games", len(games)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/scores"

	var (
		submitted  atomic.Int64
		mismatched atomic.Int64
		counts     sync.Map // status -> *atomic.Int64
	)

	indexChan := make(chan int, maxInt(config.Workers, 1)*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < maxInt(config.Workers, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range indexChan {
				result, err := submitSingleGame(ctx, client, url, games[idx])
				status := string(result.Status)
				if err != nil {
					status = string(service.StatusFailed)
					if config.Verbose {
						log.Warn(ctx, "submission failed", logger.String("team", games[idx].Team), logger.Error(err))
					}
				} else if !matches(games[idx], result) {
					mismatched.Add(1)
					log.Warn(ctx, "service scored the sheet differently",
						logger.String("team", games[idx].Team),
						logger.Int("expectedScore", games[idx].TeamScore),
						logger.Int("gotScore", result.Score.TeamScore),
						logger.Int("expectedTarget", games[idx].Target),
						logger.Int("gotTarget", result.Score.TargetScore))
				}
				games[idx].Status = status

				c, _ := counts.LoadOrStore(status, new(atomic.Int64))
				c.(*atomic.Int64).Add(1)
				submitted.Add(1)
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range games {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	load := func(status service.SaveStatus) int {
		if c, ok := counts.Load(string(status)); ok {
			return int(c.(*atomic.Int64).Load())
		}
		return 0
	}

	stats.GamesSubmitted = int(submitted.Load())
	stats.SavedRemote = load(service.StatusRemote)
	stats.SavedLocal = load(service.StatusLocal)
	stats.Skipped = load(service.StatusSkipped)
	stats.Failed = load(service.StatusFailed)
	stats.Mismatched = int(mismatched.Load())

	log.Info(ctx, "game submission completed",
		logger.Int("remote", stats.SavedRemote),
		logger.Int("local", stats.SavedLocal),
		logger.Int("skipped", stats.Skipped),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatched", stats.Mismatched))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}
	return nil
}

// submitSingleGame posts one sheet and decodes the service's answer.
func submitSingleGame(ctx context.Context, client *HTTPClient, url string, game Game) (service.SubmitResult, error) {
	var result service.SubmitResult

	resp, err := client.Post(ctx, url, game.Form)
	if err != nil {
		return result, err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return result, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("failed to decode response: %w", err)
	}
	return result, nil
}

// matches reports whether the service derived the same totals as the simulator.
func matches(game Game, result service.SubmitResult) bool {
	return result.Score.TeamScore == game.TeamScore &&
		result.Score.TargetScore == game.Target &&
		result.Score.IsWin == game.IsWin
}

// getLeaderboards fetches both boards.
func getLeaderboards(ctx context.Context, config *Config, stats *Stats) (service.Leaderboards, error) {
	var boards service.Leaderboards

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/api/leaderboards")
	if err != nil {
		return boards, fmt.Errorf("failed to fetch leaderboards: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return boards, fmt.Errorf("failed to read leaderboards: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return boards, fmt.Errorf("leaderboards returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &boards); err != nil {
		return boards, fmt.Errorf("failed to decode leaderboards: %w", err)
	}

	stats.WinsEntries = len(boards.Wins)
	stats.ScoreEntries = len(boards.Scores)
	stats.BoardSource = string(boards.Source)
	return boards, nil
}
