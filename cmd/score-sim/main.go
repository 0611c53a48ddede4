package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rbd-scoreboard/internal/scoresim"
)

// Default configuration constants.
const (
	defaultNumGames   = 500
	defaultNumTeams   = 20
	defaultOptInRate  = 80
	defaultTopN       = 10
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numGames   = flag.Int("games", defaultNumGames, "Number of games to play")
		numTeams   = flag.Int("teams", defaultNumTeams, "Number of distinct teams")
		optInRate  = flag.Int("optin", defaultOptInRate, "Percentage of games published on the leaderboards")
		topN       = flag.Int("top", defaultTopN, "Number of rows to print from each board")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for played games")
		logFile    = flag.String("log", "", "Log file for run output (default: score_sim_TIMESTAMP.log)")
		logFormat  = flag.String("format", "text", "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		scoresim.ShowHelp()
		return
	}

	if err := scoresim.SetupLogging(*logFile, *logFormat); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &scoresim.Config{
		BaseURL:    *baseURL,
		NumGames:   *numGames,
		NumTeams:   *numTeams,
		OptInRate:  *optInRate,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := scoresim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
