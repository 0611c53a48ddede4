package scoresim

import (
	"time"

	"github.com/okian/rbd-scoreboard/internal/domain/sheet"
)

// Config holds configuration for a simulation run
type Config struct {
	BaseURL    string        // Base URL of the service
	NumGames   int           // Number of games to play
	NumTeams   int           // Number of distinct teams
	OptInRate  int           // Percentage of games published on the leaderboards
	TopN       int           // Number of rows to print from each board
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for played games
	Verbose    bool          // Enable verbose logging
}

// Game is one simulated score sheet and what the service should derive from it
type Game struct {
	Team      string     `json:"team"`
	Form      sheet.Form `json:"form"`
	Target    int        `json:"target"`
	TeamScore int        `json:"team_score"`
	IsWin     bool       `json:"is_win"`
	Status    string     `json:"status,omitempty"`
}

// Stats holds run statistics
type Stats struct {
	GamesGenerated int
	GamesSubmitted int
	SavedRemote    int
	SavedLocal     int
	Skipped        int
	Failed         int
	Mismatched     int
	WinsEntries    int
	ScoreEntries   int
	BoardSource    string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
