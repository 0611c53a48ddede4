// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HazardSelection holds one raw modifier value per hazard category, in form order.
// Values come straight from select boxes and may be blank or non-numeric.
type HazardSelection []string

// TargetResult is the score a team has to reach for a given hazard selection.
type TargetResult struct {
	Base        int    `json:"base"`
	HazardTotal int    `json:"hazard_total"`
	Target      int    `json:"target"`
	Breakdown   string `json:"breakdown"`
}

// PlayerRow is one line of the scoring table.
type PlayerRow struct {
	Row    int    `json:"row"`
	Role   string `json:"role"`
	Level1 int    `json:"level1"`
	Level2 int    `json:"level2"`
	Level3 int    `json:"level3"`
	Total  int    `json:"total"`
}

// NewPlayerRow builds a row and derives its total. Negative level points are clamped to zero.
func NewPlayerRow(row int, role string, level1, level2, level3 int) PlayerRow {
	p := PlayerRow{
		Row:    row,
		Role:   strings.TrimSpace(role),
		Level1: max(level1, 0),
		Level2: max(level2, 0),
		Level3: max(level3, 0),
	}
	p.Total = p.Level1 + p.Level2 + p.Level3
	return p
}

// Outcome is the win/loss verdict for a team total against a target.
type Outcome struct {
	IsWin     bool   `json:"is_win"`
	TeamTotal int    `json:"team_total"`
	Target    int    `json:"target"`
	Margin    int    `json:"margin"`
	Message   string `json:"message"`
}

// GameScore is the persisted record of one finished game. It is never updated once stored.
type GameScore struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   *string   `json:"display_name"`
	TeamScore     int       `json:"team_score"`
	TargetScore   int       `json:"target_score"`
	IsWin         bool      `json:"is_win"`
	GoalsAchieved int       `json:"goals_achieved"`
	RolesPlayed   []string  `json:"roles_played"`
	CreatedAt     time.Time `json:"created_at"`
}

// Name returns the display name, or "" when the record is anonymous.
func (g GameScore) Name() string {
	if g.DisplayName == nil {
		return ""
	}
	return *g.DisplayName
}

// Named reports whether the record is eligible for the public leaderboards.
func (g GameScore) Named() bool {
	return g.Name() != ""
}

// TeamAggregate is a per-team summary derived from the score collection. It is never stored.
type TeamAggregate struct {
	Name    string `json:"name"`
	Wins    int    `json:"wins"`
	Games   int    `json:"games"`
	WinRate int    `json:"win_rate"`
}

// StringPtr returns a pointer to s, or nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
