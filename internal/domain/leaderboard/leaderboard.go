// Package leaderboard derives the two ranked views shown to players from the
// full collection of stored game scores.
//
// Views are rebuilt from scratch on every call; nothing is cached or updated
// incrementally, so the same collection always yields the same boards.
package leaderboard

import (
	"math"
	"sort"
	"time"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
)

// DefaultLimit is the number of rows kept on each board.
const DefaultLimit = 10

const percent = 100

// Medal classes for the first three ranks.
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
)

// WinsRow is a ranked row of the most-wins board.
type WinsRow struct {
	Rank  int    `json:"rank"`
	Medal string `json:"medal,omitempty"`
	model.TeamAggregate
}

// ScoreRow is a ranked row of the top-scores board.
type ScoreRow struct {
	Rank        int       `json:"rank"`
	Medal       string    `json:"medal,omitempty"`
	Name        string    `json:"name"`
	TeamScore   int       `json:"team_score"`
	TargetScore int       `json:"target_score"`
	IsWin       bool      `json:"is_win"`
	CreatedAt   time.Time `json:"created_at"`
}

// Boards holds both views.
type Boards struct {
	Wins   []WinsRow  `json:"wins"`
	Scores []ScoreRow `json:"scores"`
}

// Aggregate groups named records by display name, keeping first-seen order.
// Anonymous records are ignored.
func Aggregate(scores []model.GameScore) []model.TeamAggregate {
	index := make(map[string]int)
	teams := make([]model.TeamAggregate, 0)
	for _, s := range scores {
		if !s.Named() {
			continue
		}
		name := s.Name()
		i, ok := index[name]
		if !ok {
			i = len(teams)
			index[name] = i
			teams = append(teams, model.TeamAggregate{Name: name})
		}
		teams[i].Games++
		if s.IsWin {
			teams[i].Wins++
		}
	}
	for i := range teams {
		teams[i].WinRate = winRate(teams[i].Wins, teams[i].Games)
	}
	return teams
}

// winRate is wins/games as a whole percentage, rounding halves up.
func winRate(wins, games int) int {
	if games == 0 {
		return 0
	}
	return int(math.Floor(float64(wins)/float64(games)*percent + 0.5))
}

// Wins ranks teams by wins, then by win rate, keeping at most limit rows.
// Exact ties keep the order in which the teams first appear in scores.
func Wins(scores []model.GameScore, limit int) []WinsRow {
	teams := Aggregate(scores)
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Wins != teams[j].Wins {
			return teams[i].Wins > teams[j].Wins
		}
		return teams[i].WinRate > teams[j].WinRate
	})
	teams = truncate(teams, limit)

	rows := make([]WinsRow, len(teams))
	for i, t := range teams {
		rows[i] = WinsRow{Rank: i + 1, Medal: Medal(i + 1), TeamAggregate: t}
	}
	return rows
}

// Scores ranks named records by team score, keeping at most limit rows.
// Equal scores keep their input order.
func Scores(scores []model.GameScore, limit int) []ScoreRow {
	named := make([]model.GameScore, 0, len(scores))
	for _, s := range scores {
		if s.Named() {
			named = append(named, s)
		}
	}
	sort.SliceStable(named, func(i, j int) bool {
		return named[i].TeamScore > named[j].TeamScore
	})
	named = truncate(named, limit)

	rows := make([]ScoreRow, len(named))
	for i, s := range named {
		rows[i] = ScoreRow{
			Rank:        i + 1,
			Medal:       Medal(i + 1),
			Name:        s.Name(),
			TeamScore:   s.TeamScore,
			TargetScore: s.TargetScore,
			IsWin:       s.IsWin,
			CreatedAt:   s.CreatedAt,
		}
	}
	return rows
}

// Build returns both boards for the collection.
func Build(scores []model.GameScore, limit int) Boards {
	return Boards{
		Wins:   Wins(scores, limit),
		Scores: Scores(scores, limit),
	}
}

// Medal returns the css class for a rank, or "" below the podium.
func Medal(rank int) string {
	switch rank {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return ""
	}
}

func truncate[T any](s []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
