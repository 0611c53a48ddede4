package scoresim

import (
	"context"
	"errors"
	"fmt"

	service "github.com/okian/rbd-scoreboard/internal/app"
	"github.com/okian/rbd-scoreboard/internal/domain/leaderboard"
	"github.com/okian/rbd-scoreboard/pkg/logger"
)

// ErrBoardOrder is returned when a board is not ranked the way it should be.
var ErrBoardOrder = errors.New("leaderboard out of order")

// verifyResults checks the boards against the ranking rules and against the
// games this run stored.
func verifyResults(ctx context.Context, config *Config, games []Game, boards service.Leaderboards, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying leaderboards", logger.String("source", string(boards.Source)))

	if err := verifyBoardOrder(boards.Boards); err != nil {
		return err
	}

	// With stores split between remote and local, the boards only show one side.
	if stats.SavedRemote == 0 || stats.SavedLocal == 0 {
		if err := verifyAgainstGames(games, boards.Boards); err != nil {
			log.Warn(ctx, "leaderboard consistency warning", logger.Error(err))
		} else {
			log.Info(ctx, "leaderboard consistency verified")
		}
	}

	displayTopBoards(ctx, boards.Boards, config.TopN)
	return nil
}

// verifyBoardOrder checks ranks, medals and sort order of both boards.
func verifyBoardOrder(b leaderboard.Boards) error {
	for i, row := range b.Wins {
		if row.Rank != i+1 || row.Medal != leaderboard.Medal(i+1) {
			return fmt.Errorf("%w: wins row %d has rank %d medal %q", ErrBoardOrder, i, row.Rank, row.Medal)
		}
		if i == 0 {
			continue
		}
		prev := b.Wins[i-1]
		if row.Wins > prev.Wins || (row.Wins == prev.Wins && row.WinRate > prev.WinRate) {
			return fmt.Errorf("%w: wins row %d (%s) ranks above row %d (%s)", ErrBoardOrder, i, row.Name, i-1, prev.Name)
		}
	}
	for i, row := range b.Scores {
		if row.Rank != i+1 || row.Medal != leaderboard.Medal(i+1) {
			return fmt.Errorf("%w: scores row %d has rank %d medal %q", ErrBoardOrder, i, row.Rank, row.Medal)
		}
		if i > 0 && row.TeamScore > b.Scores[i-1].TeamScore {
			return fmt.Errorf("%w: scores row %d (%d) beats row %d (%d)", ErrBoardOrder, i, row.TeamScore, i-1, b.Scores[i-1].TeamScore)
		}
	}
	return nil
}

// verifyAgainstGames checks that every board row naming one of this run's
// teams agrees with the games that were stored for it.
func verifyAgainstGames(games []Game, b leaderboard.Boards) error {
	type tally struct{ wins, games int }
	teams := make(map[string]*tally)
	scores := make(map[string]map[int]bool)
	for _, g := range games {
		if !stored(g) {
			continue
		}
		t, ok := teams[g.Team]
		if !ok {
			t = &tally{}
			teams[g.Team] = t
			scores[g.Team] = make(map[int]bool)
		}
		t.games++
		if g.IsWin {
			t.wins++
		}
		scores[g.Team][g.TeamScore] = true
	}

	for _, row := range b.Wins {
		t, ok := teams[row.Name]
		if !ok {
			continue
		}
		if row.Wins != t.wins || row.Games != t.games {
			return fmt.Errorf("team %s shows %d/%d wins, stored %d/%d", row.Name, row.Wins, row.Games, t.wins, t.games)
		}
	}
	for _, row := range b.Scores {
		if known, ok := scores[row.Name]; ok && !known[row.TeamScore] {
			return fmt.Errorf("team %s shows score %d that was never stored", row.Name, row.TeamScore)
		}
	}
	return nil
}

// stored reports whether a game reached a store under its team name.
func stored(g Game) bool {
	return g.Form.OptIn && (g.Status == string(service.StatusRemote) || g.Status == string(service.StatusLocal))
}

// displayTopBoards logs the head of both boards.
func displayTopBoards(ctx context.Context, b leaderboard.Boards, topN int) {
	if topN <= 0 {
		topN = defaultDisplayTopN
	}
	log := logger.Get()

	for i := 0; i < minInt(topN, len(b.Wins)); i++ {
		row := b.Wins[i]
		log.Info(ctx, "most wins",
			logger.Int("rank", row.Rank),
			logger.String("team", row.Name),
			logger.Int("wins", row.Wins),
			logger.Int("games", row.Games),
			logger.Int("winRate", row.WinRate))
	}
	for i := 0; i < minInt(topN, len(b.Scores)); i++ {
		row := b.Scores[i]
		log.Info(ctx, "top score",
			logger.Int("rank", row.Rank),
			logger.String("team", row.Name),
			logger.Int("teamScore", row.TeamScore),
			logger.Int("targetScore", row.TargetScore))
	}
}
