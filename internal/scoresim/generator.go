package scoresim

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/rbd-scoreboard/internal/domain/sheet"
	"github.com/okian/rbd-scoreboard/pkg/logger"
)

var roles = []string{"Mayor", "Engineer", "Planner", "Medic", "Firefighter", "Scientist"}

// randomInt returns a uniform integer in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// chance reports true with the given percentage.
func chance(percent int) bool {
	return randomInt(PercentageMultiplier) < percent
}

// teamNames creates n distinct team names.
func teamNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "team-" + uuid.New().String()[:teamIDLength]
	}
	return names
}

// generateGames plays the configured number of games across the teams.
func generateGames(ctx context.Context, config *Config, stats *Stats) ([]Game, error) {
	logger.Get().Info(ctx, "generating games", logger.Int("numGames", config.NumGames), logger.Int("numTeams", config.NumTeams))

	games := make([]Game, config.NumGames)
	teams := teamNames(maxInt(config.NumTeams, 1))

	type gameResult struct {
		index int
		game  Game
		err   error
	}

	resultChan := make(chan gameResult, config.NumGames)

	workerCount := minInt(maxInt(config.Workers, 1), config.NumGames)
	if workerCount == 0 {
		return games, nil
	}
	gamesPerWorker := config.NumGames / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * gamesPerWorker
		end := start + gamesPerWorker
		if worker == workerCount-1 {
			end = config.NumGames // Last worker gets remaining games
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- gameResult{index: i, err: ctx.Err()}
					return
				default:
					team := teams[i%len(teams)]
					resultChan <- gameResult{index: i, game: playGame(team, chance(config.OptInRate))}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumGames; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during game generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate game %d: %w", result.index, result.err)
			}
			games[result.index] = result.game
		}
	}

	stats.GamesGenerated = len(games)
	logger.Get().Info(ctx, "generated games successfully", logger.Int("count", len(games)))

	return games, nil
}

// playGame fills a score sheet the way a table would, one field at a time.
func playGame(team string, optIn bool) Game {
	s := sheet.New()

	for i := 0; i < sheet.DefaultHazards; i++ {
		s.SetHazard(i, strconv.Itoa(randomInt(maxHazardModifier+1)))
	}

	players := 1 + randomInt(sheet.DefaultRows)
	for row := 1; row <= players; row++ {
		s.SetRole(row, roles[randomInt(len(roles))])
		for level := 1; level <= 3; level++ {
			s.SetPoints(row, level, strconv.Itoa(randomInt(maxLevelPoints+1)))
		}
	}

	for i := 0; i < sheet.DefaultGoals; i++ {
		s.ToggleGoal(i, chance(goalChancePercent))
	}

	if optIn {
		s.SetOptIn(true)
		s.SetDisplayName(team)
	}

	v := s.View()
	return Game{
		Team:      team,
		Form:      s.Form(),
		Target:    v.Target.Target,
		TeamScore: v.TeamTotal,
		IsWin:     v.Outcome.IsWin,
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// maxInt returns the maximum of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
