// Package scoring turns score-sheet inputs into targets, outcomes and game records.
//
// Everything here is pure: the same inputs always give the same outputs and
// nothing passed in is modified.
package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
)

// Default rule constants.
const (
	DefaultBaseTarget = 56
	DefaultGoalPoints = 6
)

// Outcome messages.
const (
	winMessage     = "Success! Your community has built sufficient resilience to withstand the selected hazards. You scored %d points and needed %d to succeed."
	lossMessage    = "Close! Your community came close but did not build sufficient resilience to fully withstand the selected hazards. You scored %d points but needed %d. You were %d points short."
	PendingMessage = "Enter your scores above to see the result."
)

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithBaseTarget overrides the base target score.
func WithBaseTarget(base int) Option {
	return func(r *Rules) {
		if base > 0 {
			r.baseTarget = base
		}
	}
}

// WithGoalPoints overrides the points awarded per achieved goal.
func WithGoalPoints(points int) Option {
	return func(r *Rules) {
		if points > 0 {
			r.goalPoints = points
		}
	}
}

// Rules holds the scoring constants of the exercise.
type Rules struct {
	baseTarget int
	goalPoints int
}

// NewRules creates Rules with the exercise defaults.
func NewRules(opts ...Option) Rules {
	r := Rules{
		baseTarget: DefaultBaseTarget,
		goalPoints: DefaultGoalPoints,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// BaseTarget returns the base target score.
func (r Rules) BaseTarget() int { return r.baseTarget }

// GoalPoints returns the points per achieved goal.
func (r Rules) GoalPoints() int { return r.goalPoints }

// CalculateTarget sums the hazard modifiers onto the base target.
// Malformed modifiers count as zero.
func (r Rules) CalculateTarget(hazards model.HazardSelection) model.TargetResult {
	hazardTotal := 0
	for _, h := range hazards {
		hazardTotal += CoerceInt(h)
	}
	return model.TargetResult{
		Base:        r.baseTarget,
		HazardTotal: hazardTotal,
		Target:      r.baseTarget + hazardTotal,
		Breakdown:   fmt.Sprintf("%d + %d =", r.baseTarget, hazardTotal),
	}
}

// GoalsTotal returns the bonus for the given number of achieved goals.
func (r Rules) GoalsTotal(goals int) int {
	return max(goals, 0) * r.goalPoints
}

// TeamTotal adds the player totals and the goal bonus.
func (r Rules) TeamTotal(players []model.PlayerRow, goals int) int {
	total := r.GoalsTotal(goals)
	for _, p := range players {
		total += p.Total
	}
	return total
}

// BuildGameScore assembles the record stored for a finished game.
// Roles are listed in row order, skipping rows without a role.
func (r Rules) BuildGameScore(players []model.PlayerRow, target model.TargetResult, goals int, displayName *string, now time.Time) model.GameScore {
	teamTotal := r.TeamTotal(players, goals)
	outcome := CheckWinCondition(teamTotal, target.Target)

	roles := make([]string, 0, len(players))
	for _, p := range players {
		if p.Role != "" {
			roles = append(roles, p.Role)
		}
	}

	var name *string
	if displayName != nil {
		n := *displayName
		name = &n
	}

	return model.GameScore{
		ID:            uuid.New(),
		DisplayName:   name,
		TeamScore:     teamTotal,
		TargetScore:   target.Target,
		IsWin:         outcome.IsWin,
		GoalsAchieved: max(goals, 0),
		RolesPlayed:   roles,
		CreatedAt:     now.UTC(),
	}
}

// CheckWinCondition compares a team total with its target. A tie is a win.
func CheckWinCondition(teamTotal, target int) model.Outcome {
	out := model.Outcome{
		IsWin:     teamTotal >= target,
		TeamTotal: teamTotal,
		Target:    target,
		Margin:    teamTotal - target,
	}
	if out.IsWin {
		out.Message = fmt.Sprintf(winMessage, teamTotal, target)
	} else {
		out.Message = fmt.Sprintf(lossMessage, teamTotal, target, target-teamTotal)
	}
	return out
}

// FormatMargin renders a margin with an explicit sign, e.g. "+3", "-2", "+0".
func FormatMargin(margin int) string {
	if margin >= 0 {
		return fmt.Sprintf("+%d", margin)
	}
	return fmt.Sprintf("%d", margin)
}

var defaultRules = NewRules()

// CalculateTarget uses the default rules.
func CalculateTarget(hazards model.HazardSelection) model.TargetResult {
	return defaultRules.CalculateTarget(hazards)
}

// BuildGameScore uses the default rules.
func BuildGameScore(players []model.PlayerRow, target model.TargetResult, goals int, displayName *string, now time.Time) model.GameScore {
	return defaultRules.BuildGameScore(players, target, goals, displayName, now)
}
