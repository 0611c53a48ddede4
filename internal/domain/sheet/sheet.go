// Package sheet is the score-sheet view-model.
//
// A Sheet holds the raw field values of one game (hazard selects, level
// points per player, goal checkboxes, leaderboard opt-in) and recomputes
// every derived total after each change. Callers drive it through typed event
// methods and observe it through handlers registered with OnChange.
//
// A Sheet is not safe for concurrent use; each request or session owns its own.
package sheet

import (
	"strings"
	"time"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
	"github.com/okian/rbd-scoreboard/internal/domain/scoring"
)

// Sheet layout defaults.
const (
	DefaultRows    = 4
	DefaultHazards = 3
	DefaultGoals   = 4
	levelsPerRow   = 3

	// AnonymousTeam is used when a team opts in without a name.
	AnonymousTeam = "Anonymous Team"
)

// View is the derived state shown next to the form.
type View struct {
	Target        model.TargetResult `json:"target"`
	Players       []model.PlayerRow  `json:"players"`
	ProjectTotal  int                `json:"project_total"`
	GoalsAchieved int                `json:"goals_achieved"`
	GoalsTotal    int                `json:"goals_total"`
	TeamTotal     int                `json:"team_total"`
	Outcome       model.Outcome      `json:"outcome"`
	Margin        string             `json:"margin"`
	Pending       bool               `json:"pending"`
	Message       string             `json:"message"`
	OptIn         bool               `json:"opt_in"`
	DisplayName   string             `json:"display_name"`
}

type player struct {
	role   string
	levels [levelsPerRow]string
}

// Option applies a configuration option to a Sheet.
type Option func(*Sheet)

// WithRules sets the scoring rules.
func WithRules(r scoring.Rules) Option {
	return func(s *Sheet) { s.rules = r }
}

// WithRows sets the number of player rows.
func WithRows(n int) Option {
	return func(s *Sheet) {
		if n > 0 {
			s.players = make([]player, n)
		}
	}
}

// WithHazards sets the number of hazard categories.
func WithHazards(n int) Option {
	return func(s *Sheet) {
		if n >= 0 {
			s.hazards = make([]string, n)
		}
	}
}

// WithGoals sets the number of goal checkboxes.
func WithGoals(n int) Option {
	return func(s *Sheet) {
		if n >= 0 {
			s.goals = make([]bool, n)
		}
	}
}

// Sheet is the score-sheet view-model.
type Sheet struct {
	rules       scoring.Rules
	hazards     []string
	players     []player
	goals       []bool
	optIn       bool
	displayName string

	handlers []func(View)
	view     View
}

// New creates an empty sheet with the default layout.
func New(opts ...Option) *Sheet {
	s := &Sheet{
		rules:   scoring.NewRules(),
		hazards: make([]string, DefaultHazards),
		players: make([]player, DefaultRows),
		goals:   make([]bool, DefaultGoals),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s
}

// FromForm builds a sheet laid out like the posted form.
func FromForm(f Form, opts ...Option) *Sheet {
	rows := len(f.Players)
	if rows == 0 {
		rows = DefaultRows
	}
	base := []Option{WithRows(rows), WithHazards(len(f.Hazards)), WithGoals(len(f.Goals))}
	s := New(append(base, opts...)...)

	for i, h := range f.Hazards {
		if i < len(s.hazards) {
			s.hazards[i] = string(h)
		}
	}
	for i, p := range f.Players {
		if i >= len(s.players) {
			break
		}
		s.players[i] = player{
			role:   p.Role,
			levels: [levelsPerRow]string{string(p.Level1), string(p.Level2), string(p.Level3)},
		}
	}
	copy(s.goals, f.Goals)
	s.optIn = f.OptIn
	s.displayName = f.DisplayName

	s.recompute()
	return s
}

// OnChange registers a handler called with the new view after every change.
func (s *Sheet) OnChange(fn func(View)) {
	if fn != nil {
		s.handlers = append(s.handlers, fn)
	}
}

// View returns the current derived state.
func (s *Sheet) View() View {
	return s.view
}

// SetHazard sets the modifier of hazard category i (0-based).
func (s *Sheet) SetHazard(i int, value string) {
	if i < 0 || i >= len(s.hazards) {
		return
	}
	s.hazards[i] = value
	s.changed()
}

// SetPoints sets the points of a level (1-3) for a player row (1-based).
func (s *Sheet) SetPoints(row, level int, value string) {
	if row < 1 || row > len(s.players) || level < 1 || level > levelsPerRow {
		return
	}
	s.players[row-1].levels[level-1] = value
	s.changed()
}

// SetRole sets the role played on a row (1-based).
func (s *Sheet) SetRole(row int, role string) {
	if row < 1 || row > len(s.players) {
		return
	}
	s.players[row-1].role = role
	s.changed()
}

// ToggleGoal marks goal i (0-based) as achieved or not.
func (s *Sheet) ToggleGoal(i int, checked bool) {
	if i < 0 || i >= len(s.goals) {
		return
	}
	s.goals[i] = checked
	s.changed()
}

// SetOptIn sets whether the game is published on the leaderboards.
func (s *Sheet) SetOptIn(optIn bool) {
	s.optIn = optIn
	s.changed()
}

// SetDisplayName sets the team name shown on the leaderboards.
func (s *Sheet) SetDisplayName(name string) {
	s.displayName = name
	s.changed()
}

// Reset clears every field, keeping the layout and the registered handlers.
func (s *Sheet) Reset() {
	for i := range s.hazards {
		s.hazards[i] = ""
	}
	for i := range s.players {
		s.players[i] = player{}
	}
	for i := range s.goals {
		s.goals[i] = false
	}
	s.optIn = false
	s.displayName = ""
	s.changed()
}

// Form returns the raw field values.
func (s *Sheet) Form() Form {
	f := Form{
		Hazards:     make([]FormValue, len(s.hazards)),
		Players:     make([]PlayerInput, len(s.players)),
		Goals:       append([]bool(nil), s.goals...),
		OptIn:       s.optIn,
		DisplayName: s.displayName,
	}
	for i, h := range s.hazards {
		f.Hazards[i] = FormValue(h)
	}
	for i, p := range s.players {
		f.Players[i] = PlayerInput{
			Role:   p.role,
			Level1: FormValue(p.levels[0]),
			Level2: FormValue(p.levels[1]),
			Level3: FormValue(p.levels[2]),
		}
	}
	return f
}

// PublicName returns the leaderboard name, or nil when the team did not opt in.
func (s *Sheet) PublicName() *string {
	if !s.optIn {
		return nil
	}
	name := strings.TrimSpace(s.displayName)
	if name == "" {
		name = AnonymousTeam
	}
	return &name
}

// Score builds the game record for the current state.
func (s *Sheet) Score(now time.Time) model.GameScore {
	return s.rules.BuildGameScore(s.view.Players, s.view.Target, s.view.GoalsAchieved, s.PublicName(), now)
}

func (s *Sheet) changed() {
	s.recompute()
	for _, fn := range s.handlers {
		fn(s.view)
	}
}

func (s *Sheet) recompute() {
	target := s.rules.CalculateTarget(model.HazardSelection(s.hazards))

	players := make([]model.PlayerRow, len(s.players))
	project := 0
	for i, p := range s.players {
		players[i] = model.NewPlayerRow(i+1, p.role,
			scoring.CoerceInt(p.levels[0]),
			scoring.CoerceInt(p.levels[1]),
			scoring.CoerceInt(p.levels[2]),
		)
		project += players[i].Total
	}

	achieved := 0
	for _, g := range s.goals {
		if g {
			achieved++
		}
	}
	goalsTotal := s.rules.GoalsTotal(achieved)
	team := project + goalsTotal
	outcome := scoring.CheckWinCondition(team, target.Target)

	v := View{
		Target:        target,
		Players:       players,
		ProjectTotal:  project,
		GoalsAchieved: achieved,
		GoalsTotal:    goalsTotal,
		TeamTotal:     team,
		Outcome:       outcome,
		Margin:        scoring.FormatMargin(outcome.Margin),
		Pending:       team <= 0,
		Message:       outcome.Message,
		OptIn:         s.optIn,
		DisplayName:   s.displayName,
	}
	if v.Pending {
		v.Message = scoring.PendingMessage
	}
	s.view = v
}
