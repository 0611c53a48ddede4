// Package service provides the core business service behind the HTTP API:
// it evaluates score sheets, persists opted-in results and builds leaderboards.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rbd-scoreboard/internal/adapters/repository"
	"github.com/okian/rbd-scoreboard/internal/domain/leaderboard"
	"github.com/okian/rbd-scoreboard/internal/domain/model"
	"github.com/okian/rbd-scoreboard/internal/domain/scoring"
	"github.com/okian/rbd-scoreboard/internal/domain/sheet"
	"github.com/okian/rbd-scoreboard/pkg/logger"
	"github.com/okian/rbd-scoreboard/pkg/metrics"
)

// SaveStatus reports where a submitted score ended up.
type SaveStatus string

// Save outcomes.
const (
	StatusRemote  SaveStatus = "remote"
	StatusLocal   SaveStatus = "local"
	StatusSkipped SaveStatus = "skipped"
	StatusFailed  SaveStatus = "failed"
)

// Source names the store a leaderboard was read from.
type Source string

// Leaderboard sources.
const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceNone   Source = "none"
)

// SubmittedMessage is shown to the user after every submission.
const SubmittedMessage = "Score submitted! Thanks for playing Resilience by Design."

const defaultRemoteTimeout = 5 * time.Second

// SubmitResult is the outcome of one submission. Status tells the caller
// which path was taken; Message is what the user sees regardless.
type SubmitResult struct {
	Status  SaveStatus      `json:"status"`
	Stored  bool            `json:"stored"`
	Message string          `json:"message"`
	Score   model.GameScore `json:"score"`
	Outcome model.Outcome   `json:"outcome"`
}

// Leaderboards holds both boards and the store they were built from.
type Leaderboards struct {
	leaderboard.Boards
	Source Source `json:"source"`
}

// Service implements the API dependencies for the scoreboard.
type Service struct {
	mu sync.RWMutex

	// Stores
	remote repository.Store
	local  repository.Store

	// Configuration
	rules         scoring.Rules
	rows          int
	boardSize     int
	remoteTimeout time.Duration
	now           func() time.Time

	// State
	started     bool
	submissions map[SaveStatus]*atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRemote sets the primary store. Without one every save goes local.
func WithRemote(store repository.Store) Option {
	return func(s *Service) {
		s.remote = store
	}
}

// WithLocal sets the fallback store.
func WithLocal(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.local = store
		}
	}
}

// WithRules sets the scoring rules.
func WithRules(r scoring.Rules) Option {
	return func(s *Service) {
		s.rules = r
	}
}

// WithRows sets the number of player rows on a blank sheet.
func WithRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rows = n
		}
	}
}

// WithLeaderboardSize sets how many rows each board keeps.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.boardSize = n
		}
	}
}

// WithRemoteTimeout bounds each call to the remote store.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.remoteTimeout = d
		}
	}
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		local:         repository.NewMemoryStore(),
		rules:         scoring.NewRules(),
		rows:          sheet.DefaultRows,
		boardSize:     leaderboard.DefaultLimit,
		remoteTimeout: defaultRemoteTimeout,
		now:           time.Now,
		submissions: map[SaveStatus]*atomic.Int64{
			StatusRemote:  {},
			StatusLocal:   {},
			StatusSkipped: {},
			StatusFailed:  {},
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start marks the service ready and logs its wiring.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.started = true
	s.logger.Info(ctx, "scoreboard service started",
		logger.String("remote", s.backend(s.remote)),
		logger.String("local", s.backend(s.local)),
		logger.Int("baseTarget", s.rules.BaseTarget()),
		logger.Int("goalPoints", s.rules.GoalPoints()),
		logger.Int("leaderboardSize", s.boardSize),
	)
	return nil
}

// Stop closes stores that hold connections.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	for _, store := range []repository.Store{s.remote, s.local} {
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn(context.Background(), "failed to close store",
					logger.String("backend", store.Backend()),
					logger.Error(err),
				)
			}
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "scoreboard service stopped")
}

// Target computes the target score for a hazard selection.
func (s *Service) Target(hazards model.HazardSelection) model.TargetResult {
	return s.rules.CalculateTarget(hazards)
}

// NewSheet returns a blank sheet using the service's rules and layout.
func (s *Service) NewSheet() *sheet.Sheet {
	return sheet.New(sheet.WithRules(s.rules), sheet.WithRows(s.rows))
}

// Preview recomputes every derived value for a posted form.
func (s *Service) Preview(form sheet.Form) sheet.View {
	return s.sheetFor(form).View()
}

func (s *Service) sheetFor(form sheet.Form) *sheet.Sheet {
	opts := []sheet.Option{sheet.WithRules(s.rules)}
	if len(form.Players) == 0 {
		opts = append(opts, sheet.WithRows(s.rows))
	}
	return sheet.FromForm(form, opts...)
}

// Submit evaluates a form and stores the resulting record when the team
// opted in. It never fails from the user's point of view: the result always
// carries the success message, and Status says what really happened.
func (s *Service) Submit(ctx context.Context, form sheet.Form) SubmitResult {
	sh := s.sheetFor(form)
	view := sh.View()
	score := sh.Score(s.now())

	res := SubmitResult{
		Message: SubmittedMessage,
		Score:   score,
		Outcome: view.Outcome,
	}

	if !form.OptIn {
		res.Status = StatusSkipped
		s.count(StatusSkipped)
		s.logger.Debug(ctx, "submission not opted in, skipping persistence",
			logger.Int("teamScore", score.TeamScore),
		)
		return res
	}

	status, err := s.Save(ctx, score)
	res.Status = status
	res.Stored = status == StatusRemote || status == StatusLocal
	if err != nil {
		s.logger.Error(ctx, "submission was not stored",
			logger.String("id", score.ID.String()),
			logger.Error(err),
		)
	}
	return res
}

// Save writes a record to the remote store, falling back to the local store
// when no remote is configured or the insert fails. No retries are made.
func (s *Service) Save(ctx context.Context, score model.GameScore) (SaveStatus, error) {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		err := s.remote.Insert(rctx, score)
		cancel()
		if err == nil {
			s.count(StatusRemote)
			return StatusRemote, nil
		}
		metrics.RecordRemoteFailure("insert")
		metrics.RecordErrorByType("remote_insert", "medium")
		s.logger.Warn(ctx, "remote insert failed, saving locally",
			logger.String("backend", s.remote.Backend()),
			logger.Error(err),
		)
	}

	// The fallback must land even if the caller went away mid remote insert.
	if err := s.local.Insert(context.WithoutCancel(ctx), score); err != nil {
		s.count(StatusFailed)
		metrics.RecordErrorByType("local_insert", "high")
		return StatusFailed, fmt.Errorf("local %s store: %w", s.local.Backend(), err)
	}
	metrics.RecordLocalWrite()
	s.count(StatusLocal)
	return StatusLocal, nil
}

// Leaderboards reads the named records and builds both boards. The remote
// store is preferred; the local store is used when the remote fails or has
// nothing. A failing local store yields empty boards.
func (s *Service) Leaderboards(ctx context.Context) Leaderboards {
	scores, source := s.load(ctx)
	metrics.RecordLeaderboardLoad(string(source), len(scores))
	return Leaderboards{
		Boards: leaderboard.Build(scores, s.boardSize),
		Source: source,
	}
}

func (s *Service) load(ctx context.Context) ([]model.GameScore, Source) {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		scores, err := s.remote.List(rctx)
		cancel()
		if err != nil {
			metrics.RecordRemoteFailure("list")
			s.logger.Warn(ctx, "remote read failed, using local store",
				logger.String("backend", s.remote.Backend()),
				logger.Error(err),
			)
		} else if named := repository.NamedOnly(scores); len(named) > 0 {
			return named, SourceRemote
		}
	}

	scores, err := s.local.List(ctx)
	if err != nil {
		metrics.RecordErrorByType("local_read", "high")
		s.logger.Error(ctx, "local read failed",
			logger.String("backend", s.local.Backend()),
			logger.Error(err),
		)
		return nil, SourceNone
	}
	return repository.NamedOnly(scores), SourceLocal
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	submissions := make(map[string]int64, len(s.submissions))
	for status, n := range s.submissions {
		submissions[string(status)] = n.Load()
	}

	return map[string]interface{}{
		"started":         s.started,
		"remoteBackend":   s.backend(s.remote),
		"localBackend":    s.backend(s.local),
		"baseTarget":      s.rules.BaseTarget(),
		"goalPoints":      s.rules.GoalPoints(),
		"playerRows":      s.rows,
		"leaderboardSize": s.boardSize,
		"remoteTimeoutMs": s.remoteTimeout.Milliseconds(),
		"submissions":     submissions,
	}
}

func (s *Service) count(status SaveStatus) {
	s.submissions[status].Add(1)
	metrics.RecordSubmission(string(status))
}

func (s *Service) backend(store repository.Store) string {
	if store == nil {
		return "none"
	}
	return store.Backend()
}
