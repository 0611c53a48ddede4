package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
)

// Querier is the subset of *pgxpool.Pool the Postgres store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore is the remote store. Rows are inserted once and never updated.
type PostgresStore struct {
	db        Querier
	table     string
	insertSQL string
	listSQL   string
}

// OpenPostgres creates a pool for dsn. Connections are made lazily, so a
// database that is down at startup is retried on every later call.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: %w", ErrNotConfigured)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates a store over db.
func NewPostgresStore(db Querier, opts ...Option) *PostgresStore {
	o := newOptions(opts)
	table := pgx.Identifier(strings.Split(o.table, ".")).Sanitize()
	return &PostgresStore{
		db:    db,
		table: o.table,
		insertSQL: `INSERT INTO ` + table + `
			(id, display_name, team_score, target_score, is_win, goals_achieved, roles_played, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		listSQL: `SELECT id, display_name, team_score, target_score, is_win, goals_achieved, roles_played, created_at
			FROM ` + table + `
			WHERE display_name IS NOT NULL
			ORDER BY created_at DESC`,
	}
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, score model.GameScore) error {
	defer observe(BackendPostgres, "insert", time.Now())

	roles := score.RolesPlayed
	if roles == nil {
		roles = []string{}
	}
	_, err := s.db.Exec(ctx, s.insertSQL,
		score.ID, score.DisplayName, score.TeamScore, score.TargetScore,
		score.IsWin, score.GoalsAchieved, roles, score.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert into %s: %w", s.table, err)
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]model.GameScore, error) {
	defer observe(BackendPostgres, "list", time.Now())

	rows, err := s.db.Query(ctx, s.listSQL)
	if err != nil {
		return nil, fmt.Errorf("postgres: select from %s: %w", s.table, err)
	}
	defer rows.Close()

	var scores []model.GameScore
	for rows.Next() {
		var g model.GameScore
		if err := rows.Scan(&g.ID, &g.DisplayName, &g.TeamScore, &g.TargetScore,
			&g.IsWin, &g.GoalsAchieved, &g.RolesPlayed, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		scores = append(scores, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return scores, nil
}

// Backend implements Store.
func (s *PostgresStore) Backend() string { return BackendPostgres }
