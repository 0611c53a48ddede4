package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
)

// MemoryStore keeps scores in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	scores []model.GameScore
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, score model.GameScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer observe(BackendMemory, "insert", time.Now())

	s.mu.Lock()
	s.scores = append(s.scores, cloneScore(score))
	s.mu.Unlock()
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]model.GameScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer observe(BackendMemory, "list", time.Now())

	s.mu.RLock()
	out := make([]model.GameScore, len(s.scores))
	for i, sc := range s.scores {
		out[i] = cloneScore(sc)
	}
	s.mu.RUnlock()

	newestFirst(out)
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores)
}

// Backend implements Store.
func (s *MemoryStore) Backend() string { return BackendMemory }

// cloneScore copies the reference fields so callers cannot reach stored state.
func cloneScore(s model.GameScore) model.GameScore {
	if s.DisplayName != nil {
		name := *s.DisplayName
		s.DisplayName = &name
	}
	s.RolesPlayed = append([]string(nil), s.RolesPlayed...)
	return s
}
