// Package repository holds the stores game scores are written to and read from.
//
// A remote store (PostgreSQL) is the primary copy. Local stores keep the
// whole collection as one JSON array under a single key, mirroring what a
// browser keeps in local storage, and serve as the fallback.
package repository

import (
	"context"
	"sort"
	"time"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
	"github.com/okian/rbd-scoreboard/pkg/metrics"
)

// Backend names.
const (
	BackendPostgres = "postgres"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Defaults.
const (
	DefaultKey   = "rbd_scores"
	DefaultTable = "scores"
)

// Store provides append and read access to game scores.
type Store interface {
	// Insert appends one record. Records are never updated or deleted.
	Insert(ctx context.Context, score model.GameScore) error

	// List returns stored records, newest first. Remote stores only return
	// records with a display name.
	List(ctx context.Context) ([]model.GameScore, error)

	// Backend names the storage technology, e.g. "postgres".
	Backend() string
}

// NamedOnly returns the records that carry a display name, keeping order.
func NamedOnly(scores []model.GameScore) []model.GameScore {
	out := make([]model.GameScore, 0, len(scores))
	for _, s := range scores {
		if s.Named() {
			out = append(out, s)
		}
	}
	return out
}

// newestFirst orders records by creation time, newest first.
func newestFirst(scores []model.GameScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].CreatedAt.After(scores[j].CreatedAt)
	})
}

func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}
