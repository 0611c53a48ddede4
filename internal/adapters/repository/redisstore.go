package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
)

const (
	redisPingTimeout = 5 * time.Second
	redisMaxRetries  = 8
)

// RedisStore keeps the score collection as a JSON array in one Redis string.
// Appends run under WATCH so concurrent writers retry instead of losing records.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, opts ...Option) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis store: %w", ErrNotConfigured)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis store: ping %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client, opts...), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient, opts ...Option) *RedisStore {
	o := newOptions(opts)
	return &RedisStore{client: client, key: o.key}
}

// Insert implements Store.
func (s *RedisStore) Insert(ctx context.Context, score model.GameScore) error {
	defer observe(BackendRedis, "insert", time.Now())

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		scores, err := decodeScores(raw)
		if err != nil {
			return err
		}
		data, err := encodeScores(append(scores, score))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("redis store: %w", err)
	}
	return fmt.Errorf("redis store: %w", ErrConflict)
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]model.GameScore, error) {
	defer observe(BackendRedis, "list", time.Now())

	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	scores, err := decodeScores(raw)
	if err != nil {
		return nil, err
	}
	newestFirst(scores)
	return scores, nil
}

// Backend implements Store.
func (s *RedisStore) Backend() string { return BackendRedis }

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
