package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cropchain/internal/pricing/models"
	"cropchain/pkg/platform/sentinel"
)

// ErrMiss is returned when no fresh snapshot is cached.
var ErrMiss = fmt.Errorf("price snapshot %w", sentinel.ErrNotFound)

// RedisStore shares the snapshot between instances so only one of them needs
// to hit the upstream feed per TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context) (*models.Snapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get price snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode price snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Set(ctx context.Context, snap models.Snapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode price snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set price snapshot: %w", err)
	}
	return nil
}
