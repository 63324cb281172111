package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cropchain/internal/batch/models"
	"cropchain/pkg/platform/sentinel"
)

const (
	indexKey    = "cropchain:batches"
	sequenceKey = "cropchain:batch:seq"
	maxRetries  = 5
)

// RedisStore keeps each batch as a JSON string and indexes ids in a sorted
// set scored by creation time. Updates use WATCH/MULTI so a concurrent writer
// forces a retry instead of dropping an update.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NextSequence uses INCR, so ids stay unique across restarts and replicas.
func (s *RedisStore) NextSequence(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, sequenceKey).Result()
}

func (s *RedisStore) Create(ctx context.Context, b *models.Batch) error {
	data, err := encode(b)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, batchKey(b.BatchID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create batch %s: %w", b.BatchID, err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	score := float64(b.CreatedAt.UnixMilli())
	if err := s.client.ZAdd(ctx, indexKey, redis.Z{Score: score, Member: b.BatchID}).Err(); err != nil {
		return fmt.Errorf("index batch %s: %w", b.BatchID, err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, batchID string) (*models.Batch, error) {
	data, err := s.client.Get(ctx, batchKey(batchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	return decode(data)
}

func (s *RedisStore) Execute(ctx context.Context, batchID string, mutate func(*models.Batch) error) (*models.Batch, error) {
	key := batchKey(batchID)
	var result *models.Batch
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		b, err := decode(data)
		if err != nil {
			return err
		}
		if err := mutate(b); err != nil {
			return err
		}
		encoded, err := encode(b)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			result = b
		}
		return err
	}

	for range maxRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update batch %s: %w", batchID, sentinel.ErrConflict)
}

func (s *RedisStore) List(ctx context.Context) ([]*models.Batch, error) {
	ids, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list batch ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, batchID := range ids {
		keys[i] = batchKey(batchID)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	out := make([]*models.Batch, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		b, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
