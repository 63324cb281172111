// Package store caches the latest price snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"cropchain/internal/pricing/models"
)

const snapshotKey = "cropchain:prices:snapshot"

// InMemory holds the snapshot in a process-local ristretto cache.
type InMemory struct {
	cache *ristretto.Cache[string, models.Snapshot]
}

func NewInMemory() (*InMemory, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, models.Snapshot]{
		NumCounters: 100,
		MaxCost:     10,
		BufferItems: 64,
		// one snapshot costs 1; the entry overhead must not count against MaxCost
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create price cache: %w", err)
	}
	return &InMemory{cache: cache}, nil
}

func (s *InMemory) Get(_ context.Context) (*models.Snapshot, error) {
	snap, ok := s.cache.Get(snapshotKey)
	if !ok {
		return nil, ErrMiss
	}
	return &snap, nil
}

func (s *InMemory) Set(_ context.Context, snap models.Snapshot, ttl time.Duration) error {
	if !s.cache.SetWithTTL(snapshotKey, snap, 1, ttl) {
		return errors.New("price cache rejected snapshot")
	}
	s.cache.Wait()
	return nil
}

func (s *InMemory) Close() {
	s.cache.Close()
}
