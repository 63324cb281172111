package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"cropchain/internal/pricing/models"
)

// Feed is the upstream price source.
type Feed interface {
	FetchRates(ctx context.Context) (models.Rates, error)
}

// SnapshotStore caches the latest snapshot for a TTL. A miss is reported as
// an error wrapping sentinel.ErrNotFound.
type SnapshotStore interface {
	Get(ctx context.Context) (*models.Snapshot, error)
	Set(ctx context.Context, snap models.Snapshot, ttl time.Duration) error
}
