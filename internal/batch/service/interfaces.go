package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"cropchain/internal/batch/models"
	audit "cropchain/pkg/platform/audit"
)

// BatchStore is the key-value collection of batches. Execute applies mutate
// atomically with respect to other writers of the same batch.
type BatchStore interface {
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, batch *models.Batch) error
	FindByID(ctx context.Context, batchID string) (*models.Batch, error)
	Execute(ctx context.Context, batchID string, mutate func(*models.Batch) error) (*models.Batch, error)
	List(ctx context.Context) ([]*models.Batch, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
