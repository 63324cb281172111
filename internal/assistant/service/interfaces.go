package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"cropchain/internal/assistant/models"
	batchmodels "cropchain/internal/batch/models"
)

// BatchReader is the read side of the batch service. The assistant never
// writes batches.
type BatchReader interface {
	GetBatch(ctx context.Context, batchID string) (*batchmodels.Batch, error)
	GetDashboardStats(ctx context.Context) (*batchmodels.Dashboard, error)
}

// Model is a chat-completion backend. withTools offers the lookup operations
// to the model.
type Model interface {
	Complete(ctx context.Context, messages []models.Message, withTools bool) (models.Message, error)
}
