package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cropchain/internal/assistant/models"
	dErrors "cropchain/pkg/domain-errors"
	"cropchain/pkg/requestcontext"
)

const (
	msgUnknownTool = "Unknown function requested."
	msgExecFailed  = "An error occurred while processing your request."
)

// Executor runs typed operations against the batch service. It never returns
// an error: every failure becomes a Result with Success false.
type Executor struct {
	batches BatchReader
	logger  *slog.Logger
}

func NewExecutor(batches BatchReader, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{batches: batches, logger: logger}
}

// Run decodes a tool call and executes it.
func (e *Executor) Run(ctx context.Context, name, arguments string) models.Result {
	op, err := models.DecodeOperation(name, arguments)
	if err != nil {
		e.logger.WarnContext(ctx, "tool call rejected",
			"tool", name,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		var unknown *models.UnknownToolError
		if errors.As(err, &unknown) {
			return models.Result{Success: false, Message: msgUnknownTool}
		}
		return models.Result{Success: false, Message: msgExecFailed}
	}
	return e.Execute(ctx, op)
}

func (e *Executor) Execute(ctx context.Context, op models.Operation) models.Result {
	switch op := op.(type) {
	case models.SearchBatch:
		return e.searchBatch(ctx, op)
	case models.GetBatchStats:
		return e.batchStats(ctx)
	case models.ExplainProcess:
		return Explain(op.Topic)
	default:
		return models.Result{Success: false, Message: msgUnknownTool}
	}
}

func (e *Executor) searchBatch(ctx context.Context, op models.SearchBatch) models.Result {
	batch, err := e.batches.GetBatch(ctx, op.BatchID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return models.Result{
			Success: false,
			Message: fmt.Sprintf("Batch %s not found. Please check the batch ID format (CROP-YYYY-XXX).", op.BatchID),
		}
	}
	if err != nil {
		return e.failed(ctx, op, err)
	}
	return models.Result{Success: true, Data: models.BatchSummary{
		BatchID:      batch.BatchID,
		FarmerName:   batch.FarmerName,
		CropType:     batch.CropType,
		Quantity:     batch.Quantity,
		CurrentStage: batch.CurrentStage,
		Origin:       batch.Origin,
		HarvestDate:  batch.HarvestDate,
		UpdatesCount: len(batch.Updates),
	}}
}

func (e *Executor) batchStats(ctx context.Context) models.Result {
	dash, err := e.batches.GetDashboardStats(ctx)
	if err != nil {
		return e.failed(ctx, models.GetBatchStats{}, err)
	}
	return models.Result{Success: true, Data: models.StatsSummary{
		TotalBatches:  dash.Stats.TotalBatches,
		TotalFarmers:  dash.Stats.TotalFarmers,
		TotalQuantity: dash.Stats.TotalQuantity,
		RecentBatches: dash.Stats.RecentBatches,
	}}
}

func (e *Executor) failed(ctx context.Context, op models.Operation, err error) models.Result {
	e.logger.ErrorContext(ctx, "tool execution failed",
		"tool", op.Tool(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return models.Result{Success: false, Message: msgExecFailed}
}
