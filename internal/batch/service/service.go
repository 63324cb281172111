package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	batchmetrics "cropchain/internal/batch/metrics"
	"cropchain/internal/batch/models"
	dErrors "cropchain/pkg/domain-errors"
	audit "cropchain/pkg/platform/audit"
	"cropchain/pkg/platform/sentinel"
	"cropchain/pkg/requestcontext"
)

var tracer = otel.Tracer("cropchain/batch")

// RecentWindow bounds RecentBatches in the dashboard.
const RecentWindow = 30 * 24 * time.Hour

// BatchService creates and updates crop batches and aggregates them for the
// dashboard. Writers to one batch are not coordinated beyond the store's
// atomic append: CurrentStage is last-write-wins.
type BatchService struct {
	store   BatchStore
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *batchmetrics.Metrics
}

type Option func(*BatchService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *BatchService) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *BatchService) {
		s.auditor = publisher
	}
}

func WithMetrics(m *batchmetrics.Metrics) Option {
	return func(s *BatchService) {
		s.metrics = m
	}
}

func New(store BatchStore, opts ...Option) *BatchService {
	s := &BatchService{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBatch validates the input, allocates the next id for the current
// year and stores the batch with its initial farmer-stage update.
func (s *BatchService) CreateBatch(ctx context.Context, in models.CreateBatchInput) (batch *models.Batch, err error) {
	ctx, span := tracer.Start(ctx, "BatchService.CreateBatch")
	defer func() { endSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	seq, err := s.store.NextSequence(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate batch id")
	}
	now := requestcontext.Now(ctx)
	batch = models.NewBatch(models.FormatBatchID(now.Year(), seq), in, now)
	span.SetAttributes(attribute.String("batch_id", batch.BatchID))

	dataURL, qrErr := qrDataURL(batch.BatchID, DefaultQRSize)
	if qrErr != nil {
		s.logger.WarnContext(ctx, "failed to render batch qr code",
			"batch_id", batch.BatchID,
			"error", qrErr,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	batch.QRCode = dataURL

	if err := s.store.Create(ctx, batch); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "batch %s already exists", batch.BatchID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store batch")
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.emit(ctx, audit.Event{
		UserID:  requestcontext.UserID(ctx),
		ActorID: batch.FarmerName,
		Action:  string(audit.EventBatchCreated),
		Subject: batch.BatchID,
	})
	s.logger.InfoContext(ctx, "batch created",
		"batch_id", batch.BatchID,
		"crop_type", batch.CropType,
		"request_id", requestcontext.RequestID(ctx),
	)
	return batch, nil
}

func (s *BatchService) GetBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	batch, err := s.store.FindByID(ctx, strings.TrimSpace(batchID))
	if err != nil {
		return nil, wrapBatchErr(err, batchID)
	}
	return batch, nil
}

// UpdateBatch appends update verbatim. Stage values and ordering are not
// checked.
func (s *BatchService) UpdateBatch(ctx context.Context, batchID string, update models.StageUpdate) (batch *models.Batch, err error) {
	ctx, span := tracer.Start(ctx, "BatchService.UpdateBatch", trace.WithAttributes(
		attribute.String("batch_id", batchID),
		attribute.String("stage", string(update.Stage)),
	))
	defer func() { endSpan(span, err) }()

	batch, err = s.store.Execute(ctx, strings.TrimSpace(batchID), func(b *models.Batch) error {
		b.ApplyUpdate(update)
		return nil
	})
	if err != nil {
		return nil, wrapBatchErr(err, batchID)
	}

	if s.metrics != nil {
		s.metrics.IncrementStageUpdate(string(update.Stage))
	}
	s.emit(ctx, audit.Event{
		UserID:  requestcontext.UserID(ctx),
		ActorID: update.Actor,
		Action:  string(audit.EventBatchUpdated),
		Subject: batch.BatchID,
		Reason:  string(update.Stage),
	})
	s.logger.InfoContext(ctx, "batch updated",
		"batch_id", batch.BatchID,
		"stage", update.Stage,
		"updates", len(batch.Updates),
		"request_id", requestcontext.RequestID(ctx),
	)
	return batch, nil
}

// GetDashboardStats aggregates every stored batch. Farmers are counted by
// distinct name. A NaN quantity makes TotalQuantity NaN.
func (s *BatchService) GetDashboardStats(ctx context.Context) (*models.Dashboard, error) {
	batches, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list batches")
	}

	slices.SortStableFunc(batches, func(a, b *models.Batch) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.BatchID, a.BatchID)
	})

	cutoff := requestcontext.Now(ctx).Add(-RecentWindow)
	farmers := make(map[string]struct{}, len(batches))
	var total models.Quantity
	recent := make([]*models.Batch, 0)
	for _, b := range batches {
		farmers[b.FarmerName] = struct{}{}
		total += b.Quantity
		if b.CreatedAt.After(cutoff) {
			recent = append(recent, b)
		}
	}

	return &models.Dashboard{
		Stats: models.DashboardStats{
			TotalBatches:  len(batches),
			TotalFarmers:  len(farmers),
			TotalQuantity: total,
			RecentBatches: recent,
		},
		Batches: batches,
	}, nil
}

// QRCode renders the batch id as a PNG of the given pixel size. The batch
// must exist.
func (s *BatchService) QRCode(ctx context.Context, batchID string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > MaxQRSize {
		return nil, dErrors.Newf(dErrors.CodeValidation, "size must be at most %d", MaxQRSize)
	}
	batch, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	png, err := renderQR(batch.BatchID, size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render qr code")
	}
	if s.metrics != nil {
		s.metrics.IncrementQRRender()
	}
	return png, nil
}

func (s *BatchService) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func wrapBatchErr(err error, batchID string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "batch %s not found", batchID)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "batch is being updated concurrently, retry")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "batch store failure")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
