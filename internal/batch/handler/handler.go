package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cropchain/internal/batch/models"
	dErrors "cropchain/pkg/domain-errors"
	"cropchain/pkg/platform/httputil"
	request "cropchain/pkg/platform/middleware/request"
)

type Service interface {
	CreateBatch(ctx context.Context, in models.CreateBatchInput) (*models.Batch, error)
	GetBatch(ctx context.Context, batchID string) (*models.Batch, error)
	UpdateBatch(ctx context.Context, batchID string, update models.StageUpdate) (*models.Batch, error)
	GetDashboardStats(ctx context.Context) (*models.Dashboard, error)
	QRCode(ctx context.Context, batchID string, size int) ([]byte, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/batches", h.HandleCreate)
	r.Get("/api/batches/{batchID}", h.HandleGet)
	r.Put("/api/batches/{batchID}", h.HandleUpdate)
	r.Get("/api/batches/{batchID}/qrcode", h.HandleQRCode)
	r.Get("/api/dashboard", h.HandleDashboard)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateBatchRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	batch, err := h.service.CreateBatch(ctx, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Location", "/api/batches/"+batch.BatchID)
	httputil.WriteJSON(w, http.StatusCreated, batch)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.GetBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, batch)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateBatchRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	batch, err := h.service.UpdateBatch(ctx, chi.URLParam(r, "batchID"), req.toUpdate())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, batch)
}

func (h *Handler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "size must be a positive integer"))
			return
		}
		size = n
	}
	png, err := h.service.QRCode(r.Context(), chi.URLParam(r, "batchID"), size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dash)
}
