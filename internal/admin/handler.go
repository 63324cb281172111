// Package admin serves operator-only views over the audit trail. Routes are
// mounted behind the admin token middleware.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "cropchain/pkg/domain"
	dErrors "cropchain/pkg/domain-errors"
	audit "cropchain/pkg/platform/audit"
	"cropchain/pkg/platform/audit/publisher"
	"cropchain/pkg/platform/httputil"
	request "cropchain/pkg/platform/middleware/request"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditReader answers audit queries. *publisher.Publisher satisfies it.
type AuditReader interface {
	List(ctx context.Context, userID id.UserID) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	audit  AuditReader
	logger *slog.Logger
}

func New(reader AuditReader, logger *slog.Logger) *Handler {
	return &Handler{audit: reader, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.HandleRecent)
	r.Get("/admin/audit/users/{userID}", h.HandleUserEvents)
}

// HandleRecent lists the newest events, ?limit= capped at 500.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxAuditLimit)
	}
	events, err := h.audit.Recent(ctx, limit)
	if err != nil {
		h.writeReadError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newAuditListResponse(events))
}

func (h *Handler) HandleUserEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "user_id must be a UUID"))
		return
	}
	events, err := h.audit.List(ctx, userID)
	if err != nil {
		h.writeReadError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newAuditListResponse(events))
}

func (h *Handler) writeReadError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, publisher.ErrNoReader) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "audit trail is write-only in this deployment"))
		return
	}
	h.logger.ErrorContext(ctx, "failed to read audit events",
		"error", err,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit events"))
}
