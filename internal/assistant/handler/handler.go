package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cropchain/internal/assistant/models"
	"cropchain/pkg/platform/httputil"
	request "cropchain/pkg/platform/middleware/request"
)

type Service interface {
	Chat(ctx context.Context, message string) models.Reply
	ModelConfigured() bool
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	chatLimit func(http.Handler) http.Handler
}

// New wires the chat routes. chatLimit throttles POST /api/ai/chat; nil
// leaves the route unthrottled.
func New(service Service, logger *slog.Logger, chatLimit func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, logger: logger, chatLimit: chatLimit}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.chatLimit != nil {
			r.Use(h.chatLimit)
		}
		r.Post("/api/ai/chat", h.HandleChat)
	})
	r.Get("/api/ai/status", h.HandleStatus)
}

// HandleChat always answers 200 once the request is valid; model failures
// surface as a canned reply with fallback set.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[ChatRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	reply := h.service.Chat(ctx, req.Message)
	h.logger.InfoContext(ctx, "chat answered",
		"request_id", requestID,
		"function_called", reply.FunctionCalled,
		"fallback", reply.Fallback,
	)
	httputil.WriteJSON(w, http.StatusOK, reply)
}

type statusResponse struct {
	ModelConfigured bool `json:"model_configured"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, statusResponse{ModelConfigured: h.service.ModelConfigured()})
}
