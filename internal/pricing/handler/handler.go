package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"cropchain/internal/pricing/models"
	dErrors "cropchain/pkg/domain-errors"
	"cropchain/pkg/platform/httputil"
	request "cropchain/pkg/platform/middleware/request"
)

type Service interface {
	Current(ctx context.Context) models.Snapshot
	Convert(ctx context.Context, amount decimal.Decimal, token models.Token, currency models.Currency) models.Conversion
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/prices", h.HandlePrices)
	r.Get("/api/prices/convert", h.HandleConvert)
}

func (h *Handler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Current(r.Context()))
}

// HandleConvert expects amount, token and currency query parameters.
// Currency defaults to CRYPTO.
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	amount, err := parseAmount(q.Get("amount"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid conversion request",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	token, err := models.ParseToken(q.Get("token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	currency := models.CurrencyCrypto
	if raw := q.Get("currency"); raw != "" {
		if currency, err = models.ParseCurrency(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, h.service.Convert(ctx, amount, token, currency))
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, dErrors.Newf(dErrors.CodeValidation, "amount %q is not a number", raw)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, dErrors.New(dErrors.CodeValidation, "amount cannot be negative")
	}
	return amount, nil
}
