package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cropchain/internal/identity/models"
	id "cropchain/pkg/domain"
	dErrors "cropchain/pkg/domain-errors"
	"cropchain/pkg/platform/httputil"
	authmw "cropchain/pkg/platform/middleware/auth"
	request "cropchain/pkg/platform/middleware/request"
)

// Service defines the credential operations exposed over HTTP.
type Service interface {
	CreateUser(ctx context.Context, name, email string, role models.Role) (*models.User, error)
	GetUser(ctx context.Context, userID id.UserID) (*models.User, error)
	LinkWallet(ctx context.Context, userID id.UserID, walletAddress, signature string) (*models.LinkResult, error)
	IssueCredential(ctx context.Context, userID, verifierID id.UserID, signature, walletAddress string) (*models.IssueResult, error)
	RevokeCredential(ctx context.Context, userID, adminID id.UserID, reason string) error
	CheckVerificationStatus(ctx context.Context, userID id.UserID) (*models.VerificationStatus, error)
}

// TokenIssuer mints bearer tokens for provisioned users.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, role string, expiresIn time.Duration) (string, error)
}

type Handler struct {
	service      Service
	tokens       TokenIssuer
	jwtValidator authmw.JWTValidator
	logger       *slog.Logger
	tokenTTL     time.Duration
}

func New(service Service, tokens TokenIssuer, jwtValidator authmw.JWTValidator, logger *slog.Logger, tokenTTL time.Duration) *Handler {
	return &Handler{
		service:      service,
		tokens:       tokens,
		jwtValidator: jwtValidator,
		logger:       logger,
		tokenTTL:     tokenTTL,
	}
}

// Register mounts the public and bearer-protected credential routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/did/status/{userID}", h.HandleStatus)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/api/did/link-wallet", h.HandleLinkWallet)
		r.Post("/api/did/issue", h.HandleIssue)
		r.Post("/api/did/revoke", h.HandleRevoke)
		r.Get("/api/me", h.HandleMe)
	})
}

// RegisterAdmin mounts provisioning routes. The caller guards them with the
// admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/users", h.HandleCreateUser)
	r.Get("/admin/users/{userID}", h.HandleGetUser)
	r.Post("/admin/tokens", h.HandleIssueToken)
}

func (h *Handler) HandleLinkWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[LinkWalletRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.LinkWallet(ctx, userID, req.WalletAddress, req.Signature)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleIssue issues a credential; the authenticated caller is the verifier.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	verifierID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[IssueCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.IssueCredential(ctx, req.parsedUserID, verifierID, req.Signature, req.WalletAddress)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	adminID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RevokeCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.RevokeCredential(ctx, req.parsedUserID, adminID, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus is public: anyone holding a user id may check it.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.CheckVerificationStatus(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	user, err := h.service.CreateUser(ctx, req.Name, req.Email, models.Role(req.Role))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[IssueTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	user, err := h.service.GetUser(ctx, req.parsedUserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ttl := h.tokenTTL
	if req.parsedTTL > 0 {
		ttl = req.parsedTTL
	}
	token, err := h.tokens.GenerateAccessToken(user.ID, string(user.Role), ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign access token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}
	h.logger.InfoContext(ctx, "access token issued",
		"user_id", user.ID,
		"ttl", ttl.String(),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID := authmw.GetUserID(r.Context())
	if userID.IsNil() {
		h.logger.ErrorContext(r.Context(), "userID missing from context despite auth middleware",
			"request_id", request.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}
