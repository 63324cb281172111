package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	identitymetrics "cropchain/internal/identity/metrics"
	"cropchain/internal/identity/models"
	id "cropchain/pkg/domain"
	dErrors "cropchain/pkg/domain-errors"
	audit "cropchain/pkg/platform/audit"
	"cropchain/pkg/platform/sentinel"
	"cropchain/pkg/requestcontext"
)

var tracer = otel.Tracer("cropchain/identity")

// RelinkPolicy decides what LinkWallet does to a live credential bound to a
// different address.
type RelinkPolicy int

const (
	// RelinkKeepVerification overwrites the address and leaves the
	// credential alone.
	RelinkKeepVerification RelinkPolicy = iota
	// RelinkResetVerification revokes the credential when the address changes.
	RelinkResetVerification
)

// CredentialService issues, revokes and reports verification credentials and
// links wallets to accounts. Every check runs before the store write, so a
// failed call never leaves a partial record.
type CredentialService struct {
	users        UserStore
	verifier     SignatureVerifier
	logger       *slog.Logger
	auditor      AuditPublisher
	metrics      *identitymetrics.Metrics
	relinkPolicy RelinkPolicy
	allowReissue bool
}

type Option func(*CredentialService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *CredentialService) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *CredentialService) {
		s.auditor = publisher
	}
}

func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *CredentialService) {
		s.metrics = m
	}
}

func WithRelinkPolicy(policy RelinkPolicy) Option {
	return func(s *CredentialService) {
		s.relinkPolicy = policy
	}
}

// WithAllowReissue controls whether a revoked user can be verified again.
// Defaults to true.
func WithAllowReissue(allow bool) Option {
	return func(s *CredentialService) {
		s.allowReissue = allow
	}
}

func New(users UserStore, verifier SignatureVerifier, opts ...Option) *CredentialService {
	s := &CredentialService{
		users:        users,
		verifier:     verifier,
		logger:       slog.Default(),
		allowReissue: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser provisions an account. Registration flows live elsewhere; this
// exists for operators and seeding.
func (s *CredentialService) CreateUser(ctx context.Context, name, email string, role models.Role) (*models.User, error) {
	user, err := models.NewUser(id.NewUserID(), name, email, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, dErrors.Message(err))
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.emit(ctx, audit.Event{
		UserID:  user.ID,
		ActorID: "admin-token",
		Action:  string(audit.EventUserCreated),
		Subject: string(user.Role),
	})
	s.logger.InfoContext(ctx, "user created",
		"user_id", user.ID,
		"role", user.Role,
		"request_id", requestcontext.RequestID(ctx),
	)
	return user, nil
}

func (s *CredentialService) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err, "user not found")
	}
	return user, nil
}

// IssueCredential verifies userID on behalf of verifierID. signature is the
// verifier's personal_sign over the attestation message. walletAddress, when
// non-empty, must match the user's linked wallet.
func (s *CredentialService) IssueCredential(ctx context.Context, userID, verifierID id.UserID, signature, walletAddress string) (result *models.IssueResult, err error) {
	ctx, span := tracer.Start(ctx, "CredentialService.IssueCredential", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("verifier_id", verifierID.String()),
	))
	defer func() { endSpan(span, err) }()
	start := time.Now()

	verifier, err := s.users.FindByID(ctx, verifierID)
	if err != nil {
		return nil, s.reject(ctx, "issue", wrapUserErr(err, "verifier not found"))
	}

	now := requestcontext.Now(ctx)
	var credentialHash string
	user, err := s.users.Execute(ctx, userID,
		func(u *models.User) error {
			if !verifier.IsAdmin() {
				return dErrors.New(dErrors.CodeForbidden, "only admins can issue credentials")
			}
			if u.IsVerified() {
				return dErrors.New(dErrors.CodeAlreadyVerified, "user is already verified")
			}
			if u.Verification != nil && !s.allowReissue {
				return dErrors.New(dErrors.CodeConflict, "credential was revoked and re-issuance is disabled")
			}
			if !u.HasWallet() {
				return dErrors.New(dErrors.CodeMissingWallet, "user has no linked wallet")
			}
			if walletAddress != "" && !strings.EqualFold(walletAddress, u.WalletAddress) {
				return dErrors.New(dErrors.CodeWalletMismatch, "wallet address does not match the linked wallet")
			}
			credentialHash = models.CredentialHash(u.ID, u.WalletAddress, u.Role, now)
			if !verifier.HasWallet() {
				return dErrors.New(dErrors.CodeMissingVerifierWallet, "verifier has no linked wallet")
			}
			message := models.AttestationMessage(u.Name, u.Email, u.WalletAddress)
			if !s.verifier.Verify(message, signature, verifier.WalletAddress) {
				return dErrors.New(dErrors.CodeInvalidSignature, "invalid verifier signature")
			}
			return nil
		},
		func(u *models.User) {
			u.ApplyVerification(models.Verification{
				IsVerified:     true,
				VerifiedBy:     verifierID,
				VerifiedAt:     now,
				CredentialHash: credentialHash,
				Signature:      signature,
			}, now)
		},
	)
	if err != nil {
		err = wrapUserErr(err, "user not found")
		if dErrors.HasCode(err, dErrors.CodeInvalidSignature) || dErrors.HasCode(err, dErrors.CodeForbidden) {
			s.emit(ctx, audit.Event{
				UserID:  userID,
				ActorID: verifierID.String(),
				Action:  string(audit.EventIssueRejected),
				Reason:  string(dErrors.CodeOf(err)),
			})
		}
		return nil, s.reject(ctx, "issue", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementIssued()
		s.metrics.ObserveIssue(start)
	}
	s.emit(ctx, audit.Event{
		UserID:   user.ID,
		ActorID:  verifierID.String(),
		Action:   string(audit.EventCredentialIssued),
		Subject:  user.WalletAddress,
		Decision: credentialHash,
	})
	s.logger.InfoContext(ctx, "credential issued",
		"user_id", user.ID,
		"verifier_id", verifierID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.IssueResult{CredentialHash: credentialHash, IsVerified: true}, nil
}

// RevokeCredential marks the user's credential revoked. Hash and signature
// stay on the record.
func (s *CredentialService) RevokeCredential(ctx context.Context, userID, adminID id.UserID, reason string) (err error) {
	ctx, span := tracer.Start(ctx, "CredentialService.RevokeCredential", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("admin_id", adminID.String()),
	))
	defer func() { endSpan(span, err) }()

	admin, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		return s.reject(ctx, "revoke", wrapUserErr(err, "admin not found"))
	}

	now := requestcontext.Now(ctx)
	reason = strings.TrimSpace(reason)
	_, err = s.users.Execute(ctx, userID,
		func(u *models.User) error {
			if !admin.IsAdmin() {
				return dErrors.New(dErrors.CodeForbidden, "only admins can revoke credentials")
			}
			if !u.IsVerified() {
				return dErrors.New(dErrors.CodeNotVerified, "user is not verified")
			}
			return nil
		},
		func(u *models.User) {
			u.ApplyRevocation(reason, now)
		},
	)
	if err != nil {
		return s.reject(ctx, "revoke", wrapUserErr(err, "user not found"))
	}

	if s.metrics != nil {
		s.metrics.IncrementRevoked()
	}
	s.emit(ctx, audit.Event{
		UserID:  userID,
		ActorID: adminID.String(),
		Action:  string(audit.EventCredentialRevoked),
		Reason:  reason,
	})
	s.logger.InfoContext(ctx, "credential revoked",
		"user_id", userID,
		"admin_id", adminID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// CheckVerificationStatus discloses the verification flag and, only while
// the credential is live, its hash.
func (s *CredentialService) CheckVerificationStatus(ctx context.Context, userID id.UserID) (*models.VerificationStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err, "user not found")
	}
	status := &models.VerificationStatus{
		IsVerified: user.IsVerified(),
		Role:       user.Role,
	}
	if user.Verification != nil {
		verifiedAt := user.Verification.VerifiedAt
		status.VerifiedAt = &verifiedAt
	}
	if user.IsVerified() {
		hash := user.Verification.CredentialHash
		status.CredentialHash = &hash
	}
	return status, nil
}

// LinkWallet binds walletAddress to the user after checking the user signed
// the link message with that wallet's key.
func (s *CredentialService) LinkWallet(ctx context.Context, userID id.UserID, walletAddress, signature string) (result *models.LinkResult, err error) {
	ctx, span := tracer.Start(ctx, "CredentialService.LinkWallet", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
	))
	defer func() { endSpan(span, err) }()

	walletAddress = strings.TrimSpace(walletAddress)
	if !common.IsHexAddress(walletAddress) {
		return nil, s.reject(ctx, "link_wallet", dErrors.New(dErrors.CodeInvalidInput, "wallet address must be a 20-byte hex address"))
	}

	now := requestcontext.Now(ctx)
	reset := s.relinkPolicy == RelinkResetVerification
	var previous string
	user, err := s.users.Execute(ctx, userID,
		func(u *models.User) error {
			if !s.verifier.Verify(models.WalletLinkMessage(walletAddress), signature, walletAddress) {
				return dErrors.New(dErrors.CodeInvalidSignature, "invalid wallet signature")
			}
			previous = u.WalletAddress
			return nil
		},
		func(u *models.User) {
			u.ApplyWallet(walletAddress, reset, now)
		},
	)
	if err != nil {
		err = wrapUserErr(err, "user not found")
		if dErrors.HasCode(err, dErrors.CodeInvalidSignature) {
			s.emit(ctx, audit.Event{
				UserID:  userID,
				Action:  string(audit.EventWalletLinkFailed),
				Subject: walletAddress,
				Reason:  "invalid_signature",
			})
		}
		return nil, s.reject(ctx, "link_wallet", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementWalletLinked()
	}
	event := audit.Event{
		UserID:  user.ID,
		Action:  string(audit.EventWalletLinked),
		Subject: walletAddress,
	}
	if previous != "" && !strings.EqualFold(previous, walletAddress) {
		event.Reason = "relinked from " + previous
	}
	s.emit(ctx, event)
	s.logger.InfoContext(ctx, "wallet linked",
		"user_id", user.ID,
		"relinked", previous != "",
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.LinkResult{WalletAddress: user.WalletAddress}, nil
}

func (s *CredentialService) reject(ctx context.Context, operation string, err error) error {
	code := dErrors.CodeOf(err)
	if s.metrics != nil {
		s.metrics.IncrementRejected(operation, string(code))
	}
	level := slog.LevelWarn
	if code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "credential operation rejected",
		"operation", operation,
		"code", code,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return err
}

// emit never fails the calling operation.
func (s *CredentialService) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func wrapUserErr(err error, notFoundMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
