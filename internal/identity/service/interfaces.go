package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"cropchain/internal/identity/models"
	id "cropchain/pkg/domain"
	audit "cropchain/pkg/platform/audit"
)

// UserStore persists accounts. Execute must run validate and mutate
// atomically with respect to other writers of the same user.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	Execute(ctx context.Context, userID id.UserID, validate func(*models.User) error, mutate func(*models.User)) (*models.User, error)
}

// SignatureVerifier reports whether signature over message recovers to
// expectedSigner. Implementations never return errors.
type SignatureVerifier interface {
	Verify(message, signature, expectedSigner string) bool
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
