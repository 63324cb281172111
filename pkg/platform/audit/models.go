// Package audit records who changed credentials and batches. Services emit
// through a Publisher; stores decide where events land (memory, Kafka).
package audit

import (
	"context"
	"time"

	id "cropchain/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers credential lifecycle changes that must be
	// retained.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected attempts worth alerting on.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine supply-chain activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// UserID is the account the action applies to; zero for batch events
	// from anonymous callers.
	UserID id.UserID `json:"user_id"`
	// ActorID is who performed the action when different from UserID, e.g.
	// the admin issuing a credential.
	ActorID   string `json:"actor_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Client    string `json:"client,omitempty"`
}

type AuditEvent string

const (
	EventUserCreated       AuditEvent = "user_created"
	EventWalletLinked      AuditEvent = "wallet_linked"
	EventWalletLinkFailed  AuditEvent = "wallet_link_failed"
	EventCredentialIssued  AuditEvent = "credential_issued"
	EventCredentialRevoked AuditEvent = "credential_revoked"
	EventIssueRejected     AuditEvent = "credential_issue_rejected"
	EventBatchCreated      AuditEvent = "batch_created"
	EventBatchUpdated      AuditEvent = "batch_updated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:       CategoryCompliance,
	EventCredentialIssued:  CategoryCompliance,
	EventCredentialRevoked: CategoryCompliance,
	EventWalletLinked:      CategoryCompliance,

	EventWalletLinkFailed: CategorySecurity,
	EventIssueRejected:    CategorySecurity,

	EventBatchCreated: CategoryOperations,
	EventBatchUpdated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can answer queries.
type Reader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
