package admin

import (
	audit "cropchain/pkg/platform/audit"
)

// AuditListResponse wraps audit events for HTTP responses.
type AuditListResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}

func newAuditListResponse(events []audit.Event) *AuditListResponse {
	if events == nil {
		events = []audit.Event{}
	}
	return &AuditListResponse{Events: events, Total: len(events)}
}
