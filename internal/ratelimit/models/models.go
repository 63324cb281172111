package models

import (
	"time"

	dErrors "cropchain/pkg/domain-errors"
)

// EndpointClass groups routes that share a per-client budget.
type EndpointClass string

const (
	// ClassChat covers the assistant, which fans out to a paid model.
	ClassChat EndpointClass = "chat"
	// ClassWrite covers batch creation and stage updates.
	ClassWrite EndpointClass = "write"
	// ClassRead covers lookups, QR renders and the dashboard.
	ClassRead EndpointClass = "read"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassChat, ClassWrite, ClassRead:
		return true
	}
	return false
}

// Limit is a token bucket: PerMinute tokens refill evenly over a minute and
// at most Burst may be spent at once.
type Limit struct {
	PerMinute int
	Burst     int
}

// NewLimit rejects non-positive budgets. Burst defaults to PerMinute.
func NewLimit(perMinute, burst int) (Limit, error) {
	if perMinute <= 0 {
		return Limit{}, dErrors.Newf(dErrors.CodeInvariantViolation, "rate limit must be positive, got %d", perMinute)
	}
	if burst <= 0 {
		burst = perMinute
	}
	return Limit{PerMinute: perMinute, Burst: burst}, nil
}

// RateLimitResult is the outcome of one check against a bucket.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after"` // seconds, set when denied
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
