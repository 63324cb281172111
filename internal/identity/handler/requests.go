package handler

import (
	"strings"
	"time"

	"cropchain/internal/identity/models"
	id "cropchain/pkg/domain"
	dErrors "cropchain/pkg/domain-errors"
)

type LinkWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
}

func (r *LinkWalletRequest) Normalize() {
	r.WalletAddress = strings.TrimSpace(r.WalletAddress)
	r.Signature = strings.TrimSpace(r.Signature)
}

func (r *LinkWalletRequest) Validate() error {
	if r.WalletAddress == "" {
		return dErrors.New(dErrors.CodeValidation, "wallet_address is required")
	}
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	return nil
}

// IssueCredentialRequest is sent by the verifying admin. WalletAddress is
// optional and, when present, must match the user's linked wallet.
type IssueCredentialRequest struct {
	UserID        string `json:"user_id"`
	Signature     string `json:"signature"`
	WalletAddress string `json:"wallet_address,omitempty"`

	parsedUserID id.UserID
}

func (r *IssueCredentialRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Signature = strings.TrimSpace(r.Signature)
	r.WalletAddress = strings.TrimSpace(r.WalletAddress)
}

func (r *IssueCredentialRequest) Validate() error {
	userID, err := parseUserID(r.UserID)
	if err != nil {
		return err
	}
	r.parsedUserID = userID
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	return nil
}

type RevokeCredentialRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`

	parsedUserID id.UserID
}

func (r *RevokeCredentialRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RevokeCredentialRequest) Validate() error {
	userID, err := parseUserID(r.UserID)
	if err != nil {
		return err
	}
	r.parsedUserID = userID
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > 500 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 500 characters")
	}
	return nil
}

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *CreateUserRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if !models.Role(r.Role).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be one of farmer, admin, transporter, retailer, consumer")
	}
	return nil
}

// IssueTokenRequest mints a bearer token for an existing user. TTL is a Go
// duration string; empty uses the configured default.
type IssueTokenRequest struct {
	UserID string `json:"user_id"`
	TTL    string `json:"ttl,omitempty"`

	parsedUserID id.UserID
	parsedTTL    time.Duration
}

func (r *IssueTokenRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.TTL = strings.TrimSpace(r.TTL)
}

func (r *IssueTokenRequest) Validate() error {
	userID, err := parseUserID(r.UserID)
	if err != nil {
		return err
	}
	r.parsedUserID = userID
	if r.TTL != "" {
		ttl, err := time.ParseDuration(r.TTL)
		if err != nil || ttl <= 0 {
			return dErrors.New(dErrors.CodeValidation, "ttl must be a positive duration such as 24h")
		}
		r.parsedTTL = ttl
	}
	return nil
}

func parseUserID(raw string) (id.UserID, error) {
	if raw == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	userID, err := id.ParseUserID(raw)
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "user_id must be a UUID")
	}
	return userID, nil
}
