package models

import (
	"strings"
	"time"

	id "cropchain/pkg/domain"
	dErrors "cropchain/pkg/domain-errors"
)

// Role is the supply-chain role of an account.
type Role string

const (
	RoleFarmer      Role = "farmer"
	RoleAdmin       Role = "admin" // mandi officer
	RoleTransporter Role = "transporter"
	RoleRetailer    Role = "retailer"
	RoleConsumer    Role = "consumer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleFarmer, RoleAdmin, RoleTransporter, RoleRetailer, RoleConsumer:
		return true
	}
	return false
}

// User is the aggregate owning the wallet link and the verification record.
//
// Invariants:
//   - Verification.IsVerified implies CredentialHash, VerifiedAt and
//     WalletAddress are set
//   - revocation flips IsVerified and stamps RevokedAt/RevocationReason but
//     keeps CredentialHash and Signature
//   - a re-issued credential archives the previous record in
//     VerificationHistory; records are never deleted
type User struct {
	ID                  id.UserID      `json:"id"`
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	Role                Role           `json:"role"`
	WalletAddress       string         `json:"wallet_address,omitempty"`
	Verification        *Verification  `json:"verification,omitempty"`
	VerificationHistory []Verification `json:"verification_history,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Verification is the credential issued by an admin.
type Verification struct {
	IsVerified       bool       `json:"is_verified"`
	VerifiedBy       id.UserID  `json:"verified_by"`
	VerifiedAt       time.Time  `json:"verified_at"`
	CredentialHash   string     `json:"credential_hash"`
	Signature        string     `json:"signature"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevocationReason string     `json:"revocation_reason,omitempty"`
}

func NewUser(userID id.UserID, name, email string, role Role, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user name cannot be empty")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown role %q", role)
	}
	return &User{
		ID:        userID,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsVerified reports whether the user currently holds a live credential.
func (u *User) IsVerified() bool {
	return u.Verification != nil && u.Verification.IsVerified
}

// HasWallet reports whether a wallet address is linked.
func (u *User) HasWallet() bool {
	return u.WalletAddress != ""
}

// ApplyVerification installs a fresh credential. A previous (revoked) record
// moves to the history.
func (u *User) ApplyVerification(v Verification, now time.Time) {
	if u.Verification != nil {
		u.VerificationHistory = append(u.VerificationHistory, *u.Verification)
	}
	u.Verification = &v
	u.UpdatedAt = now
}

// ApplyRevocation marks the current credential revoked. Call only when
// IsVerified is true.
func (u *User) ApplyRevocation(reason string, now time.Time) {
	revokedAt := now
	u.Verification.IsVerified = false
	u.Verification.RevokedAt = &revokedAt
	u.Verification.RevocationReason = reason
	u.UpdatedAt = now
}

// ApplyWallet links a wallet address. With resetVerification a live
// credential bound to a different address is revoked.
func (u *User) ApplyWallet(address string, resetVerification bool, now time.Time) {
	changed := !strings.EqualFold(u.WalletAddress, address)
	u.WalletAddress = address
	if changed && resetVerification && u.IsVerified() {
		u.ApplyRevocation("wallet relinked", now)
	}
	u.UpdatedAt = now
}
