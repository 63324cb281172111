package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	id "cropchain/pkg/domain"
)

// SystemName appears in the wallet-link message.
const SystemName = "CropChain"

// AttestationMessage is the payload an admin signs to verify a user. The
// format must stay byte-identical for previously issued signatures.
func AttestationMessage(name, email, walletAddress string) string {
	return fmt.Sprintf("Verify user %s (%s) with wallet %s", name, email, walletAddress)
}

// WalletLinkMessage is the payload a user signs to prove key possession.
func WalletLinkMessage(walletAddress string) string {
	return fmt.Sprintf("Link wallet %s to %s account", walletAddress, SystemName)
}

// CredentialHash is keccak256 over "userId:wallet:role:unixMillis". The
// timestamp makes it a receipt rather than a replayable proof.
func CredentialHash(userID id.UserID, walletAddress string, role Role, at time.Time) string {
	data := fmt.Sprintf("%s:%s:%s:%d", userID, walletAddress, role, at.UnixMilli())
	return crypto.Keccak256Hash([]byte(data)).Hex()
}

// VerificationStatus is the minimal disclosure returned to third parties.
type VerificationStatus struct {
	IsVerified     bool       `json:"is_verified"`
	Role           Role       `json:"role"`
	VerifiedAt     *time.Time `json:"verified_at"`
	CredentialHash *string    `json:"credential_hash"`
}

// IssueResult is returned after a credential is issued.
type IssueResult struct {
	CredentialHash string `json:"credential_hash"`
	IsVerified     bool   `json:"is_verified"`
}

// LinkResult is returned after a wallet is linked.
type LinkResult struct {
	WalletAddress string `json:"wallet_address"`
}
