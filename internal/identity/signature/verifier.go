// Package signature recovers the signer of an Ethereum personal message and
// compares it with an expected address.
package signature

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var errSignatureLength = errors.New("signature must be 65 bytes")

// Verifier checks EIP-191 personal_sign signatures. It never fails loudly:
// every problem is a false result plus a warn log.
type Verifier struct {
	logger *slog.Logger
}

func NewVerifier(logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{logger: logger}
}

// Verify reports whether sig over message was produced by the key behind
// expected. Addresses compare case-insensitively.
func (v *Verifier) Verify(message, sig, expected string) bool {
	recovered, err := RecoverAddress(message, sig)
	if err != nil {
		v.logger.Warn("signature verification failed",
			"error", err,
			"expected", expected,
		)
		return false
	}
	if !strings.EqualFold(recovered.Hex(), strings.TrimSpace(expected)) {
		v.logger.Warn("signature signer mismatch",
			"expected", expected,
			"recovered", recovered.Hex(),
		)
		return false
	}
	return true
}

// RecoverAddress returns the address that signed message. v may be 0/1 or
// 27/28.
func RecoverAddress(message, sig string) (common.Address, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(sig))
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != crypto.SignatureLength {
		return common.Address{}, errSignatureLength
	}
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
