package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// UnknownOrigin is the sentinel secondary key used when the originating
// network address could not be determined. It is never used to restrict
// eligibility.
const UnknownOrigin = "unknown"

// NormalizeWallet lower-cases a wallet address so lookups and lock keys are
// case-insensitive. Format validation (0x + 40 hex chars) happens at the
// HTTP boundary.
func NormalizeWallet(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Resolver derives privacy-preserving identity keys for faucet requests.
type Resolver struct {
	salt string
}

// NewResolver constructs a resolver using the provided hash salt.
func NewResolver(salt string) *Resolver {
	return &Resolver{salt: salt}
}

// OriginKey returns a one-way salted digest of the originating address,
// rendered as a 64-character hex string. Empty or unresolved origins degrade
// to UnknownOrigin.
func (r *Resolver) OriginKey(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" || origin == UnknownOrigin {
		return UnknownOrigin
	}
	sum := sha256.Sum256([]byte(origin + r.salt))
	return hex.EncodeToString(sum[:])
}
