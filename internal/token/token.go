// Package token generates and hashes password-reset secrets. Only the
// hash is ever persisted; the raw secret travels once inside the reset link.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const rawBytes = 32

// Hash returns the sha256 hash of a raw token, hex encoded. Deterministic:
// the stored hash is matched against Hash(presented) at redemption time.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// New generates a high-entropy raw secret and its hash.
func New() (raw, hash string, err error) {
	buf := make([]byte, rawBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}
