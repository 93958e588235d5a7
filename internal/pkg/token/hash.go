package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is the form refresh tokens are stored in.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
