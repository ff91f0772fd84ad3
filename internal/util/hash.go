package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns a short stable hex digest of the input string.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16] // Use first 16 chars of the hash
}
