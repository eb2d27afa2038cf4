// internal/artwork/fingerprint.go
package artwork

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of the raw artwork bytes.
// Identical bytes always produce the identical digest; any byte difference,
// including a lossless re-encode of the same image, is a different design.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Matches reports whether data hashes to expectedHash.
func Matches(data []byte, expectedHash string) bool {
	return Fingerprint(data) == expectedHash
}
