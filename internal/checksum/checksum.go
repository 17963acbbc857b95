// Package checksum fingerprints documents so rescans can tell whether the
// corpus changed.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of a file's raw bytes.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Changed reports whether two path->checksum snapshots differ in any path
// or digest.
func Changed(prev, next map[string]string) bool {
	if len(prev) != len(next) {
		return true
	}
	for p, sum := range next {
		if old, ok := prev[p]; !ok || old != sum {
			return true
		}
	}
	return false
}
