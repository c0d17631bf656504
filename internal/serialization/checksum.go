package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ComputeChecksum computes the hex SHA-256 checksum of a model section.
// Insignificant whitespace is removed first, so indented and compact
// encodings of the same model share a checksum.
func ComputeChecksum(model []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, model); err != nil {
		return "", fmt.Errorf("compact model: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// ValidateChecksum compares computed checksum against stored checksum.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored string) error {
	if computed != stored {
		return fmt.Errorf("%w: stored %s, computed %s", ErrChecksumMismatch, stored, computed)
	}
	return nil
}
