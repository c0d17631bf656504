package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrFileTooLarge       = errors.New("model file exceeds maximum size")
	ErrMissingModel       = errors.New("model file has no model section")
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "non_finite", "too_many_nodes")
	Stage   string // Stage path, nested positions joined by dots (e.g., "1.0")
	Node    int    // Node id, or -1 when the error is not about a node
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Node >= 0 {
		return fmt.Sprintf("%s: stage %s: node %d: %s", e.Type, e.Stage, e.Node, e.Details)
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: stage %s: %s", e.Type, e.Stage, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
