package graph

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrLayerNotFound = errors.New("layer not found")
	ErrInvalidRecord = errors.New("invalid graph record")
)

// SizeMismatchError is returned when a vector does not match the number of
// designated input or output nodes.
type SizeMismatchError struct {
	Expected int    // Number of designated nodes
	Got      int    // Length of the given vector
	What     string // "inputs" or "targets"
}

// Error implements the error interface.
func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for %s: expected %d values, got %d", e.What, e.Expected, e.Got)
}
