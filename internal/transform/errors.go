package transform

import "errors"

// Common errors.
var (
	ErrUnknownFunc  = errors.New("unknown transform function")
	ErrNotEvaluated = errors.New("transform has not been evaluated")
	ErrSizeMismatch = errors.New("vector size mismatch")
)
