package pipeline

import "errors"

// Common errors.
var (
	ErrUnknownStage  = errors.New("unknown stage type")
	ErrNotEvaluated  = errors.New("pipeline has not been evaluated")
	ErrNotInvertible = errors.New("stage cannot map targets back to its input")
	ErrSizeMismatch  = errors.New("vector size mismatch")
	ErrInvalidRecord = errors.New("invalid pipeline record")
)
