package activation

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnknownKind   = errors.New("unknown activation")
	ErrInvalidDomain = errors.New("input outside function domain")
)

// DomainError reports an inverse lookup outside the valid range.
type DomainError struct {
	Kind Kind    // Activation whose inverse was requested
	X    float64 // Offending input
	Min  float64 // Lower bound of the domain
	Max  float64 // Upper bound of the domain
	Open bool    // Whether the bounds themselves are excluded
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Open {
		return fmt.Sprintf("%s inverse: %v not in (%v, %v)", e.Kind, e.X, e.Min, e.Max)
	}
	return fmt.Sprintf("%s inverse: %v not in [%v, %v]", e.Kind, e.X, e.Min, e.Max)
}

// Unwrap allows errors.Is(err, ErrInvalidDomain).
func (e *DomainError) Unwrap() error {
	return ErrInvalidDomain
}
