package trainer

import "errors"

// Common errors.
var (
	ErrDiverged  = errors.New("training diverged")
	ErrNoSamples = errors.New("no samples")
)
