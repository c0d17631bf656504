package trainer

import (
	"context"
	"fmt"
)

// Source supplies training samples. Implementations may be environments
// that produce a new situation on every call.
type Source interface {
	Sample(ctx context.Context) (input, target []float64, err error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (input, target []float64, err error)

// Sample implements Source.
func (f SourceFunc) Sample(ctx context.Context) ([]float64, []float64, error) {
	return f(ctx)
}

// Samples is a fixed data set served in order, wrapping around at the end.
type Samples struct {
	Inputs  [][]float64
	Targets [][]float64
	next    int
}

// NewSamples creates a data set. inputs and targets are paired by index.
func NewSamples(inputs, targets [][]float64) (*Samples, error) {
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("%d inputs but %d targets", len(inputs), len(targets))
	}
	return &Samples{Inputs: inputs, Targets: targets}, nil
}

// Len returns the number of samples.
func (s *Samples) Len() int {
	return len(s.Inputs)
}

// Sample implements Source.
func (s *Samples) Sample(context.Context) ([]float64, []float64, error) {
	if len(s.Inputs) == 0 {
		return nil, nil, ErrNoSamples
	}

	i := s.next % len(s.Inputs)
	s.next = i + 1
	return s.Inputs[i], s.Targets[i], nil
}

// Reset restarts the cycle from the first sample.
func (s *Samples) Reset() {
	s.next = 0
}
