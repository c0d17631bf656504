package transform

import (
	"encoding/json"
	"fmt"
)

// Stage applies a Func to every vector passed through it and keeps the last
// input and output for target mapping. It has no trainable parameters.
type Stage struct {
	fn     Func
	input  []float64
	output []float64
}

// New creates a stage running fn.
func New(fn Func) *Stage {
	return &Stage{fn: fn}
}

// Func returns the stage's function.
func (s *Stage) Func() Func { return s.fn }

// SetFunc replaces the stage's function.
func (s *Stage) SetFunc(fn Func) { s.fn = fn }

// Forward applies the function to input and returns the result.
func (s *Stage) Forward(input []float64) ([]float64, error) {
	s.input = append(s.input[:0], input...)
	s.output = s.fn.Apply(input)
	return s.Output(), nil
}

// Input returns a copy of the last input.
func (s *Stage) Input() []float64 {
	return append([]float64(nil), s.input...)
}

// Output returns a copy of the last output.
func (s *Stage) Output() []float64 {
	return append([]float64(nil), s.output...)
}

// Trainable reports that transform stages have nothing to train.
func (s *Stage) Trainable() bool {
	return false
}

// Inverse maps a target for the stage's output to a target for its input,
// relative to the last Forward.
func (s *Stage) Inverse(target []float64) ([]float64, error) {
	if s.output == nil {
		return nil, ErrNotEvaluated
	}
	if len(target) != len(s.output) {
		return nil, fmt.Errorf("%w: target has %d values, output has %d", ErrSizeMismatch, len(target), len(s.output))
	}
	return s.fn.Inverse(target, s.input), nil
}

// Record is the persisted form of a stage.
type Record struct {
	Func Func `json:"fs_fn"`
}

// MarshalJSON implements json.Marshaler.
func (s *Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(Record{Func: s.fn})
}

// UnmarshalJSON implements json.Unmarshaler. Cached vectors are cleared.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode transform: %w", err)
	}
	*s = Stage{fn: rec.Func}
	return nil
}
