// Package transform implements parameter-free vector stages that can sit
// between graphs in a pipeline.
package transform

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Func identifies a vector function.
type Func int

// Supported functions.
const (
	// Identity passes the vector through.
	Identity Func = iota
	// Fraction divides every element by the sum of the vector.
	Fraction
	// SoftMax exponentiates every element, then applies Fraction.
	SoftMax
)

// String returns the canonical tag of the function.
func (f Func) String() string {
	switch f {
	case Identity:
		return "Identity"
	case Fraction:
		return "Fraction"
	case SoftMax:
		return "SoftMax"
	default:
		return fmt.Sprintf("Func(%d)", int(f))
	}
}

// Valid reports whether f is a supported function.
func (f Func) Valid() bool {
	return f >= Identity && f <= SoftMax
}

// ParseFunc converts a tag into a Func. Matching is case-insensitive;
// "DoNothing" is accepted for Identity.
func ParseFunc(s string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "identity", "donothing", "none":
		return Identity, nil
	case "fraction", "fractional":
		return Fraction, nil
	case "softmax":
		return SoftMax, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFunc, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Func) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFunc, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Func) UnmarshalText(text []byte) error {
	parsed, err := ParseFunc(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Apply evaluates the function on x and returns a new vector.
//
// Non-finite results (an all-zero vector under Fraction, overflowing
// exponentials under SoftMax) are returned as is.
func (f Func) Apply(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)

	switch f {
	case Fraction:
		fraction(out)
	case SoftMax:
		for i, v := range out {
			out[i] = math.Exp(v)
		}
		fraction(out)
	}
	return out
}

// Inverse maps a target for the output of f back to a target for its
// input, given the input f last received.
//
//	Identity: t
//	Fraction: t · Σ input
//	SoftMax:  ln(t) + ln Σ exp(input)
//
// SoftMax targets are clamped to minTarget before the logarithm. An empty
// input maps the target unchanged.
func (f Func) Inverse(target, input []float64) []float64 {
	out := make([]float64, len(target))
	copy(out, target)
	if len(input) == 0 {
		return out
	}

	switch f {
	case Fraction:
		floats.Scale(floats.Sum(input), out)
	case SoftMax:
		for i, t := range out {
			out[i] = math.Log(math.Max(t, minTarget))
		}
		floats.AddConst(floats.LogSumExp(input), out)
	}
	return out
}

const minTarget = 1e-12

func fraction(x []float64) {
	floats.Scale(1/floats.Sum(x), x)
}
