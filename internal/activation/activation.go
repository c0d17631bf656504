// Package activation implements the scalar activation functions used by
// flexible network nodes.
//
// Every Kind provides a forward function, a derivative and an inverse:
//   - Identity: f(x) = x
//   - Sigmoid:  f(x) = 1 / (1 + exp(-x))
//   - Tanh:     f(x) = tanh(x)
//   - ReLU:     f(x) = max(0, x)
//
// Derivatives are evaluated on the node's activated value, not on the
// pre-activation sum. For Identity and ReLU the two conventions agree; for
// Sigmoid and Tanh they do not, and the formulas below are kept exactly as
// the training rule expects them:
//
//	Sigmoid'(v) = v / (1 - v)
//	Tanh'(v)    = 1 - tanh(v)²
package activation

import (
	"fmt"
	"math"
	"strings"
)

// Kind identifies an activation function.
type Kind int

// Supported activation functions.
const (
	Identity Kind = iota
	Sigmoid
	Tanh
	ReLU
)

// Kinds lists every supported activation in tag order.
var Kinds = []Kind{Identity, Sigmoid, Tanh, ReLU}

// String returns the canonical tag of the activation.
func (k Kind) String() string {
	switch k {
	case Identity:
		return "Identity"
	case Sigmoid:
		return "Sigmoid"
	case Tanh:
		return "Tanh"
	case ReLU:
		return "ReLU"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported activations.
func (k Kind) Valid() bool {
	return k >= Identity && k <= ReLU
}

// Parse converts a tag into a Kind. Matching is case-insensitive and
// accepts "DoNothing" and "none" as aliases of Identity.
func Parse(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "identity", "donothing", "none", "linear":
		return Identity, nil
	case "sigmoid", "logistic":
		return Sigmoid, nil
	case "tanh":
		return Tanh, nil
	case "relu":
		return ReLU, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Apply evaluates the activation at x.
func (k Kind) Apply(x float64) float64 {
	switch k {
	case Sigmoid:
		return 1.0 / (1.0 + math.Exp(-x))
	case Tanh:
		return math.Tanh(x)
	case ReLU:
		if x <= 0 {
			return 0
		}
		return x
	default:
		return x
	}
}

// Derivative evaluates the derivative of the activation at the activated
// value v.
func (k Kind) Derivative(v float64) float64 {
	switch k {
	case Sigmoid:
		return v / (1.0 - v)
	case Tanh:
		t := math.Tanh(v)
		return 1.0 - t*t
	case ReLU:
		if v <= 0 {
			return 0
		}
		return 1
	default:
		return 1
	}
}

// Inverse maps an activated value y back to the pre-activation sum.
//
// Sigmoid accepts [0, 1], with the bounds mapping to ±Inf. Tanh accepts
// the open interval (-1, 1) and ReLU accepts [0, +Inf). Values outside the
// domain return a *DomainError. Identity accepts every value.
func (k Kind) Inverse(y float64) (float64, error) {
	switch k {
	case Sigmoid:
		if err := checkDomain(k, y, 0, 1); err != nil {
			return 0, err
		}
		return math.Log(y / (1.0 - y)), nil
	case Tanh:
		if math.IsNaN(y) || y <= -1 || y >= 1 {
			return 0, &DomainError{Kind: k, X: y, Min: -1, Max: 1, Open: true}
		}
		return 0.5 * math.Log((1.0+y)/(1.0-y)), nil
	case ReLU:
		if err := checkDomain(k, y, 0, math.Inf(1)); err != nil {
			return 0, err
		}
		return y, nil
	default:
		return y, nil
	}
}

func checkDomain(k Kind, x, lo, hi float64) error {
	if math.IsNaN(x) || x < lo || x > hi {
		return &DomainError{Kind: k, X: x, Min: lo, Max: hi}
	}
	return nil
}
