package activation

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApply tests the forward functions at a few reference points.
func TestApply(t *testing.T) {
	tests := []struct {
		kind Kind
		x    float64
		want float64
	}{
		{Identity, -3.5, -3.5},
		{Sigmoid, 0, 0.5},
		{Sigmoid, 2, 0.8808},
		{Tanh, 0, 0},
		{Tanh, 1, 0.7616},
		{ReLU, -1, 0},
		{ReLU, 0, 0},
		{ReLU, 2.5, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.kind.Apply(tt.x), 1e-4)
		})
	}
}

// TestDerivativeUsesActivatedValue pins the derivative formulas, which take
// the activated value as argument.
func TestDerivativeUsesActivatedValue(t *testing.T) {
	assert.Equal(t, 1.0, Identity.Derivative(42))
	assert.InDelta(t, 0.25/0.75, Sigmoid.Derivative(0.25), 1e-12)
	assert.InDelta(t, 1-math.Pow(math.Tanh(0.5), 2), Tanh.Derivative(0.5), 1e-12)
	assert.Equal(t, 0.0, ReLU.Derivative(0))
	assert.Equal(t, 0.0, ReLU.Derivative(-2))
	assert.Equal(t, 1.0, ReLU.Derivative(0.1))
}

// TestInverse tests that Inverse undoes Apply inside the domain.
func TestInverse(t *testing.T) {
	for _, k := range Kinds {
		for _, x := range []float64{0.1, 0.7, 1.3} {
			y := k.Apply(x)
			got, err := k.Inverse(y)
			require.NoError(t, err, "%s(%v)", k, x)
			assert.InDelta(t, x, got, 1e-9, "%s inverse at %v", k, y)
		}
	}
}

// TestInverseDomain tests the domain checks of the inverse functions.
func TestInverseDomain(t *testing.T) {
	tests := []struct {
		kind Kind
		y    float64
	}{
		{Sigmoid, -0.1},
		{Sigmoid, 1.5},
		{Tanh, -1.01},
		{Tanh, 2},
		{ReLU, -0.5},
		{Sigmoid, math.NaN()},
	}

	for _, tt := range tests {
		_, err := tt.kind.Inverse(tt.y)
		require.Error(t, err, "%s(%v)", tt.kind, tt.y)
		assert.True(t, errors.Is(err, ErrInvalidDomain))

		var domainErr *DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, tt.kind, domainErr.Kind)
	}

	_, err := Identity.Inverse(-1e9)
	assert.NoError(t, err)
}

// TestInverseBounds tests which domain bounds are included.
func TestInverseBounds(t *testing.T) {
	for _, y := range []float64{-1, 1} {
		_, err := Tanh.Inverse(y)
		var domainErr *DomainError
		require.ErrorAs(t, err, &domainErr, "tanh inverse at %v", y)
		assert.True(t, domainErr.Open)
		assert.Contains(t, err.Error(), "(-1, 1)")
	}

	lo, err := Sigmoid.Inverse(0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(lo, -1))
	hi, err := Sigmoid.Inverse(1)
	require.NoError(t, err)
	assert.True(t, math.IsInf(hi, 1))

	zero, err := ReLU.Inverse(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero)
}

// TestParse tests tag parsing including aliases.
func TestParse(t *testing.T) {
	tests := map[string]Kind{
		"Identity":  Identity,
		"DoNothing": Identity,
		"sigmoid":   Sigmoid,
		"TANH":      Tanh,
		" relu ":    ReLU,
	}
	for in, want := range tests {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Parse("softplus")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

// TestKindJSON tests that kinds travel as text tags.
func TestKindJSON(t *testing.T) {
	data, err := json.Marshal([]Kind{Identity, ReLU})
	require.NoError(t, err)
	assert.JSONEq(t, `["Identity","ReLU"]`, string(data))

	var kinds []Kind
	require.NoError(t, json.Unmarshal([]byte(`["DoNothing","Tanh","Sigmoid"]`), &kinds))
	assert.Equal(t, []Kind{Identity, Tanh, Sigmoid}, kinds)

	_, err = json.Marshal(Kind(9))
	assert.Error(t, err)
}
