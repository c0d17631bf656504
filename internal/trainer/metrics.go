package trainer

import (
	"fmt"
	"math"

	"github.com/born-ml/flexnet/internal/pipeline"
	"gonum.org/v1/gonum/floats"
)

// SquaredError returns Σ (output - target)².
func SquaredError(output, target []float64) float64 {
	d := floats.Distance(output, target, 2)
	return d * d
}

// MeanSquaredError evaluates p on every sample and returns the mean of the
// per-sample squared errors.
func MeanSquaredError(p *pipeline.Pipeline, samples *Samples) (float64, error) {
	if samples.Len() == 0 {
		return 0, ErrNoSamples
	}

	var total float64
	for i, in := range samples.Inputs {
		out, err := p.Forward(in)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if len(out) != len(samples.Targets[i]) {
			return 0, fmt.Errorf("sample %d: output has %d values, target has %d", i, len(out), len(samples.Targets[i]))
		}
		total += SquaredError(out, samples.Targets[i])
	}

	return total / float64(samples.Len()), nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
