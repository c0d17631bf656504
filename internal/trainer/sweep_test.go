package trainer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/born-ml/flexnet/internal/parallel"
	"github.com/born-ml/flexnet/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepPicksBest(t *testing.T) {
	build, _ := singleEdge(t)
	samples, err := NewSamples([][]float64{{1}}, [][]float64{{2}})
	require.NoError(t, err)

	configs := []Config{
		{Iterations: 1000, Rates: []float64{10}, MaxRestarts: -1},
		{Iterations: 10, Rates: []float64{0.01}},
		{Iterations: 1000, Rates: []float64{0.1}},
	}
	results, best, err := Sweep(quiet(), build, samples, configs, parallel.Sequential())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, ErrDiverged)
	assert.Nil(t, results[0].Pipeline)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 2, best)
	assert.Less(t, results[2].Loss, results[1].Loss)
	assert.Equal(t, configs[2].Rates, results[2].Config.Rates)
	assert.Equal(t, 1000, results[2].Report.Steps)
}

func TestSweepConcurrent(t *testing.T) {
	build := newSingleEdge
	samples, err := NewSamples([][]float64{{1}, {2}}, [][]float64{{2}, {4}})
	require.NoError(t, err)

	configs := make([]Config, 6)
	for i := range configs {
		configs[i] = Config{Iterations: 500, Rates: []float64{0.01 * float64(i+1)}}
	}
	results, best, err := Sweep(quiet(), build, samples, configs, parallel.Config{Workers: 3})
	require.NoError(t, err)
	require.GreaterOrEqual(t, best, 0)

	for i, res := range results {
		require.NoError(t, res.Err, "candidate %d", i)
		assert.Equal(t, 500, res.Report.Steps, "candidate %d", i)
		assert.LessOrEqual(t, results[best].Loss, res.Loss)
	}
	assert.Equal(t, 0, samples.next, "the shared data set is not consumed")
}

func TestSweepAllDiverge(t *testing.T) {
	build, _ := singleEdge(t)
	samples, err := NewSamples([][]float64{{1}}, [][]float64{{2}})
	require.NoError(t, err)

	results, best, err := Sweep(quiet(), build, samples, []Config{
		{Iterations: 1000, Rates: []float64{10}, MaxRestarts: -1},
	}, parallel.Sequential())
	require.NoError(t, err)
	assert.Equal(t, -1, best)
	assert.ErrorIs(t, results[0].Err, ErrDiverged)
}

func TestBestResultSkipsNaN(t *testing.T) {
	results := []Result{
		{Loss: math.NaN()},
		{Err: ErrDiverged},
		{Loss: 0.5},
		{Loss: 0.25},
		{Loss: 0.25},
	}
	assert.Equal(t, 3, bestResult(results))

	assert.Equal(t, -1, bestResult([]Result{{Loss: math.NaN()}, {Err: ErrDiverged}}))
	assert.Equal(t, -1, bestResult(nil))
}

func TestSweepErrors(t *testing.T) {
	boom := errors.New("boom")
	fail := func() (*pipeline.Pipeline, error) { return nil, boom }
	samples, err := NewSamples([][]float64{{1}}, [][]float64{{2}})
	require.NoError(t, err)

	_, _, err = Sweep(quiet(), fail, samples, []Config{{}, {}}, parallel.Config{Workers: 2})
	assert.ErrorIs(t, err, boom)

	_, _, err = Sweep(quiet(), fail, &Samples{}, []Config{{}}, parallel.Sequential())
	assert.ErrorIs(t, err, ErrNoSamples)

	ctx, cancel := context.WithCancel(quiet())
	cancel()
	_, _, err = Sweep(ctx, fail, samples, []Config{{}}, parallel.Sequential())
	assert.ErrorIs(t, err, context.Canceled)
}
