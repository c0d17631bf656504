package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/flexnet/internal/ctxlog"
	"github.com/born-ml/flexnet/internal/parallel"
	"github.com/born-ml/flexnet/internal/pipeline"
)

// Result is the outcome of one configuration of a sweep.
type Result struct {
	Config   Config
	Pipeline *pipeline.Pipeline // nil when Err is set
	Report   Report
	Loss     float64 // Mean squared error over the data set after training
	Err      error   // Wraps ErrDiverged when every attempt diverged
}

// Sweep trains one pipeline per configuration on data and returns the
// results in configuration order, together with the index of the result
// with the lowest loss (-1 when every configuration diverged).
//
// Configurations run concurrently as allowed by par. build is called from
// several goroutines and must not share state between the pipelines it
// returns. Each configuration reads its own cursor over data. Divergence is
// reported per result; any other error aborts the sweep.
func Sweep(ctx context.Context, build BuildFunc, data *Samples, configs []Config, par parallel.Config) ([]Result, int, error) {
	if data.Len() == 0 {
		return nil, -1, ErrNoSamples
	}
	logger := ctxlog.FromContext(ctx)

	results := make([]Result, len(configs))
	err := parallel.For(ctx, len(configs), par, func(ctx context.Context, i int) error {
		ctx = ctxlog.WithLogger(ctx, logger.With("candidate", i))
		samples := &Samples{Inputs: data.Inputs, Targets: data.Targets}

		res := Result{Config: configs[i]}
		p, report, err := Run(ctx, build, samples, configs[i])
		if errors.Is(err, ErrDiverged) {
			res.Err = err
			results[i] = res
			return nil
		}
		if err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}

		loss, err := MeanSquaredError(p, samples)
		if err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}
		res.Pipeline, res.Report, res.Loss = p, report, loss
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, -1, err
	}

	best := bestResult(results)
	if best >= 0 {
		logger.Info("Sweep finished.", "candidates", len(configs), "best", best, "loss", results[best].Loss)
	} else {
		logger.Warn("Sweep finished without a converged candidate.", "candidates", len(configs))
	}
	return results, best, nil
}

// bestResult returns the index of the converged result with the lowest
// finite loss, or -1. Ties keep the earliest result.
func bestResult(results []Result) int {
	best := -1
	for i, res := range results {
		if res.Err != nil || math.IsNaN(res.Loss) {
			continue
		}
		if best < 0 || res.Loss < results[best].Loss {
			best = i
		}
	}
	return best
}
