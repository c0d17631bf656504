// Package trainer drives pipelines through a learning-rate schedule.
//
// The graph engine does not detect numeric divergence. The trainer checks
// every output it sees and, when weights blow up, rebuilds the pipeline and
// starts over with every rate scaled down by Config.RateDecay.
//
// Example:
//
//	samples, _ := trainer.NewSamples(inputs, targets)
//	p, report, err := trainer.Run(ctx, build, samples, trainer.Config{
//	    Iterations: 10000,
//	    Rates:      []float64{0.001, 0.0001},
//	})
package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/born-ml/flexnet/internal/ctxlog"
	"github.com/born-ml/flexnet/internal/pipeline"
)

// BuildFunc creates the pipeline for one attempt. It is called again after
// each divergence, so it must return a fresh pipeline every time.
type BuildFunc func() (*pipeline.Pipeline, error)

type resetter interface {
	Reset()
}

// Report summarizes a successful run.
type Report struct {
	Steps    int           // Steps taken by the successful attempt
	Restarts int           // Attempts abandoned after divergence
	Rates    []float64     // Schedule used by the successful attempt
	Loss     float64       // Mean loss of the last progress window
	Stopped  bool          // Whether the run stopped early at Tolerance
	Duration time.Duration // Wall time across all attempts
}

// Run trains a pipeline built by build on samples from src.
//
// Sources with a Reset method, such as *Samples, are reset before every
// attempt.
//
// Each attempt runs cfg.Iterations evaluate-and-train steps per scheduled
// rate. A non-finite output or loss abandons the attempt; the next one uses
// a freshly built pipeline and decayed rates. After cfg.MaxRestarts
// restarts, Run returns an error wrapping ErrDiverged. Errors from build,
// src or the pipeline itself end the run immediately.
func Run(ctx context.Context, build BuildFunc, src Source, cfg Config) (*pipeline.Pipeline, Report, error) {
	cfg = cfg.withDefaults()
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	rates := cfg.Rates
	for restart := 0; ; restart++ {
		if r, ok := src.(resetter); ok {
			r.Reset()
		}
		p, err := build()
		if err != nil {
			return nil, Report{}, fmt.Errorf("build pipeline: %w", err)
		}

		logger.Info("Training started.", "attempt", restart+1, "rates", rates, "iterations", cfg.Iterations)
		report, diverged, err := attempt(ctx, p, src, rates, cfg)
		if err != nil {
			return nil, Report{}, err
		}

		if !diverged {
			report.Restarts = restart
			report.Rates = rates
			report.Duration = time.Since(start)
			logger.Info("Training finished.", "steps", report.Steps, "loss", report.Loss, "restarts", restart, "duration", report.Duration)
			return p, report, nil
		}

		if restart >= cfg.MaxRestarts {
			return nil, Report{}, fmt.Errorf("%w after %d restarts", ErrDiverged, restart)
		}

		next := make([]float64, len(rates))
		for i, r := range rates {
			next[i] = r * cfg.RateDecay
		}
		logger.Warn("Training diverged, restarting with lower rates.", "step", report.Steps, "rates", next)
		rates = next
	}
}

// attempt runs the whole schedule once. diverged is set when a non-finite
// value was seen.
func attempt(ctx context.Context, p *pipeline.Pipeline, src Source, rates []float64, cfg Config) (Report, bool, error) {
	logger := ctxlog.FromContext(ctx)

	var (
		report Report
		window float64
		count  int
		last   []float64
	)

	for _, rate := range rates {
		for i := 0; i < cfg.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return report, false, fmt.Errorf("training interrupted: %w", err)
			}

			input, target, err := src.Sample(ctx)
			if err != nil {
				return report, false, fmt.Errorf("sample: %w", err)
			}

			last = input
			out, err := p.Forward(input)
			if err != nil {
				return report, false, fmt.Errorf("step %d: %w", report.Steps, err)
			}
			if len(out) != len(target) {
				return report, false, fmt.Errorf("step %d: output has %d values, target has %d", report.Steps, len(out), len(target))
			}

			loss := SquaredError(out, target)
			if !finite(out...) || !finite(loss) {
				return report, true, nil
			}

			if err := p.Train(target, rate); err != nil {
				return report, false, fmt.Errorf("step %d: %w", report.Steps, err)
			}
			report.Steps++

			window += loss
			count++
			if count == cfg.LogEvery {
				report.Loss = window / float64(count)
				logger.Debug("Training progress.", "step", report.Steps, "rate", rate, "loss", report.Loss)
				window, count = 0, 0

				if report.Loss < cfg.Tolerance {
					report.Stopped = true
					return report, false, nil
				}
			}
		}
	}

	if count > 0 {
		report.Loss = window / float64(count)
	}

	// the last step may itself have produced non-finite weights
	if last != nil {
		out, err := p.Forward(last)
		if err != nil {
			return report, false, err
		}
		if !finite(out...) {
			return report, true, nil
		}
	}
	return report, false, nil
}
