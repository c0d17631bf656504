// Package parallel runs independent jobs on a bounded number of goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Workers int // Maximum number of concurrent jobs; values below 2 run jobs in order.
}

// DefaultConfig returns one worker per CPU.
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

// Sequential returns a config that runs every job on the calling goroutine.
func Sequential() Config {
	return Config{Workers: 1}
}

// For executes f(ctx, i) for i in [0, n).
//
// The first error cancels the context handed to the remaining jobs, jobs not
// yet started are skipped, and that error is returned. Falls back to
// sequential execution with a single worker or a single job.
func For(ctx context.Context, n int, cfg Config, f func(ctx context.Context, i int) error) error {
	if cfg.Workers < 2 || n < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := f(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return f(gctx, i)
		})
	}
	return g.Wait()
}
