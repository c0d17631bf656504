// Package main provides the flexnet CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
// Command output goes to outW, logs to logW.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	opts, rest, shouldExit, err := parseGlobal(args, outW)
	if err != nil || shouldExit {
		return err
	}

	logger := newLogger(opts.logLevel, opts.logFormat, logW)
	cmd, found := commands[rest[0]]
	if !found {
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q; run 'flexnet -h' for usage", rest[0])}
	}

	return cmd.run(withLogger(ctx, logger), outW, rest[1:])
}
