package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/born-ml/flexnet/internal/ctxlog"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type globalOptions struct {
	logLevel  string
	logFormat string
}

// command is one subcommand of the CLI.
type command struct {
	summary string
	run     func(ctx context.Context, outW io.Writer, args []string) error
}

var commands = map[string]command{
	"version": {"Print the flexnet version", runVersion},
	"build":   {"Build a model file from an HCL topology", runBuild},
	"eval":    {"Evaluate a model on an input vector or a data set", runEval},
	"train":   {"Train a model on a CSV data set", runTrain},
}

// parseGlobal processes the options before the subcommand name. It returns
// the remaining arguments, starting with the subcommand, or shouldExit when
// only usage was requested.
func parseGlobal(args []string, output io.Writer) (globalOptions, []string, bool, error) {
	flagSet := flag.NewFlagSet("flexnet", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
flexnet - build, train and evaluate flexible networks.

Usage:
  flexnet [options] <command> [command options]

Commands:
`)
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(output, "  %-8s %s\n", name, commands[name].summary)
		}
		fmt.Fprint(output, "\nOptions:\n")
		flagSet.PrintDefaults()
	}

	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return globalOptions{}, nil, true, nil
		}
		return globalOptions{}, nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return globalOptions{}, nil, true, nil
	}

	opts := globalOptions{
		logLevel:  strings.ToLower(*logLevelFlag),
		logFormat: strings.ToLower(*logFormatFlag),
	}
	if opts.logFormat != "text" && opts.logFormat != "json" {
		return globalOptions{}, nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch opts.logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return globalOptions{}, nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return opts, flagSet.Args(), false, nil
}

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

func withLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return ctxlog.WithLogger(ctx, logger)
}

// newCommandFlags returns a flag set for a subcommand that prints its
// usage to output.
func newCommandFlags(name, usage string, output io.Writer) *flag.FlagSet {
	flagSet := flag.NewFlagSet("flexnet "+name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprintf(output, "\nUsage:\n  flexnet %s %s\n\nOptions:\n", name, usage)
		flagSet.PrintDefaults()
	}
	return flagSet
}

// parseCommandFlags parses args, mapping -h to a clean exit and other
// failures to exit code 2.
func parseCommandFlags(flagSet *flag.FlagSet, args []string) (bool, error) {
	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return true, nil
		}
		return false, &ExitError{Code: 2, Message: err.Error()}
	}
	return false, nil
}

// multiFlag collects every occurrence of a repeatable flag.
type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}
