package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/flexnet/internal/trainer"
)

// parseVector parses a comma-separated list of numbers.
func parseVector(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// readSamples loads a CSV data set. The last targets columns of each row
// form the target and the rest the input. Lines starting with '#' are
// skipped.
func readSamples(path string, targets int) (*trainer.Samples, error) {
	//nolint:gosec // G304: data set path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data set: %w", err)
	}
	defer f.Close()

	samples, err := decodeSamples(f, targets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

func decodeSamples(in io.Reader, targets int) (*trainer.Samples, error) {
	if targets < 1 {
		return nil, fmt.Errorf("targets must be at least 1, got %d", targets)
	}

	r := csv.NewReader(in)
	r.Comment = '#'
	r.TrimLeadingSpace = true

	var inputs, outputs [][]float64
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := r.FieldPos(0)
		if len(record) <= targets {
			return nil, fmt.Errorf("line %d: %d columns leave no input for %d targets", line, len(record), targets)
		}

		row, err := parseVector(strings.Join(record, ","))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		split := len(row) - targets
		inputs = append(inputs, row[:split])
		outputs = append(outputs, row[split:])
	}

	if len(inputs) == 0 {
		return nil, trainer.ErrNoSamples
	}
	return trainer.NewSamples(inputs, outputs)
}
