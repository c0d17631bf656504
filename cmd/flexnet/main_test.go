package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/born-ml/flexnet/internal/serialization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linear = `
stage "graph" {
  layer "in"  { size = 1 }
  layer "out" { size = 1 }

  connect {
    from   = "in"
    to     = "out"
    weight = var.w
  }

  inputs  = "in"
  outputs = "out"
}
`

// cli runs the command line in-process and returns stdout.
func cli(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, logs bytes.Buffer
	err := run(context.Background(), &out, &logs, args)
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// build writes the linear topology with the given weight as a model file.
func build(t *testing.T, weight string) string {
	t.Helper()

	topo := writeFile(t, "linear.hcl", linear)
	model := filepath.Join(t.TempDir(), "linear.json")
	out, err := cli(t, "build", "-topology", topo, "-o", model, "-var", "w="+weight, "-meta", "owner=tests")
	require.NoError(t, err)
	require.NotEmpty(t, strings.TrimSpace(out))
	return model
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	return exitErr.Code
}

func TestVersion(t *testing.T) {
	out, err := cli(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, serialization.Version)
}

func TestUsage(t *testing.T) {
	out, err := cli(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "train")

	_, err = cli(t, "-h")
	require.NoError(t, err)
}

func TestInvalidInvocation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"fit"}},
		{"log format", []string{"-log-format", "xml", "version"}},
		{"log level", []string{"-log-level", "loud", "version"}},
		{"unknown flag", []string{"-verbose", "version"}},
		{"build without output", []string{"build", "-topology", "x.hcl"}},
		{"eval without input", []string{"eval", "-model", "m.json"}},
		{"eval with both inputs", []string{"eval", "-model", "m.json", "-input", "1", "-data", "d.csv"}},
		{"train without data", []string{"train", "-model", "m.json"}},
		{"bad var", []string{"build", "-topology", "x.hcl", "-o", "m.json", "-var", "novalue"}},
		{"bad meta", []string{"build", "-topology", "x.hcl", "-o", "m.json", "-meta", "=x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cli(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, exitCode(t, err))
		})
	}
}

func TestBuildAndEval(t *testing.T) {
	model := build(t, "1.5")

	out, err := cli(t, "eval", "-model", model, "-input", "2")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	r, err := serialization.NewReader(model)
	require.NoError(t, err)
	assert.Equal(t, "tests", r.Metadata()["owner"])
}

func TestEvalDataSet(t *testing.T) {
	model := build(t, "2")
	data := writeFile(t, "data.csv", "# x, y\n1, 3\n2, 4\n")

	out, err := cli(t, "eval", "-model", model, "-data", data)
	require.NoError(t, err)
	// errors are 1 and 0
	assert.Equal(t, "mse 0.5\n", out)
}

func TestTrain(t *testing.T) {
	model := build(t, "1.5")
	data := writeFile(t, "data.csv", "1,2\n2,4\n")
	trained := filepath.Join(t.TempDir(), "trained.json")

	_, before, err := serialization.Load(model)
	require.NoError(t, err)

	out, err := cli(t, "-log-level", "debug", "train",
		"-model", model, "-data", data, "-o", trained,
		"-iterations", "3000", "-rates", "0.01,0.001")
	require.NoError(t, err)

	var mse float64
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if v, ok := strings.CutPrefix(line, "mse "); ok {
			mse, err = strconv.ParseFloat(v, 64)
			require.NoError(t, err)
		}
	}
	assert.Contains(t, out, "steps 6000")
	assert.Less(t, mse, 1e-3)

	_, after, err := serialization.Load(trained)
	require.NoError(t, err)
	assert.Equal(t, before.ModelID, after.ModelID)
	assert.Equal(t, "6000", after.Metadata["trained_steps"])
	assert.Equal(t, "tests", after.Metadata["owner"])

	out, err = cli(t, "eval", "-model", trained, "-input", "3")
	require.NoError(t, err)
	got, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	require.NoError(t, err)
	assert.InDelta(t, 6, got, 0.1)
}

func TestDecodeSamples(t *testing.T) {
	samples, err := decodeSamples(strings.NewReader("1,2,3\n4,5,6\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {4}}, samples.Inputs)
	assert.Equal(t, [][]float64{{2, 3}, {5, 6}}, samples.Targets)

	_, err = decodeSamples(strings.NewReader("1,2\n"), 2)
	assert.ErrorContains(t, err, "no input")

	_, err = decodeSamples(strings.NewReader("1,x\n"), 1)
	assert.ErrorContains(t, err, "line 1")

	_, err = decodeSamples(strings.NewReader("# empty\n"), 1)
	assert.Error(t, err)

	_, err = decodeSamples(strings.NewReader("1,2\n"), 0)
	assert.Error(t, err)
}

func TestParseVector(t *testing.T) {
	v, err := parseVector("1, -2.5,3e2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -2.5, 300}, v)
	assert.Equal(t, "1,-2.5,300", formatVector(v))

	_, err = parseVector("1,,2")
	assert.Error(t, err)
}

func TestTrainSweep(t *testing.T) {
	model := build(t, "1.5")
	data := writeFile(t, "data.csv", "1,2\n2,4\n")

	out, err := cli(t, "train", "-model", model, "-data", data,
		"-iterations", "3000", "-max-restarts", "-1", "-workers", "2",
		"-rates", "10", "-rates", "0.01,0.001")
	require.NoError(t, err)
	assert.Contains(t, out, "rates 0.01,0.001\n")
	assert.Contains(t, out, "restarts 0\n")

	_, header, err := serialization.Load(model)
	require.NoError(t, err)
	assert.Equal(t, "0.01,0.001", header.Metadata["trained_rates"])

	fresh := build(t, "1.5")
	_, err = cli(t, "train", "-model", fresh, "-data", data,
		"-iterations", "3000", "-max-restarts", "-1", "-rates", "10", "-rates", "9")
	assert.ErrorContains(t, err, "every candidate failed")
}
