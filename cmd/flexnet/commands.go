package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/born-ml/flexnet/internal/ctxlog"
	"github.com/born-ml/flexnet/internal/parallel"
	"github.com/born-ml/flexnet/internal/pipeline"
	"github.com/born-ml/flexnet/internal/serialization"
	"github.com/born-ml/flexnet/internal/topology"
	"github.com/born-ml/flexnet/internal/trainer"
)

func runVersion(_ context.Context, outW io.Writer, _ []string) error {
	fmt.Fprintf(outW, "flexnet %s (model format %d)\n", serialization.Version, serialization.FormatVersion)
	return nil
}

func runBuild(ctx context.Context, outW io.Writer, args []string) error {
	flags := newCommandFlags("build", "-topology <file.hcl> -o <model.json> [-var name=value]...", outW)
	topologyPath := flags.String("topology", "", "Path to the HCL topology file.")
	outPath := flags.String("o", "", "Path of the model file to write.")
	var vars, meta multiFlag
	flags.Var(&vars, "var", "Set a topology variable, as name=value. Repeatable.")
	flags.Var(&meta, "meta", "Add a metadata entry to the model header, as key=value. Repeatable.")
	if exit, err := parseCommandFlags(flags, args); exit || err != nil {
		return err
	}
	if *topologyPath == "" || *outPath == "" {
		return usageError("build: -topology and -o are required")
	}

	values, err := topology.ParseVars(vars)
	if err != nil {
		return usageError("build: %v", err)
	}
	metadata, err := parseMetadata(meta)
	if err != nil {
		return usageError("build: %v", err)
	}
	metadata["topology"] = *topologyPath

	p, err := topology.Load(ctx, *topologyPath, values)
	if err != nil {
		return err
	}

	header, err := serialization.Save(*outPath, p, metadata)
	if err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("Model written.", "path", *outPath, "stages", p.Len(), "model_id", header.ModelID)
	fmt.Fprintln(outW, header.ModelID)
	return nil
}

func runEval(ctx context.Context, outW io.Writer, args []string) error {
	flags := newCommandFlags("eval", "-model <model.json> (-input <v1,v2,...> | -data <file.csv> -targets <n>)", outW)
	modelPath := flags.String("model", "", "Path to the model file.")
	input := flags.String("input", "", "Comma-separated input vector.")
	dataPath := flags.String("data", "", "CSV data set; prints the mean squared error.")
	targets := flags.Int("targets", 1, "Number of trailing target columns in the data set.")
	if exit, err := parseCommandFlags(flags, args); exit || err != nil {
		return err
	}
	if *modelPath == "" || (*input == "") == (*dataPath == "") {
		return usageError("eval: -model and exactly one of -input or -data are required")
	}

	p, _, err := serialization.Load(*modelPath)
	if err != nil {
		return err
	}

	if *input != "" {
		vector, err := parseVector(*input)
		if err != nil {
			return usageError("eval: -input: %v", err)
		}
		out, err := p.Forward(vector)
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		fmt.Fprintln(outW, formatVector(out))
		return nil
	}

	samples, err := readSamples(*dataPath, *targets)
	if err != nil {
		return err
	}
	mse, err := trainer.MeanSquaredError(p, samples)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Data set evaluated.", "samples", samples.Len())
	fmt.Fprintf(outW, "mse %s\n", strconv.FormatFloat(mse, 'g', -1, 64))
	return nil
}

func runTrain(ctx context.Context, outW io.Writer, args []string) error {
	flags := newCommandFlags("train", "-model <model.json> -data <file.csv> [-o <out.json>]", outW)
	modelPath := flags.String("model", "", "Path to the model file.")
	dataPath := flags.String("data", "", "CSV data set, one sample per row.")
	targets := flags.Int("targets", 1, "Number of trailing target columns in the data set.")
	outPath := flags.String("o", "", "Path of the trained model (default: overwrite -model).")
	iterations := flags.Int("iterations", trainer.DefaultIterations, "Steps per scheduled rate.")
	var rates multiFlag
	flags.Var(&rates, "rates", "Comma-separated learning-rate schedule (default: 0.001,0.0001). Repeat to train one candidate per schedule and keep the best.")
	workers := flags.Int("workers", runtime.NumCPU(), "Candidates trained concurrently when -rates is repeated.")
	decay := flags.Float64("rate-decay", trainer.DefaultRateDecay, "Factor applied to every rate after divergence.")
	restarts := flags.Int("max-restarts", trainer.DefaultMaxRestarts, "Restarts after divergence; negative disables them.")
	tolerance := flags.Float64("tolerance", 0, "Stop once the mean loss of a window falls below this value.")
	logEvery := flags.Int("log-every", 0, "Steps per progress window (default: -iterations).")
	if exit, err := parseCommandFlags(flags, args); exit || err != nil {
		return err
	}
	if *modelPath == "" || *dataPath == "" {
		return usageError("train: -model and -data are required")
	}
	if len(rates) == 0 {
		rates = multiFlag{"0.001,0.0001"}
	}
	configs := make([]trainer.Config, len(rates))
	for i, r := range rates {
		schedule, err := parseVector(r)
		if err != nil {
			return usageError("train: -rates %q: %v", r, err)
		}
		configs[i] = trainer.Config{
			Iterations:  *iterations,
			Rates:       schedule,
			RateDecay:   *decay,
			MaxRestarts: *restarts,
			LogEvery:    *logEvery,
			Tolerance:   *tolerance,
		}
	}
	if *outPath == "" {
		*outPath = *modelPath
	}

	samples, err := readSamples(*dataPath, *targets)
	if err != nil {
		return err
	}

	_, header, err := serialization.Load(*modelPath)
	if err != nil {
		return err
	}
	build := func() (*pipeline.Pipeline, error) {
		p, _, err := serialization.Load(*modelPath)
		return p, err
	}

	p, report, mse, err := train(ctx, build, samples, configs, parallel.Config{Workers: *workers})
	if err != nil {
		return err
	}

	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}
	header.Metadata["trained_steps"] = strconv.Itoa(report.Steps)
	header.Metadata["trained_rates"] = formatVector(report.Rates)
	if _, err := serialization.SaveWithHeader(*outPath, p, header); err != nil {
		return err
	}

	fmt.Fprintf(outW, "rates %s\nsteps %d\nrestarts %d\nmse %s\n",
		formatVector(report.Rates), report.Steps, report.Restarts, strconv.FormatFloat(mse, 'g', -1, 64))
	return nil
}

// train runs a single configuration directly and several as a sweep,
// returning the best pipeline with its report and mean squared error.
func train(ctx context.Context, build trainer.BuildFunc, samples *trainer.Samples, configs []trainer.Config, par parallel.Config) (*pipeline.Pipeline, trainer.Report, float64, error) {
	if len(configs) == 1 {
		p, report, err := trainer.Run(ctx, build, samples, configs[0])
		if err != nil {
			return nil, trainer.Report{}, 0, err
		}
		mse, err := trainer.MeanSquaredError(p, samples)
		if err != nil {
			return nil, trainer.Report{}, 0, fmt.Errorf("evaluate: %w", err)
		}
		return p, report, mse, nil
	}

	results, best, err := trainer.Sweep(ctx, build, samples, configs, par)
	if err != nil {
		return nil, trainer.Report{}, 0, err
	}
	logger := ctxlog.FromContext(ctx)
	for i, res := range results {
		if res.Err != nil {
			logger.Warn("Candidate diverged.", "candidate", i, "rates", res.Config.Rates)
			continue
		}
		logger.Info("Candidate trained.", "candidate", i, "rates", res.Report.Rates, "mse", res.Loss)
	}
	if best < 0 {
		return nil, trainer.Report{}, 0, fmt.Errorf("every candidate failed: %w", results[0].Err)
	}
	return results[best].Pipeline, results[best].Report, results[best].Loss, nil
}

func parseMetadata(entries []string) (map[string]string, error) {
	metadata := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("metadata %q: expected key=value", entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}
