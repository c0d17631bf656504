// Package topology builds pipelines from declarative HCL descriptions.
//
// A topology file lists the stages of a pipeline in order:
//
//	stage "graph" {
//	  layer "in"  { size = 2 }
//	  layer "hid" { size = 5 }
//	  layer "out" {
//	    size       = 1
//	    activation = "relu"
//	  }
//	  connect {
//	    from   = "in"
//	    to     = "hid"
//	    weight = 1
//	  }
//	  connect {
//	    from   = "hid"
//	    to     = "out"
//	    weight = var.w
//	  }
//	  inputs  = "in"
//	  outputs = "out"
//	}
//
//	stage "transform" { function = "softmax" }
//
// A connect block joins every node of one layer to every node of another;
// from_index and to_index narrow either end to a single node of its layer.
// Values under var are supplied by the caller.
package topology

import (
	"context"
	"fmt"
	"os"

	"github.com/born-ml/flexnet/internal/ctxlog"
	"github.com/born-ml/flexnet/internal/pipeline"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Load reads and builds the topology file at path.
func Load(ctx context.Context, path string, vars map[string]cty.Value) (*pipeline.Pipeline, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for topology loading
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology: %w", err)
	}
	return Parse(ctx, src, path, vars)
}

// Parse builds a pipeline from HCL source. filename is only used in
// diagnostics.
func Parse(ctx context.Context, src []byte, filename string, vars map[string]cty.Value) (*pipeline.Pipeline, error) {
	logger := ctxlog.FromContext(ctx).With("file", filename)
	logger.Debug("Parsing topology.", "vars", len(vars))

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	b := &builder{eval: evalContext(vars)}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, b.eval, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	p, diags := b.pipeline(ctxlog.WithLogger(ctx, logger), root.Stages)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid topology %s: %w", filename, diags)
	}

	logger.Debug("Topology built.", "stages", p.Len())
	return p, nil
}

// evalContext exposes vars as var.<name>.
func evalContext(vars map[string]cty.Value) *hcl.EvalContext {
	obj := cty.EmptyObjectVal
	if len(vars) > 0 {
		obj = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": obj},
	}
}
