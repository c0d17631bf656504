package topology

import (
	"context"
	"fmt"
	"strings"

	"github.com/born-ml/flexnet/internal/activation"
	"github.com/born-ml/flexnet/internal/ctxlog"
	"github.com/born-ml/flexnet/internal/graph"
	"github.com/born-ml/flexnet/internal/pipeline"
	"github.com/born-ml/flexnet/internal/transform"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
)

// builder turns decoded blocks into stages.
type builder struct {
	eval *hcl.EvalContext
}

// layer is a named layer of the graph being built.
type layer struct {
	start int
	size  int
}

func (l layer) ids() []int {
	ids := make([]int, l.size)
	for i := range ids {
		ids[i] = l.start + i
	}
	return ids
}

func (b *builder) pipeline(ctx context.Context, stages []*stageBlock) (*pipeline.Pipeline, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	p := pipeline.New()

	for i, block := range stages {
		s, stageDiags := b.stage(ctx, i, block)
		diags = append(diags, stageDiags...)
		if s != nil && !stageDiags.HasErrors() {
			p.Add(s)
		}
	}

	return p, diags
}

func (b *builder) stage(ctx context.Context, index int, block *stageBlock) (pipeline.Stage, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx).With("stage", index, "kind", block.Kind)
	ctx = ctxlog.WithLogger(ctx, logger)

	switch strings.ToLower(block.Kind) {
	case "graph":
		var body graphBody
		if diags := gohcl.DecodeBody(block.Body, b.eval, &body); diags.HasErrors() {
			return nil, diags
		}
		return b.graph(ctx, &body)

	case "transform":
		var body transformBody
		if diags := gohcl.DecodeBody(block.Body, b.eval, &body); diags.HasErrors() {
			return nil, diags
		}
		fn, err := transform.ParseFunc(body.Function)
		if err != nil {
			return nil, hcl.Diagnostics{errorDiag("Unknown transform function", err.Error(), block.Body.MissingItemRange())}
		}
		logger.Debug("Built transform stage.", "function", fn)
		return transform.New(fn), nil

	case "pipeline":
		var body pipelineBody
		if diags := gohcl.DecodeBody(block.Body, b.eval, &body); diags.HasErrors() {
			return nil, diags
		}
		p, diags := b.pipeline(ctx, body.Stages)
		if diags.HasErrors() {
			return nil, diags
		}
		logger.Debug("Built nested pipeline.", "stages", p.Len())
		return p, nil

	default:
		return nil, hcl.Diagnostics{errorDiag(
			"Unsupported stage kind",
			fmt.Sprintf("Stage kind %q is not one of graph, transform or pipeline.", block.Kind),
			block.Body.MissingItemRange(),
		)}
	}
}

func (b *builder) graph(ctx context.Context, body *graphBody) (*graph.Graph, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	g := graph.New()
	layers := make(map[string]layer, len(body.Layers))

	for _, lb := range body.Layers {
		if _, dup := layers[lb.Name]; dup {
			diags = append(diags, errorDiag("Duplicate layer", fmt.Sprintf("Layer %q is declared more than once.", lb.Name), hcl.Range{}))
			continue
		}
		if lb.Size < 1 {
			diags = append(diags, errorDiag("Invalid layer size", fmt.Sprintf("Layer %q has size %d; it must be at least 1.", lb.Name, lb.Size), hcl.Range{}))
			continue
		}

		act := activation.Identity
		if lb.Activation != "" {
			parsed, err := activation.Parse(lb.Activation)
			if err != nil {
				diags = append(diags, errorDiag("Unknown activation", fmt.Sprintf("Layer %q: %v.", lb.Name, err), hcl.Range{}))
				continue
			}
			act = parsed
		}

		start := g.NewLayer(lb.Size, lb.Bias, act)
		layers[lb.Name] = layer{start: start, size: lb.Size}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	for _, cb := range body.Connects {
		diags = append(diags, b.connect(g, layers, cb)...)
	}

	inputs, inDiags := b.designation(body.Inputs, layers)
	diags = append(diags, inDiags...)
	outputs, outDiags := b.designation(body.Outputs, layers)
	diags = append(diags, outDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	// ids come from declared layers, so designation cannot fail
	_ = g.SetInputIDs(inputs...)
	_ = g.SetOutputIDs(outputs...)

	ctxlog.FromContext(ctx).Debug("Built graph stage.",
		"nodes", g.Len(), "edges", g.NumEdges(), "inputs", len(inputs), "outputs", len(outputs))
	return g, nil
}

func (b *builder) connect(g *graph.Graph, layers map[string]layer, cb *connectBlock) hcl.Diagnostics {
	from, diags := b.layerRef(cb.From, layers)
	to, toDiags := b.layerRef(cb.To, layers)
	diags = append(diags, toDiags...)
	if diags.HasErrors() {
		return diags
	}

	if cb.FromIndex == nil && cb.ToIndex == nil {
		if err := g.ConnectLayer(from.start, to.start, cb.Weight); err != nil {
			return hcl.Diagnostics{errorDiag("Invalid connection", err.Error(), cb.From.Range())}
		}
		return nil
	}

	fromIDs, fromDiags := pick(from, cb.FromIndex, cb.From.Range())
	toIDs, toDiags := pick(to, cb.ToIndex, cb.To.Range())
	diags = append(fromDiags, toDiags...)
	if diags.HasErrors() {
		return diags
	}

	for _, f := range fromIDs {
		for _, t := range toIDs {
			if err := g.Connect(f, t, cb.Weight); err != nil {
				return hcl.Diagnostics{errorDiag("Invalid connection", err.Error(), cb.From.Range())}
			}
		}
	}
	return nil
}

// pick returns every id of l, or the single id at index.
func pick(l layer, index *int, rng hcl.Range) ([]int, hcl.Diagnostics) {
	if index == nil {
		return l.ids(), nil
	}
	if *index < 0 || *index >= l.size {
		return nil, hcl.Diagnostics{errorDiag("Index out of range",
			fmt.Sprintf("Index %d is outside a layer of size %d.", *index, l.size), rng)}
	}
	return []int{l.start + *index}, nil
}

func (b *builder) layerRef(expr hcl.Expression, layers map[string]layer) (layer, hcl.Diagnostics) {
	var name string
	if diags := gohcl.DecodeExpression(expr, b.eval, &name); diags.HasErrors() {
		return layer{}, diags
	}

	l, ok := layers[name]
	if !ok {
		return layer{}, hcl.Diagnostics{errorDiag("Unknown layer", fmt.Sprintf("No layer named %q in this graph.", name), expr.Range())}
	}
	return l, nil
}

// designation evaluates an inputs or outputs attribute, either a layer name
// or a list of layer names, into node ids.
func (b *builder) designation(expr hcl.Expression, layers map[string]layer) ([]int, hcl.Diagnostics) {
	val, diags := expr.Value(b.eval)
	if diags.HasErrors() {
		return nil, diags
	}

	var names []string
	switch {
	case val.Type() == cty.String && val.IsKnown() && !val.IsNull():
		names = []string{val.AsString()}
	case (val.Type().IsTupleType() || val.Type().IsListType()) && val.IsKnown() && !val.IsNull():
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.Type() != cty.String || !v.IsKnown() || v.IsNull() {
				return nil, hcl.Diagnostics{errorDiag("Invalid layer list", "Every element must be a layer name.", expr.Range())}
			}
			names = append(names, v.AsString())
		}
	default:
		return nil, hcl.Diagnostics{errorDiag("Invalid designation", "Expected a layer name or a list of layer names.", expr.Range())}
	}

	var ids []int
	for _, name := range names {
		l, ok := layers[name]
		if !ok {
			return nil, hcl.Diagnostics{errorDiag("Unknown layer", fmt.Sprintf("No layer named %q in this graph.", name), expr.Range())}
		}
		ids = append(ids, l.ids()...)
	}
	return ids, nil
}

func errorDiag(summary, detail string, subject hcl.Range) *hcl.Diagnostic {
	d := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
	}
	if subject.Filename != "" {
		d.Subject = &subject
	}
	return d
}
