package serialization

import (
	"fmt"
	"math"
	"strconv"

	"github.com/born-ml/flexnet/internal/graph"
	"github.com/born-ml/flexnet/internal/pipeline"
)

// Validation limits for resource protection.
const (
	MaxFileSize = 256 * 1024 * 1024 // 256MB - maximum model file size
	MaxNodes    = 10_000_000        // Maximum number of nodes across all graphs
	MaxDepth    = 64                // Maximum pipeline nesting depth
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict checks parameters and limits (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks limits only.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidatePipeline checks a decoded pipeline against the limits and, in
// strict mode, rejects non-finite weights and biases. Record-level
// structure (dense ids, edge sources in range) is already enforced by
// decoding.
func ValidatePipeline(p *pipeline.Pipeline, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	v := validator{level: level}
	return v.pipeline(p, "", 0)
}

type validator struct {
	level ValidationLevel
	nodes int
}

func (v *validator) pipeline(p *pipeline.Pipeline, path string, depth int) error {
	if depth > MaxDepth {
		return &ValidationError{
			Type:    "too_deep",
			Stage:   path,
			Node:    -1,
			Details: fmt.Sprintf("nesting depth exceeds %d", MaxDepth),
		}
	}

	for i := 0; i < p.Len(); i++ {
		stagePath := strconv.Itoa(i)
		if path != "" {
			stagePath = path + "." + stagePath
		}

		switch s := p.Stage(i).(type) {
		case *pipeline.Pipeline:
			if err := v.pipeline(s, stagePath, depth+1); err != nil {
				return err
			}
		case *graph.Graph:
			if err := v.graph(s, stagePath); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *validator) graph(g *graph.Graph, path string) error {
	v.nodes += g.Len()
	if v.nodes > MaxNodes {
		return &ValidationError{
			Type:    "too_many_nodes",
			Stage:   path,
			Node:    -1,
			Details: fmt.Sprintf("more than %d nodes", MaxNodes),
		}
	}

	if v.level != ValidationStrict {
		return nil
	}

	for id := 0; id < g.Len(); id++ {
		n := g.Node(id)
		if !finite(n.Bias()) {
			return &ValidationError{
				Type:    "non_finite",
				Stage:   path,
				Node:    id,
				Details: fmt.Sprintf("bias is %v", n.Bias()),
			}
		}
		for slot, e := range n.Inputs() {
			if !finite(e.Weight) {
				return &ValidationError{
					Type:    "non_finite",
					Stage:   path,
					Node:    id,
					Details: fmt.Sprintf("weight of slot %d (from node %d) is %v", slot, e.Source, e.Weight),
				}
			}
		}
	}

	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
