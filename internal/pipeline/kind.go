package pipeline

import (
	"fmt"
	"strings"

	"github.com/born-ml/flexnet/internal/graph"
	"github.com/born-ml/flexnet/internal/transform"
)

// Kind tags the concrete type of a stage.
type Kind int

// Stage kinds.
const (
	KindPipeline Kind = iota
	KindGraph
	KindTransform
)

// String returns the persisted tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindPipeline:
		return "Pipeline"
	case KindGraph:
		return "Graph"
	case KindTransform:
		return "Transform"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a tag into a Kind. The older tags MultiSegNetwork,
// FlexibleNetwork and FunctionSegment are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pipeline", "multisegnetwork":
		return KindPipeline, nil
	case "graph", "flexiblenetwork":
		return KindGraph, nil
	case "transform", "transformstage", "functionsegment":
		return KindTransform, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindPipeline || k > KindTransform {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KindOf returns the kind of a stage.
func KindOf(s Stage) (Kind, error) {
	switch s.(type) {
	case *Pipeline:
		return KindPipeline, nil
	case *graph.Graph:
		return KindGraph, nil
	case *transform.Stage:
		return KindTransform, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownStage, s)
	}
}

// newStage returns an empty stage of the given kind, ready for decoding.
func newStage(k Kind) (Stage, error) {
	switch k {
	case KindPipeline:
		return New(), nil
	case KindGraph:
		return graph.New(), nil
	case KindTransform:
		return transform.New(transform.Identity), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, int(k))
	}
}
