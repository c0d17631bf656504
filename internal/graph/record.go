package graph

import (
	"encoding/json"
	"fmt"

	"github.com/born-ml/flexnet/internal/activation"
)

// NodeRecord is the persisted form of a node. Only structure and
// parameters are kept.
//
// Outlets lists the outgoing mirror as [consumer, slot] pairs in connection
// order. Records without any outlets are rebuilt in consumer order.
type NodeRecord struct {
	ID         int             `json:"id"`
	Sources    []int           `json:"i_id"`
	Weights    []float64       `json:"i_w"`
	Bias       float64         `json:"b"`
	Activation activation.Kind `json:"a_fn"`
	Outlets    [][2]int        `json:"o,omitempty"`
}

// Record is the persisted form of a graph.
type Record struct {
	Nodes   []NodeRecord `json:"ns"`
	Inputs  []int        `json:"i_id"`
	Outputs []int        `json:"o_id"`
	Layers  map[int]int  `json:"l_len"`
}

// Record captures the graph's structure and parameters.
func (g *Graph) Record() Record {
	rec := Record{
		Nodes:   make([]NodeRecord, len(g.nodes)),
		Inputs:  g.InputIDs(),
		Outputs: g.OutputIDs(),
		Layers:  g.Layers(),
	}

	for id, n := range g.nodes {
		nr := NodeRecord{
			ID:         id,
			Sources:    make([]int, len(n.inputs)),
			Weights:    make([]float64, len(n.inputs)),
			Bias:       n.bias,
			Activation: n.act,
		}
		for slot, e := range n.inputs {
			nr.Sources[slot] = e.Source
			nr.Weights[slot] = e.Weight
		}
		for _, out := range n.outputs {
			nr.Outlets = append(nr.Outlets, [2]int{out.Consumer, out.Slot})
		}
		rec.Nodes[id] = nr
	}

	if rec.Inputs == nil {
		rec.Inputs = []int{}
	}
	if rec.Outputs == nil {
		rec.Outputs = []int{}
	}

	return rec
}

// FromRecord rebuilds a graph from its record. The outgoing mirror is
// restored from the recorded outlets. Older records carry none; their
// mirror is rebuilt by consumer id and slot, which matches connection
// order only for graphs wired in that order.
func FromRecord(rec Record) (*Graph, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	g := New()
	for _, nr := range rec.Nodes {
		g.NewNode(nr.Bias, nr.Activation)
	}

	mirrored := rec.mirrored()
	for _, nr := range rec.Nodes {
		n := g.nodes[nr.ID]
		for slot, src := range nr.Sources {
			if mirrored {
				n.addInput(src, nr.Weights[slot])
			} else {
				g.connect(src, nr.ID, nr.Weights[slot])
			}
		}
	}
	if mirrored {
		for _, nr := range rec.Nodes {
			for _, out := range nr.Outlets {
				g.nodes[nr.ID].addOutput(out[0], out[1])
			}
		}
	}

	g.inputs = append([]int(nil), rec.Inputs...)
	g.outputs = append([]int(nil), rec.Outputs...)
	for start, count := range rec.Layers {
		g.layers[start] = count
	}

	return g, nil
}

// Validate checks that the record describes a well-formed graph: ids are
// dense and in order, every edge source exists, designations and layers
// stay inside the node range.
func (rec Record) Validate() error {
	n := len(rec.Nodes)
	for i, nr := range rec.Nodes {
		if nr.ID != i {
			return fmt.Errorf("%w: node at position %d has id %d", ErrInvalidRecord, i, nr.ID)
		}
		if len(nr.Sources) != len(nr.Weights) {
			return fmt.Errorf("%w: node %d has %d sources but %d weights",
				ErrInvalidRecord, i, len(nr.Sources), len(nr.Weights))
		}
		if !nr.Activation.Valid() {
			return fmt.Errorf("%w: node %d: %v", ErrInvalidRecord, i, nr.Activation)
		}
		for _, src := range nr.Sources {
			if src < 0 || src >= n {
				return fmt.Errorf("%w: node %d: source %d: %w", ErrInvalidRecord, i, src, ErrNodeNotFound)
			}
		}
	}

	if rec.mirrored() {
		if err := rec.validateOutlets(); err != nil {
			return err
		}
	}

	for _, id := range rec.Inputs {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: input %d: %w", ErrInvalidRecord, id, ErrNodeNotFound)
		}
	}
	for _, id := range rec.Outputs {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: output %d: %w", ErrInvalidRecord, id, ErrNodeNotFound)
		}
	}
	for start, count := range rec.Layers {
		if start < 0 || count < 0 || start+count > n {
			return fmt.Errorf("%w: layer %d of length %d exceeds %d nodes", ErrInvalidRecord, start, count, n)
		}
	}

	return nil
}

// mirrored reports whether the record carries the outgoing mirror.
func (rec Record) mirrored() bool {
	for _, nr := range rec.Nodes {
		if len(nr.Outlets) > 0 {
			return true
		}
	}
	return false
}

// validateOutlets checks that the outlets name every edge exactly once,
// each from the node that is its source.
func (rec Record) validateOutlets() error {
	n := len(rec.Nodes)
	seen := make(map[[2]int]bool)

	for i, nr := range rec.Nodes {
		for _, out := range nr.Outlets {
			consumer, slot := out[0], out[1]
			if consumer < 0 || consumer >= n {
				return fmt.Errorf("%w: node %d: outlet consumer %d: %w", ErrInvalidRecord, i, consumer, ErrNodeNotFound)
			}
			if slot < 0 || slot >= len(rec.Nodes[consumer].Sources) {
				return fmt.Errorf("%w: node %d: outlet slot %d out of range for node %d", ErrInvalidRecord, i, slot, consumer)
			}
			if rec.Nodes[consumer].Sources[slot] != i {
				return fmt.Errorf("%w: node %d: outlet %v belongs to node %d", ErrInvalidRecord, i, out, rec.Nodes[consumer].Sources[slot])
			}
			if seen[out] {
				return fmt.Errorf("%w: node %d: duplicate outlet %v", ErrInvalidRecord, i, out)
			}
			seen[out] = true
		}
	}

	var edges int
	for _, nr := range rec.Nodes {
		edges += len(nr.Sources)
	}
	if len(seen) != edges {
		return fmt.Errorf("%w: %d outlets for %d edges", ErrInvalidRecord, len(seen), edges)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Record())
}

// UnmarshalJSON implements json.Unmarshaler. The receiver is replaced by
// the decoded graph.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode graph: %w", err)
	}

	decoded, err := FromRecord(rec)
	if err != nil {
		return err
	}

	*g = *decoded
	return nil
}
