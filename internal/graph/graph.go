// Package graph implements flexible networks: append-only graphs of scalar
// nodes whose connections need not form layers and may contain cycles.
//
// Nodes live in an arena indexed by id. Ids follow creation order and are
// never reused, so edges refer to nodes by id without lifetime tracking.
// A layer is only a name for a contiguous id range used by bulk
// operations; any pair of nodes may be connected, including a node to
// itself.
//
// Example:
//
//	g := graph.New()
//	in := g.NewLayer(2, 0, activation.Identity)
//	hid := g.NewLayer(5, 0, activation.Identity)
//	out := g.NewLayer(1, 0, activation.ReLU)
//	_ = g.ConnectLayer(in, hid, 1)
//	_ = g.ConnectLayer(hid, out, 1)
//	_ = g.SetInputLayer(in)
//	_ = g.SetOutputLayer(out)
//
//	_ = g.SetInput([]float64{1, 2})
//	g.Evaluate()
//	_ = g.Train([]float64{3}, 0.001)
package graph

import (
	"fmt"

	"github.com/born-ml/flexnet/internal/activation"
)

// Graph is a flexible network.
//
// Structure is built once and evaluation and training may then be
// interleaved freely. A Graph is not safe for concurrent use.
type Graph struct {
	nodes   []*Node
	inputs  []int
	outputs []int
	layers  map[int]int // start id -> node count
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{layers: make(map[int]int)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node with the given id.
//
// Panics if id is out of range.
func (g *Graph) Node(id int) *Node {
	if id < 0 || id >= len(g.nodes) {
		panic(fmt.Sprintf("Graph.Node: id %d out of range [0, %d)", id, len(g.nodes)))
	}
	return g.nodes[id]
}

// NewNode appends a node and returns its id.
func (g *Graph) NewNode(bias float64, act activation.Kind) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, newNode(id, bias, act))
	return id
}

// NewLayer appends count nodes sharing bias and activation, records them as
// a layer and returns the id of the first one, which names the layer.
//
// Panics if count is negative.
func (g *Graph) NewLayer(count int, bias float64, act activation.Kind) int {
	if count < 0 {
		panic(fmt.Sprintf("Graph.NewLayer: negative node count %d", count))
	}
	start := len(g.nodes)
	for i := 0; i < count; i++ {
		g.NewNode(bias, act)
	}
	g.layers[start] = count
	return start
}

// Layers returns a copy of the layer table.
func (g *Graph) Layers() map[int]int {
	layers := make(map[int]int, len(g.layers))
	for start, count := range g.layers {
		layers[start] = count
	}
	return layers
}

// LayerIDs returns the node ids of the layer starting at start.
func (g *Graph) LayerIDs(start int) ([]int, error) {
	count, ok := g.layers[start]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrLayerNotFound, start)
	}

	ids := make([]int, count)
	for i := range ids {
		ids[i] = start + i
	}
	return ids, nil
}

// Connect adds an edge from one node to another with the given weight.
// from and to may be equal.
func (g *Graph) Connect(from, to int, w float64) error {
	if err := g.check(from, to); err != nil {
		return fmt.Errorf("connect %d -> %d: %w", from, to, err)
	}
	g.connect(from, to, w)
	return nil
}

func (g *Graph) connect(from, to int, w float64) {
	slot := g.nodes[to].addInput(from, w)
	g.nodes[from].addOutput(to, slot)
}

// ConnectLayer connects every node of one layer to every node of another,
// all with the same weight. A layer connected to itself gets every ordered
// pair, self loops included.
func (g *Graph) ConnectLayer(from, to int, w float64) error {
	fromIDs, err := g.LayerIDs(from)
	if err != nil {
		return fmt.Errorf("connect layer %d -> %d: %w", from, to, err)
	}
	toIDs, err := g.LayerIDs(to)
	if err != nil {
		return fmt.Errorf("connect layer %d -> %d: %w", from, to, err)
	}

	for _, f := range fromIDs {
		for _, t := range toIDs {
			g.connect(f, t, w)
		}
	}
	return nil
}

// NumEdges returns the total number of edges.
func (g *Graph) NumEdges() int {
	var n int
	for _, node := range g.nodes {
		n += len(node.inputs)
	}
	return n
}

// SetInputIDs appends node ids to the input designation.
func (g *Graph) SetInputIDs(ids ...int) error {
	if err := g.check(ids...); err != nil {
		return fmt.Errorf("set inputs: %w", err)
	}
	g.inputs = append(g.inputs, ids...)
	return nil
}

// SetInputLayer replaces the input designation with the given layer.
func (g *Graph) SetInputLayer(start int) error {
	ids, err := g.LayerIDs(start)
	if err != nil {
		return fmt.Errorf("set input layer: %w", err)
	}
	g.inputs = ids
	return nil
}

// SetOutputIDs appends node ids to the output designation.
func (g *Graph) SetOutputIDs(ids ...int) error {
	if err := g.check(ids...); err != nil {
		return fmt.Errorf("set outputs: %w", err)
	}
	g.outputs = append(g.outputs, ids...)
	return nil
}

// SetOutputLayer replaces the output designation with the given layer.
func (g *Graph) SetOutputLayer(start int) error {
	ids, err := g.LayerIDs(start)
	if err != nil {
		return fmt.Errorf("set output layer: %w", err)
	}
	g.outputs = ids
	return nil
}

// InputIDs returns a copy of the input designation.
func (g *Graph) InputIDs() []int {
	return append([]int(nil), g.inputs...)
}

// OutputIDs returns a copy of the output designation.
func (g *Graph) OutputIDs() []int {
	return append([]int(nil), g.outputs...)
}

// SetInput writes values into the designated input nodes, in order.
func (g *Graph) SetInput(values []float64) error {
	if len(values) != len(g.inputs) {
		return &SizeMismatchError{Expected: len(g.inputs), Got: len(values), What: "inputs"}
	}
	for i, id := range g.inputs {
		g.nodes[id].value = values[i]
	}
	return nil
}

// Input returns the current values of the designated input nodes.
func (g *Graph) Input() []float64 {
	return g.values(g.inputs)
}

// Output returns the current values of the designated output nodes.
func (g *Graph) Output() []float64 {
	return g.values(g.outputs)
}

func (g *Graph) values(ids []int) []float64 {
	values := make([]float64, len(ids))
	for i, id := range ids {
		values[i] = g.nodes[id].value
	}
	return values
}

// Forward sets the input, evaluates the graph and returns its output.
func (g *Graph) Forward(input []float64) ([]float64, error) {
	if err := g.SetInput(input); err != nil {
		return nil, err
	}
	g.Evaluate()
	return g.Output(), nil
}

// Trainable reports that graphs take part in training.
func (g *Graph) Trainable() bool {
	return true
}

// check verifies that every id names an existing node.
func (g *Graph) check(ids ...int) error {
	for _, id := range ids {
		if id < 0 || id >= len(g.nodes) {
			return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
		}
	}
	return nil
}

