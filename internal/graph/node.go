package graph

import (
	"fmt"

	"github.com/born-ml/flexnet/internal/activation"
)

// Edge is a weighted connection into a node input slot.
type Edge struct {
	Source  int     // Producing node id
	Weight  float64 // Connection weight
	Input   float64 // Source value cached at the last fetch
	Partial float64 // Partial derivative held for the source, set by the last gradient step
}

// Outlet mirrors an edge from the producing side: the consumer node and the
// slot of the consumer's input list the edge occupies.
type Outlet struct {
	Consumer int
	Slot     int
}

// Node is a scalar unit computing activation(Σ weight·input + bias).
//
// A node with no incoming edges is a source node: its value is only ever
// written from outside.
type Node struct {
	id      int
	inputs  []Edge
	outputs []Outlet
	bias    float64
	act     activation.Kind
	value   float64
	target  float64
}

func newNode(id int, bias float64, act activation.Kind) *Node {
	return &Node{id: id, bias: bias, act: act}
}

// ID returns the node's position in its graph.
func (n *Node) ID() int { return n.id }

// Value returns the node's current value.
func (n *Node) Value() float64 { return n.value }

// SetValue overwrites the node's current value.
func (n *Node) SetValue(v float64) { n.value = v }

// Target returns the value the node was last trained toward.
func (n *Node) Target() float64 { return n.target }

// SetTarget sets the value used by ApplyTargetGradient.
func (n *Node) SetTarget(v float64) { n.target = v }

// Bias returns the bias term.
func (n *Node) Bias() float64 { return n.bias }

// SetBias overwrites the bias term.
func (n *Node) SetBias(b float64) { n.bias = b }

// Activation returns the node's activation function.
func (n *Node) Activation() activation.Kind { return n.act }

// IsSource reports whether the node has no incoming edges.
func (n *Node) IsSource() bool { return len(n.inputs) == 0 }

// Inputs returns a copy of the incoming edges in slot order.
func (n *Node) Inputs() []Edge {
	edges := make([]Edge, len(n.inputs))
	copy(edges, n.inputs)
	return edges
}

// Outputs returns a copy of the outgoing edge mirror.
func (n *Node) Outputs() []Outlet {
	outs := make([]Outlet, len(n.outputs))
	copy(outs, n.outputs)
	return outs
}

// Weight returns the weight of an incoming slot. Panics if slot is out of range.
func (n *Node) Weight(slot int) float64 {
	return n.inputs[slot].Weight
}

// SetWeight overwrites the weight of an incoming slot.
func (n *Node) SetWeight(slot int, w float64) {
	n.inputs[slot].Weight = w
}

// String returns a short description for debugging.
func (n *Node) String() string {
	return fmt.Sprintf("<node %d: %s, in=%d, out=%d>", n.id, n.act, len(n.inputs), len(n.outputs))
}

// addInput appends an incoming edge and returns its slot.
func (n *Node) addInput(source int, w float64) int {
	n.inputs = append(n.inputs, Edge{Source: source, Weight: w})
	return len(n.inputs) - 1
}

func (n *Node) addOutput(consumer, slot int) {
	n.outputs = append(n.outputs, Outlet{Consumer: consumer, Slot: slot})
}

// Accumulate recomputes the value from the cached inputs and returns it.
// Source nodes keep their externally written value.
func (n *Node) Accumulate() float64 {
	if len(n.inputs) == 0 {
		return n.value
	}

	var sum float64
	for i := range n.inputs {
		sum += n.inputs[i].Input * n.inputs[i].Weight
	}
	n.value = n.act.Apply(sum + n.bias)

	return n.value
}

// ApplyTargetGradient performs one descent step on the squared error
// (value - target)².
func (n *Node) ApplyTargetGradient(rate float64) {
	n.descend(rate, 2.0*(n.value-n.target)*n.act.Derivative(n.value))
}

// ApplyGradient performs one descent step given the partial derivative of
// the loss with respect to the node's value, as collected from consumers.
func (n *Node) ApplyGradient(rate, partial float64) {
	n.descend(rate, partial*n.act.Derivative(n.value))
}

// descend updates weights and bias from the local derivative d of the loss
// with respect to the pre-activation sum, and leaves d·w (pre-update
// weight) on every incoming edge for its source to collect.
func (n *Node) descend(rate, d float64) {
	if len(n.inputs) == 0 {
		return
	}

	for i := range n.inputs {
		e := &n.inputs[i]
		e.Partial = d * e.Weight
		e.Weight -= rate * d * e.Input
	}
	n.bias -= rate * d
}
