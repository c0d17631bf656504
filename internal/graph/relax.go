package graph

// fetch asks node from for a quantity destined for node to. slot indexes
// the input list of whichever endpoint is the consumer of the edge.
type fetch struct {
	from int
	to   int
	slot int
}

// relax runs the demand-driven traversal shared by evaluation and training.
//
// The queue is processed in rounds. A request that is settled is delivered
// at the end of its round. Any other request is deferred, and the first time
// a node is asked, its own requests form part of the next round. Every node
// is expanded at most once per pass, so the number of rounds is bounded by
// the node count even when the graph has cycles.
//
// The deferred requests are returned in discovery order. Callers resolve
// them in reverse, which makes a request that closes a cycle see the value
// of the previous pass.
func (g *Graph) relax(queue []fetch, settled func(fetch) bool, expand func(id int) []fetch, deliver func(fetch)) []fetch {
	visited := make([]bool, len(g.nodes))
	var deferred []fetch

	for len(queue) > 0 {
		var next []fetch
		staged := make([]fetch, 0, len(queue))

		for _, f := range queue {
			if settled(f) {
				staged = append(staged, f)
				continue
			}

			deferred = append(deferred, f)
			if !visited[f.from] {
				visited[f.from] = true
				next = append(next, expand(f.from)...)
			}
		}

		for _, f := range staged {
			deliver(f)
		}
		queue = next
	}

	return deferred
}

// sourcesOf returns one value request per incoming edge of id.
func (g *Graph) sourcesOf(id int) []fetch {
	n := g.nodes[id]
	fetches := make([]fetch, len(n.inputs))
	for slot, e := range n.inputs {
		fetches[slot] = fetch{from: e.Source, to: id, slot: slot}
	}
	return fetches
}

// consumersOf returns one partial request per outgoing edge of id.
func (g *Graph) consumersOf(id int) []fetch {
	n := g.nodes[id]
	fetches := make([]fetch, len(n.outputs))
	for i, out := range n.outputs {
		fetches[i] = fetch{from: out.Consumer, to: id, slot: out.Slot}
	}
	return fetches
}

// Evaluate recomputes every node the outputs depend on from the current
// source values, then the outputs themselves.
//
// Nodes on a dependency cycle are seen by their consumers with the value
// they had one pass earlier.
func (g *Graph) Evaluate() {
	var queue []fetch
	for _, id := range g.outputs {
		queue = append(queue, g.sourcesOf(id)...)
	}

	settled := func(f fetch) bool {
		return g.nodes[f.from].IsSource() || f.from == f.to
	}
	deliver := func(f fetch) {
		g.nodes[f.to].inputs[f.slot].Input = g.nodes[f.from].value
	}

	deferred := g.relax(queue, settled, g.sourcesOf, deliver)
	for i := len(deferred) - 1; i >= 0; i-- {
		f := deferred[i]
		g.nodes[f.to].inputs[f.slot].Input = g.nodes[f.from].Accumulate()
	}

	for _, id := range g.outputs {
		g.nodes[id].Accumulate()
	}
}

// Train performs one gradient descent step toward target, which is aligned
// with the output designation. It uses the values and cached inputs of the
// last Evaluate.
//
// Output nodes descend on their squared error. The partial derivatives they
// leave on their incoming edges are then chased from the input nodes toward
// the outputs along the outgoing mirror; a node on a cycle descends on
// whatever partial it has collected so far.
func (g *Graph) Train(target []float64, rate float64) error {
	if len(target) != len(g.outputs) {
		return &SizeMismatchError{Expected: len(g.outputs), Got: len(target), What: "targets"}
	}

	partial := make([]float64, len(g.nodes))
	for i, id := range g.outputs {
		n := g.nodes[id]
		n.target = target[i]
		n.ApplyTargetGradient(rate)
	}

	var queue []fetch
	for _, id := range g.inputs {
		queue = append(queue, g.consumersOf(id)...)
	}

	settled := func(f fetch) bool {
		return len(g.nodes[f.from].outputs) == 0 || f.from == f.to
	}
	deliver := func(f fetch) {
		partial[f.to] += g.nodes[f.from].inputs[f.slot].Partial
	}

	deferred := g.relax(queue, settled, g.consumersOf, deliver)
	for i := len(deferred) - 1; i >= 0; i-- {
		f := deferred[i]
		consumer := g.nodes[f.from]
		consumer.ApplyGradient(rate, partial[f.from])
		partial[f.to] += consumer.inputs[f.slot].Partial
	}

	return nil
}
