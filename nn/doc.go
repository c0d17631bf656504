// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides flexible networks and pipelines.
//
// # Overview
//
// This package contains:
//   - Graph: networks of scalar nodes with arbitrary, possibly cyclic wiring
//   - Activations: Identity, Sigmoid, Tanh, ReLU
//   - Transforms: Identity, Fraction, SoftMax
//   - Pipeline: ordered composition of graphs, transforms and pipelines
//   - Persistence: Save, Load
//
// # Basic Usage
//
//	import "github.com/born-ml/flexnet/nn"
//
//	func main() {
//	    g := nn.NewGraph()
//	    in := g.NewLayer(2, 0, nn.Identity)
//	    hid := g.NewLayer(5, 0, nn.Identity)
//	    out := g.NewLayer(1, 0, nn.ReLU)
//	    _ = g.ConnectLayer(in, hid, 1)
//	    _ = g.ConnectLayer(hid, out, 1)
//	    _ = g.SetInputLayer(in)
//	    _ = g.SetOutputLayer(out)
//
//	    for i := 0; i < 10000; i++ {
//	        _, _ = g.Forward([]float64{1, 2})
//	        _ = g.Train([]float64{3}, 0.001)
//	    }
//	}
//
// # Cycles
//
// Any node may feed any other, itself included. Evaluation visits every
// node at most once per pass; a node on a cycle is seen by its consumers
// with the value it had one pass earlier. Training follows the same rule
// backward, so neither pass needs the graph to be acyclic.
//
// # Pipelines
//
// Pipeline chains stages so that each output feeds the next input:
//
//	p := nn.NewPipeline(g, nn.NewTransform(nn.SoftMax))
//	out, err := p.Forward([]float64{1, 2})
//
// Training a pipeline trains its graphs, mapping the target back through
// transforms as needed.
package nn
