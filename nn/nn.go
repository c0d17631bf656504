// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/flexnet/internal/activation"
	"github.com/born-ml/flexnet/internal/graph"
	"github.com/born-ml/flexnet/internal/pipeline"
	"github.com/born-ml/flexnet/internal/serialization"
	"github.com/born-ml/flexnet/internal/transform"
)

// Graphs

// Graph is a flexible network of scalar nodes.
type Graph = graph.Graph

// Node is a scalar unit of a Graph.
type Node = graph.Node

// Edge is a weighted connection into a node input slot.
type Edge = graph.Edge

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return graph.New()
}

// Activations

// Activation identifies a node activation function.
type Activation = activation.Kind

// Supported activations.
const (
	Identity = activation.Identity
	Sigmoid  = activation.Sigmoid
	Tanh     = activation.Tanh
	ReLU     = activation.ReLU
)

// ParseActivation converts a tag such as "relu" into an Activation.
func ParseActivation(s string) (Activation, error) {
	return activation.Parse(s)
}

// Transforms

// Transform is a parameter-free vector stage.
type Transform = transform.Stage

// TransformFunc identifies a vector function.
type TransformFunc = transform.Func

// Supported transform functions.
const (
	PassThrough = transform.Identity
	Fraction    = transform.Fraction
	SoftMax     = transform.SoftMax
)

// NewTransform creates a transform stage.
//
// Example:
//
//	softmax := nn.NewTransform(nn.SoftMax)
func NewTransform(fn TransformFunc) *Transform {
	return transform.New(fn)
}

// Pipelines

// Stage is one step of a Pipeline.
type Stage = pipeline.Stage

// Pipeline is an ordered composition of stages.
type Pipeline = pipeline.Pipeline

// NewPipeline creates a pipeline from graphs, transforms and pipelines.
func NewPipeline(stages ...Stage) *Pipeline {
	return pipeline.New(stages...)
}

// Persistence

// Header describes a saved model file.
type Header = serialization.Header

// Save writes p to path as a model file.
func Save(path string, p *Pipeline, metadata map[string]string) (Header, error) {
	return serialization.Save(path, p, metadata)
}

// Load reads a model file written by Save.
func Load(path string) (*Pipeline, Header, error) {
	return serialization.Load(path)
}
