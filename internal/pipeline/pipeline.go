// Package pipeline chains flexible networks and vector transforms into an
// end-to-end computation.
//
// A Pipeline is an ordered list of stages. Each stage's output becomes the
// next stage's input:
//
//	p := pipeline.New(
//	    g,                               // *graph.Graph
//	    transform.New(transform.SoftMax), // normalize the graph output
//	)
//
//	out, err := p.Forward([]float64{1, 2})
//	err = p.Train([]float64{0.9, 0.1}, 0.01)
//
// Stage kinds form a closed set: *graph.Graph, *transform.Stage and
// *Pipeline, which allows nesting.
package pipeline

import (
	"fmt"
)

// Stage is one step of a pipeline.
type Stage interface {
	// Forward computes the stage output for input.
	Forward(input []float64) ([]float64, error)

	// Trainable reports whether the stage has parameters to update.
	Trainable() bool
}

// Trainer is implemented by trainable stages.
type Trainer interface {
	Stage

	// Train performs one descent step toward target, using the state left
	// by the last Forward.
	Train(target []float64, rate float64) error
}

// Inverter is implemented by stages able to turn a target for their output
// into a target for their input.
type Inverter interface {
	Stage

	// Inverse maps target relative to the last Forward.
	Inverse(target []float64) ([]float64, error)
}

// Pipeline is a sequential container of stages.
//
// A Pipeline is itself a Stage. It is not safe for concurrent use.
type Pipeline struct {
	stages []Stage
	inputs [][]float64 // input each stage received in the last Evaluate
	input  []float64
	output []float64
}

// New creates a pipeline from the given stages.
//
// Panics if a stage is not one of the supported kinds.
func New(stages ...Stage) *Pipeline {
	p := &Pipeline{}
	for _, s := range stages {
		p.Add(s)
	}
	return p
}

// Add appends a stage and returns its position.
//
// Panics if the stage is not one of the supported kinds.
func (p *Pipeline) Add(s Stage) int {
	if _, err := KindOf(s); err != nil {
		panic(fmt.Sprintf("Pipeline.Add: %v", err))
	}
	p.stages = append(p.stages, s)
	p.inputs = nil
	return len(p.stages) - 1
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Stage returns the stage at the given position.
//
// Panics if index is out of bounds.
func (p *Pipeline) Stage(index int) Stage {
	if index < 0 || index >= len(p.stages) {
		panic(fmt.Sprintf("Pipeline.Stage: index %d out of range [0, %d)", index, len(p.stages)))
	}
	return p.stages[index]
}

// SetInput sets the vector fed to the first stage by Evaluate.
func (p *Pipeline) SetInput(input []float64) {
	p.input = append(p.input[:0], input...)
}

// Input returns a copy of the current input.
func (p *Pipeline) Input() []float64 {
	return append([]float64(nil), p.input...)
}

// Output returns a copy of the output of the last Evaluate.
func (p *Pipeline) Output() []float64 {
	return append([]float64(nil), p.output...)
}

// Evaluate feeds the current input through every stage in order and caches
// the final output. An empty pipeline passes its input through.
func (p *Pipeline) Evaluate() error {
	inputs := make([][]float64, len(p.stages))
	value := p.Input()

	for i, s := range p.stages {
		inputs[i] = value

		out, err := s.Forward(value)
		if err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
		value = out
	}

	p.inputs = inputs
	p.output = value
	if p.output == nil {
		p.output = []float64{}
	}
	return nil
}

// Forward sets the input, evaluates the pipeline and returns its output.
func (p *Pipeline) Forward(input []float64) ([]float64, error) {
	p.SetInput(input)
	if err := p.Evaluate(); err != nil {
		return nil, err
	}
	return p.Output(), nil
}

// Trainable reports whether any stage is trainable.
func (p *Pipeline) Trainable() bool {
	return p.firstTrainable() >= 0
}

func (p *Pipeline) firstTrainable() int {
	for i, s := range p.stages {
		if s.Trainable() {
			return i
		}
	}
	return -1
}

// Train performs one descent step of every trainable stage toward an
// end-to-end target, using the state of the last Evaluate.
//
// Stages are visited last to first with a running target. A trainable
// stage is trained toward it and the running target becomes the input that
// stage received. A non-trainable stage maps the running target through its
// Inverse. A transform stage between two trainable stages therefore hands
// the earlier one the transform's own last output.
//
// Parameters:
//   - target: desired pipeline output, same length as Output()
//   - rate: learning rate
func (p *Pipeline) Train(target []float64, rate float64) error {
	if p.inputs == nil {
		return ErrNotEvaluated
	}
	if len(target) != len(p.output) {
		return fmt.Errorf("%w: target has %d values, output has %d", ErrSizeMismatch, len(target), len(p.output))
	}

	first := p.firstTrainable()
	if first < 0 {
		return nil
	}
	running := append([]float64(nil), target...)

	for i := len(p.stages) - 1; i >= first; i-- {
		s := p.stages[i]

		if s.Trainable() {
			t, ok := s.(Trainer)
			if !ok {
				return fmt.Errorf("stage %d: %T is trainable but has no Train method", i, s)
			}
			if err := t.Train(running, rate); err != nil {
				return fmt.Errorf("stage %d: %w", i, err)
			}
			running = p.inputs[i]
			continue
		}

		inv, ok := s.(Inverter)
		if !ok {
			return fmt.Errorf("stage %d: %w", i, ErrNotInvertible)
		}
		mapped, err := inv.Inverse(running)
		if err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
		running = mapped
	}

	return nil
}

// Inverse maps a target for the pipeline output to a target for its input
// by inverting every stage from last to first. Only pipelines without
// trainable stages can be inverted.
func (p *Pipeline) Inverse(target []float64) ([]float64, error) {
	if p.inputs == nil {
		return nil, ErrNotEvaluated
	}
	if len(target) != len(p.output) {
		return nil, fmt.Errorf("%w: target has %d values, output has %d", ErrSizeMismatch, len(target), len(p.output))
	}

	running := append([]float64(nil), target...)
	for i := len(p.stages) - 1; i >= 0; i-- {
		inv, ok := p.stages[i].(Inverter)
		if !ok || p.stages[i].Trainable() {
			return nil, fmt.Errorf("stage %d: %w", i, ErrNotInvertible)
		}

		mapped, err := inv.Inverse(running)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		running = mapped
	}

	return running, nil
}
