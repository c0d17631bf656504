package topology

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is the top level of a topology file: the stages of the outer
// pipeline, in order.
type fileRoot struct {
	Stages []*stageBlock `hcl:"stage,block"`
}

// stageBlock is decoded in two steps: the label picks the schema used for
// the remaining body.
type stageBlock struct {
	Kind string   `hcl:"kind,label"`
	Body hcl.Body `hcl:",remain"`
}

type graphBody struct {
	Layers   []*layerBlock   `hcl:"layer,block"`
	Connects []*connectBlock `hcl:"connect,block"`
	Inputs   hcl.Expression  `hcl:"inputs"`
	Outputs  hcl.Expression  `hcl:"outputs"`
}

type layerBlock struct {
	Name       string  `hcl:"name,label"`
	Size       int     `hcl:"size"`
	Bias       float64 `hcl:"bias,optional"`
	Activation string  `hcl:"activation,optional"`
}

// connectBlock keeps the layer references as expressions so diagnostics
// can point at them.
type connectBlock struct {
	From      hcl.Expression `hcl:"from"`
	To        hcl.Expression `hcl:"to"`
	Weight    float64        `hcl:"weight"`
	FromIndex *int           `hcl:"from_index,optional"`
	ToIndex   *int           `hcl:"to_index,optional"`
}

type transformBody struct {
	Function string `hcl:"function"`
}

type pipelineBody struct {
	Stages []*stageBlock `hcl:"stage,block"`
}
