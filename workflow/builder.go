package workflow

import (
	"time"

	"go.uber.org/zap"

	"github.com/firstpixel/agent-workflow/types"
)

// Builder provides a fluent API for assembling a workflow graph.
type Builder struct {
	graph  *Graph
	logger *zap.Logger
	err    error
}

// NewBuilder creates a graph builder.
func NewBuilder() *Builder {
	return &Builder{
		graph:  NewGraph(),
		logger: zap.NewNop(),
	}
}

// WithLogger sets a custom logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger != nil {
		b.logger = logger.With(zap.String("component", "graph_builder"))
	}
	return b
}

// AddNode registers a node and returns a NodeBuilder for configuration.
func (b *Builder) AddNode(name string) *NodeBuilder {
	node := &Node{Name: name}
	if err := b.graph.AddNode(node); err != nil && b.err == nil {
		b.err = err
	}
	return &NodeBuilder{node: node, parent: b}
}

// AddEdge declares a directed edge between two nodes.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.graph.AddEdge(from, to)
	return b
}

// Build validates the graph and returns it. The first registration error
// and any validation error are surfaced here, so call sites only need one
// error check.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.graph.Validate(); err != nil {
		return nil, err
	}
	b.logger.Info("workflow graph built",
		zap.Int("nodes", len(b.graph.nodes)),
	)
	return b.graph, nil
}

// NodeBuilder configures a single node.
type NodeBuilder struct {
	node   *Node
	parent *Builder
}

// WithSystem sets the system role instruction.
func (nb *NodeBuilder) WithSystem(system string) *NodeBuilder {
	nb.node.System = system
	return nb
}

// WithPrompt sets the prompt template.
func (nb *NodeBuilder) WithPrompt(prompt string) *NodeBuilder {
	nb.node.Prompt = prompt
	return nb
}

// WithModel sets the model configuration bag.
func (nb *NodeBuilder) WithModel(model types.ModelConfig) *NodeBuilder {
	nb.node.Model = model
	return nb
}

// WithRetryLimit sets the number of additional attempts after the first.
func (nb *NodeBuilder) WithRetryLimit(limit int) *NodeBuilder {
	nb.node.RetryLimit = limit
	return nb
}

// WithExpectedInputs sets the join arity.
func (nb *NodeBuilder) WithExpectedInputs(count int) *NodeBuilder {
	nb.node.ExpectedInputs = count
	return nb
}

// WithValidator sets the output validator.
func (nb *NodeBuilder) WithValidator(v Validator) *NodeBuilder {
	nb.node.Validator = v
	return nb
}

// WithGenerateFunc sets a generation override, bypassing the Generation
// Port for this node.
func (nb *NodeBuilder) WithGenerateFunc(fn GenerateFunc) *NodeBuilder {
	nb.node.Generate = fn
	return nb
}

// WithUserInput marks the node as requiring a human-supplied value.
func (nb *NodeBuilder) WithUserInput() *NodeBuilder {
	nb.node.NeedsUserInput = true
	return nb
}

// WithTimeout bounds each execution attempt.
func (nb *NodeBuilder) WithTimeout(timeout time.Duration) *NodeBuilder {
	nb.node.Timeout = timeout
	return nb
}

// Done completes node configuration and returns to the Builder.
func (nb *NodeBuilder) Done() *Builder {
	return nb.parent
}
