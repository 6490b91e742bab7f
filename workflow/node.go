package workflow

import (
	"context"
	"time"

	"github.com/firstpixel/agent-workflow/types"
)

// Validator checks a produced output. Returning false counts as a
// validation failure for that attempt.
type Validator func(output string) bool

// GenerateFunc replaces the default Generation Port call for a node.
// It receives the merged upstream input and, for user-input nodes, the
// externally supplied value (empty otherwise).
type GenerateFunc func(ctx context.Context, input, userInput string) (string, error)

// Node is the unit of work in a workflow graph.
type Node struct {
	// Name is the unique identifier, the stable key for graph edges.
	Name string
	// System is the role instruction sent as the system message.
	System string
	// Prompt is the prompt template prepended to the merged input.
	Prompt string
	// Model is the model configuration bag, passed through to the
	// Generation Port verbatim.
	Model types.ModelConfig
	// RetryLimit is the maximum number of additional attempts after the
	// first on a failed attempt. Must be non-negative.
	RetryLimit int
	// ExpectedInputs is the number of distinct predecessor outputs that
	// must arrive before this node fires. Zero is normalized to 1.
	ExpectedInputs int
	// Validator, when set, is applied to every produced output. Nil means
	// always valid.
	Validator Validator
	// Generate, when set, bypasses the Generation Port for this node.
	Generate GenerateFunc
	// NeedsUserInput marks the node as requiring an externally supplied
	// value merged with the upstream input before generation.
	NeedsUserInput bool
	// Timeout bounds a single execution attempt. Zero means no bound.
	// A timed-out attempt counts as one failed retry attempt.
	Timeout time.Duration
}

// expectedInputs returns the normalized join arity.
func (n *Node) expectedInputs() int {
	if n.ExpectedInputs < 1 {
		return 1
	}
	return n.ExpectedInputs
}

// maxAttempts returns the total attempt budget (first try plus retries).
func (n *Node) maxAttempts() int {
	if n.RetryLimit < 0 {
		return 1
	}
	return n.RetryLimit + 1
}
