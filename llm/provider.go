package llm

import (
	"context"

	"github.com/firstpixel/agent-workflow/types"
)

// GenerateRequest is a single generation call.
type GenerateRequest struct {
	// System is the role instruction for the backend ("system" message).
	System string `json:"system,omitempty"`
	// Prompt is the node's prompt template, prepended to the input.
	Prompt string `json:"prompt,omitempty"`
	// Input is the merged upstream input for this node.
	Input string `json:"input"`
	// Model carries the recognized sampling options plus opaque extras,
	// passed through to the backend verbatim.
	Model types.ModelConfig `json:"model"`
}

// GenerateResponse is the backend's answer to a GenerateRequest.
type GenerateResponse struct {
	// Output is the produced text.
	Output string `json:"output"`
	// PromptTokens and CompletionTokens are usage figures when the backend
	// reports them, zero otherwise.
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

// Provider is the Generation Port consumed by the workflow engine.
// Implementations must be safe for concurrent use: independent branches of
// a run call Generate from separate goroutines.
type Provider interface {
	// Generate produces an output string for the request, or an error.
	// Backend failures should be returned as *types.Error with code
	// GENERATION_ERROR so the engine retries them.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider's unique identifier.
	Name() string
}
