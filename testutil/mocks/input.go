package mocks

import (
	"context"
	"fmt"
	"sync"
)

// InputRequest records one user-input request seen by ScriptedInput.
type InputRequest struct {
	Node         string
	PriorContext string
}

// ScriptedInput answers user-input requests from a fixed script keyed by
// node name. Unscripted nodes fail the request.
type ScriptedInput struct {
	mu       sync.Mutex
	answers  map[string]string
	err      error
	requests []InputRequest
}

// NewScriptedInput creates an empty script.
func NewScriptedInput() *ScriptedInput {
	return &ScriptedInput{answers: make(map[string]string)}
}

// WithAnswer scripts the value returned for a node.
func (s *ScriptedInput) WithAnswer(node, value string) *ScriptedInput {
	s.answers[node] = value
	return s
}

// WithError makes every request fail with err.
func (s *ScriptedInput) WithError(err error) *ScriptedInput {
	s.err = err
	return s
}

// RequestUserInput implements workflow.InputPort.
func (s *ScriptedInput) RequestUserInput(ctx context.Context, node, priorContext string) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, InputRequest{Node: node, PriorContext: priorContext})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.err != nil {
		return "", s.err
	}
	value, ok := s.answers[node]
	if !ok {
		return "", fmt.Errorf("no scripted answer for node %s", node)
	}
	return value, nil
}

// Requests returns the recorded requests in arrival order.
func (s *ScriptedInput) Requests() []InputRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InputRequest, len(s.requests))
	copy(out, s.requests)
	return out
}
