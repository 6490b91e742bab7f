// Package hitl provides human-in-the-loop input for workflow runs: a
// request/answer broker, pluggable pending-request stores, and an
// io.Reader adapter for interactive terminals.
package hitl

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an input request.
type Status string

const (
	// StatusPending means the request awaits an answer.
	StatusPending Status = "pending"
	// StatusAnswered means a value was supplied.
	StatusAnswered Status = "answered"
	// StatusCanceled means the waiting run gave up before an answer
	// arrived.
	StatusCanceled Status = "canceled"
)

// ErrRequestNotFound is returned by stores for unknown request IDs.
var ErrRequestNotFound = errors.New("hitl: request not found")

// ErrAlreadyResolved is returned when answering a request that is no
// longer pending.
var ErrAlreadyResolved = errors.New("hitl: request already resolved")

// Request is one pending demand for human input, addressable from outside
// the running process when backed by a shared store.
type Request struct {
	ID     string `json:"id"`
	RunID  string `json:"run_id"`
	Node   string `json:"node"`
	Prompt string `json:"prompt"`
	Status Status `json:"status"`
	Answer string `json:"answer,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}
