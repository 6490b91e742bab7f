package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Node execution error codes
const (
	ErrGeneration          ErrorCode = "GENERATION_ERROR"
	ErrValidationExhausted ErrorCode = "VALIDATION_EXHAUSTED"
	ErrInputRequired       ErrorCode = "INPUT_REQUIRED"
	ErrUnreachableNode     ErrorCode = "UNREACHABLE_NODE"
	ErrTimeout             ErrorCode = "TIMEOUT"
	ErrCanceled            ErrorCode = "CANCELED"
)

// Graph construction error codes
const (
	ErrCyclicGraph   ErrorCode = "CYCLIC_GRAPH"
	ErrOverJoinArity ErrorCode = "OVER_JOIN_ARITY"
	ErrDuplicateNode ErrorCode = "DUPLICATE_NODE"
	ErrUnknownNode   ErrorCode = "UNKNOWN_NODE"
	ErrInvalidNode   ErrorCode = "INVALID_NODE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Node      string    `json:"node,omitempty"`
	Retryable bool      `json:"retryable"`
	// LastOutput carries the last produced output for diagnostics when
	// validation retries were exhausted.
	LastOutput string `json:"last_output,omitempty"`
	Cause      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNode sets the node the error originated from.
func (e *Error) WithNode(node string) *Error {
	e.Node = node
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithLastOutput attaches the last produced output for diagnostics.
func (e *Error) WithLastOutput(output string) *Error {
	e.LastOutput = output
	return e
}

// NewGenerationError wraps a generation backend failure. Generation errors
// consume one retry attempt, so they are marked retryable.
func NewGenerationError(node string, cause error) *Error {
	return NewError(ErrGeneration, "generation backend call failed").
		WithNode(node).
		WithRetryable(true).
		WithCause(cause)
}

// NewValidationExhaustedError reports that every attempt produced output
// failing the node's validator.
func NewValidationExhaustedError(node string, attempts int, lastOutput string) *Error {
	return NewError(ErrValidationExhausted,
		fmt.Sprintf("all %d attempts failed validation", attempts)).
		WithNode(node).
		WithLastOutput(lastOutput)
}

// NewInputRequiredError reports a user-input node executed without an
// interactive input port.
func NewInputRequiredError(node string) *Error {
	return NewError(ErrInputRequired, "node requires user input but no input port is configured").
		WithNode(node)
}

// NewUnreachableNodeError reports a node whose join requirement can never be
// satisfied because an upstream dependency failed or is itself unreachable.
func NewUnreachableNodeError(node string) *Error {
	return NewError(ErrUnreachableNode, "join requirement can never be satisfied").
		WithNode(node)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
