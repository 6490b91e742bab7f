package workflow

import "time"

// EventType identifies a node lifecycle event.
type EventType string

const (
	// EventNodeCompleted fires when a node produced a final output.
	EventNodeCompleted EventType = "node_completed"
	// EventNodeFailed fires when a node exhausted its attempts or was
	// canceled.
	EventNodeFailed EventType = "node_failed"
	// EventNodeAwaitingInput fires when a ready node suspends on the
	// interactive input port.
	EventNodeAwaitingInput EventType = "node_awaiting_input"
)

// Event is a per-node completion event. The coordinator emits these
// regardless of whether anything records them; callers may observe them to
// log or persist node inputs, outputs and timings externally.
type Event struct {
	Type  EventType
	RunID string
	Node  string
	// Inputs are the merged predecessor outputs presented to the node.
	Inputs []string
	// Output is the final output for completed nodes.
	Output string
	// Err is the failure for failed nodes.
	Err error
	// Attempts is the number of generation attempts made.
	Attempts int
	Duration time.Duration
	// PromptTokens and CompletionTokens report backend usage, estimated
	// with the configured token counter when the backend reports none.
	PromptTokens     int
	CompletionTokens int
}

// EventHandler observes run events. Handlers are invoked sequentially from
// the run's scheduling loop and must not block for long.
type EventHandler func(Event)

// Recorder receives execution measurements. internal/metrics provides a
// Prometheus-backed implementation.
type Recorder interface {
	RecordNodeExecution(node, status string, duration time.Duration, attempts int)
	RecordRun(status string, duration time.Duration)
}
