package workflow

import (
	"sort"
	"time"

	"github.com/firstpixel/agent-workflow/types"
)

// RunReport is the outcome of one run. Partial success is permitted: a
// failure in one branch does not retract results already produced by
// sibling branches.
type RunReport struct {
	// RunID identifies the run in logs, events and traces.
	RunID string
	// TerminalResults maps each terminal node that fired to its output.
	TerminalResults map[string]string
	// Failures maps failed or unreachable node names to their failure.
	Failures map[string]*types.Error
	Duration time.Duration
}

// FailedNodes returns the failed node names in sorted order.
func (r *RunReport) FailedNodes() []string {
	names := make([]string, 0, len(r.Failures))
	for name := range r.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unreachable returns the nodes reported unreachable because an upstream
// dependency failed, in sorted order.
func (r *RunReport) Unreachable() []string {
	var names []string
	for name, failure := range r.Failures {
		if failure.Code == types.ErrUnreachableNode {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Success reports whether every node that ran produced a result and
// nothing was left unreachable.
func (r *RunReport) Success() bool {
	return len(r.Failures) == 0
}
