// Package agentworkflow provides a top-level convenience entry point for
// building and running workflow graphs with minimal boilerplate.
//
// Usage:
//
//	import agentworkflow "github.com/firstpixel/agent-workflow"
//
//	graph, err := agentworkflow.NewBuilder().
//	    AddNode("clarify").WithPrompt("Clarify:").Done().
//	    AddNode("design").WithPrompt("Design:").Done().
//	    AddEdge("clarify", "design").
//	    Build()
//	report, err := agentworkflow.NewRunner(graph, provider, logger).
//	    Run(ctx, "clarify", "build a todo app", agentworkflow.RunOptions{})
//
// This is a thin re-export layer over the workflow package; use it when
// you prefer the shorter import path.
package agentworkflow

import (
	"github.com/firstpixel/agent-workflow/workflow"
)

// Graph is the workflow topology. See [workflow.Graph].
type Graph = workflow.Graph

// Node is the unit of work. See [workflow.Node].
type Node = workflow.Node

// Builder assembles graphs fluently. See [workflow.Builder].
type Builder = workflow.Builder

// Runner executes graphs. See [workflow.Runner].
type Runner = workflow.Runner

// RunOptions controls one run. See [workflow.RunOptions].
type RunOptions = workflow.RunOptions

// RunReport is the outcome of a run. See [workflow.RunReport].
type RunReport = workflow.RunReport

// Event is a per-node completion event. See [workflow.Event].
type Event = workflow.Event

// InputPort supplies mid-run human input. See [workflow.InputPort].
type InputPort = workflow.InputPort

// NewBuilder creates a graph builder.
var NewBuilder = workflow.NewBuilder

// NewGraph creates an empty graph.
var NewGraph = workflow.NewGraph

// NewRunner creates a runner for a graph.
var NewRunner = workflow.NewRunner
