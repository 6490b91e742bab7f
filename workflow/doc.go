/*
Package workflow implements the graph execution engine: a registry of
generation nodes wired by directed edges, and a Runner that drives one run
of the graph for one initial input.

A Node wraps a unit of text-generation work with its prompt, model
configuration, retry limit, join arity and optional validator or generation
override. The Graph validates acyclicity and join arity at build time. The
Runner seeds a start node, executes nodes as they become ready (FIFO, with
sibling branches running concurrently up to a configurable limit), routes
each output to all declared successors, merges fan-in inputs, retries
validation failures up to each node's limit, and suspends user-input nodes
on an interactive input port without stalling independent branches.

Per-node state bookkeeping is confined to the run's scheduling loop
goroutine; worker goroutines only execute generation calls, so merge
updates and readiness checks are atomic by construction.
*/
package workflow
