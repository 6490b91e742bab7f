/*
Package types provides the shared type definitions for agent-workflow.

It is the lowest-level public package and depends on nothing else in the
module. The structured Error type with its ErrorCode taxonomy is defined
here so that the workflow engine, the generation providers and the CLI all
report failures through one contract, and ModelConfig carries the sampling
options that are passed through to the generation backend verbatim.
*/
package types
