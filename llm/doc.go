/*
Package llm defines the Generation Port: the abstraction the workflow
engine calls to turn a prompt, a model configuration and an input string
into an output string.

The engine only ever sees the Provider interface. Real implementations
live in subpackages (llm/ollama); deterministic mocks for testing live in
testutil/mocks. RateLimited wraps any Provider with a token-bucket limiter
so concurrent branches cannot flood the backend.
*/
package llm
