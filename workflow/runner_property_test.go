package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"
)

func TestProperty_JoinFiresOnceWithExactArity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a k-way join executes exactly once with exactly k inputs", prop.ForAll(
		func(branches int) bool {
			var joinCalls atomic.Int32
			var joinInput atomic.Value

			builder := NewBuilder().
				AddNode("start").WithGenerateFunc(passThrough).Done()
			for i := 0; i < branches; i++ {
				name := fmt.Sprintf("branch%d", i)
				builder = builder.AddNode(name).WithGenerateFunc(suffixNode(name)).Done()
			}
			builder = builder.AddNode("join").
				WithExpectedInputs(branches).
				WithGenerateFunc(func(ctx context.Context, input, userInput string) (string, error) {
					joinCalls.Add(1)
					joinInput.Store(input)
					return input, nil
				}).
				Done()
			for i := 0; i < branches; i++ {
				name := fmt.Sprintf("branch%d", i)
				builder = builder.AddEdge("start", name).AddEdge(name, "join")
			}

			graph, err := builder.Build()
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}

			report, err := NewRunner(graph, nil, nil).
				Run(context.Background(), "start", "seed", RunOptions{})
			if err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}
			if !report.Success() {
				t.Logf("unexpected failures: %v", report.Failures)
				return false
			}
			if joinCalls.Load() != 1 {
				t.Logf("join executed %d times", joinCalls.Load())
				return false
			}
			merged := joinInput.Load().(string)
			if got := len(strings.Split(merged, DefaultMergeSeparator)); got != branches {
				t.Logf("join received %d inputs, want %d: %q", got, branches, merged)
				return false
			}
			return true
		},
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

func TestProperty_RetryBudgetIsExact(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a node with retry limit r and an always-failing validator attempts exactly r+1 times", prop.ForAll(
		func(retryLimit int) bool {
			var calls atomic.Int32

			graph, err := NewBuilder().
				AddNode("n").
				WithRetryLimit(retryLimit).
				WithValidator(func(output string) bool { return false }).
				WithGenerateFunc(func(ctx context.Context, input, userInput string) (string, error) {
					calls.Add(1)
					return "out", nil
				}).
				Done().
				Build()
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}

			report, err := NewRunner(graph, nil, nil).
				Run(context.Background(), "n", "x", RunOptions{})
			if err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}
			if report.Success() {
				t.Log("node should have failed")
				return false
			}
			return int(calls.Load()) == retryLimit+1
		},
		gen.IntRange(0, 5),
	))

	properties.Property("a node succeeding on attempt s <= r+1 never consumes the full budget", prop.ForAll(
		func(retryLimit, succeedOn int) bool {
			if succeedOn > retryLimit+1 {
				succeedOn = retryLimit + 1
			}
			var calls atomic.Int32

			graph, err := NewBuilder().
				AddNode("n").
				WithRetryLimit(retryLimit).
				WithValidator(func(output string) bool { return output == "ok" }).
				WithGenerateFunc(func(ctx context.Context, input, userInput string) (string, error) {
					if int(calls.Add(1)) >= succeedOn {
						return "ok", nil
					}
					return "bad", nil
				}).
				Done().
				Build()
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}

			report, err := NewRunner(graph, nil, nil).
				Run(context.Background(), "n", "x", RunOptions{})
			if err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}
			if !report.Success() {
				t.Logf("unexpected failures: %v", report.Failures)
				return false
			}
			return int(calls.Load()) == succeedOn
		},
		gen.IntRange(0, 5),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

func TestProperty_FanOutDeliversIdenticalInputs(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("every fan-out successor receives the same full output", prop.ForAll(
		func(branches int, seed string) bool {
			inputs := make([]atomic.Value, branches)

			builder := NewBuilder().
				AddNode("start").WithGenerateFunc(suffixNode("start")).Done()
			for i := 0; i < branches; i++ {
				i := i
				builder = builder.AddNode(fmt.Sprintf("b%d", i)).
					WithGenerateFunc(func(ctx context.Context, input, userInput string) (string, error) {
						inputs[i].Store(input)
						return input, nil
					}).
					Done()
			}
			for i := 0; i < branches; i++ {
				builder = builder.AddEdge("start", fmt.Sprintf("b%d", i))
			}

			graph, err := builder.Build()
			if err != nil {
				t.Logf("Build failed: %v", err)
				return false
			}
			if _, err := NewRunner(graph, nil, nil).
				Run(context.Background(), "start", seed, RunOptions{}); err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}

			want := seed + "-start"
			for i := 0; i < branches; i++ {
				if inputs[i].Load().(string) != want {
					t.Logf("branch %d received %q, want %q", i, inputs[i].Load(), want)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestDeterministicMergeOrder checks that with DeterministicMerge the join
// input follows declared predecessor order no matter how branch completion
// is interleaved.
func TestDeterministicMergeOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		branches := rapid.IntRange(2, 5).Draw(rt, "branches")
		// Random per-branch release order simulates arbitrary completion
		// interleaving.
		order := rapid.Permutation(seq(branches)).Draw(rt, "order")

		gates := make([]chan struct{}, branches)
		for i := range gates {
			gates[i] = make(chan struct{})
		}
		go func() {
			for _, i := range order {
				close(gates[i])
			}
		}()

		builder := NewBuilder().
			AddNode("start").WithGenerateFunc(passThrough).Done()
		for i := 0; i < branches; i++ {
			i := i
			builder = builder.AddNode(fmt.Sprintf("b%d", i)).
				WithGenerateFunc(func(ctx context.Context, input, userInput string) (string, error) {
					<-gates[i]
					return fmt.Sprintf("out%d", i), nil
				}).
				Done()
		}
		builder = builder.AddNode("join").
			WithExpectedInputs(branches).
			WithGenerateFunc(passThrough).
			Done()
		for i := 0; i < branches; i++ {
			name := fmt.Sprintf("b%d", i)
			builder = builder.AddEdge("start", name).AddEdge(name, "join")
		}

		graph, err := builder.Build()
		if err != nil {
			rt.Fatalf("Build: %v", err)
		}
		report, err := NewRunner(graph, nil, nil).
			Run(context.Background(), "start", "x", RunOptions{DeterministicMerge: true})
		if err != nil {
			rt.Fatalf("Run: %v", err)
		}
		if !report.Success() {
			rt.Fatalf("unexpected failures: %v", report.Failures)
		}

		parts := make([]string, branches)
		for i := 0; i < branches; i++ {
			parts[i] = fmt.Sprintf("out%d", i)
		}
		want := strings.Join(parts, DefaultMergeSeparator)
		if got := report.TerminalResults["join"]; got != want {
			rt.Fatalf("join input %q, want %q (release order %v)", got, want, order)
		}
	})
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
