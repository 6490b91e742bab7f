package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/firstpixel/agent-workflow/llm"
	"github.com/firstpixel/agent-workflow/llm/retry"
	"github.com/firstpixel/agent-workflow/llm/tokenizer"
	"github.com/firstpixel/agent-workflow/types"
)

// DefaultMergeSeparator joins fan-in inputs presented to a node.
const DefaultMergeSeparator = " | "

// InputPort supplies mid-run human input for nodes marked NeedsUserInput.
// RequestUserInput may block; the runner calls it from the suspended
// node's own bookkeeping path so independent branches keep progressing.
type InputPort interface {
	RequestUserInput(ctx context.Context, node, priorContext string) (string, error)
}

// RunOptions controls one run of a graph.
type RunOptions struct {
	// MaxConcurrency bounds how many node executions run at once.
	// Zero or negative means unbounded; 1 serializes execution in exact
	// FIFO ready order.
	MaxConcurrency int
	// MergeSeparator joins fan-in inputs; empty uses DefaultMergeSeparator.
	MergeSeparator string
	// DeterministicMerge orders fan-in inputs by declared predecessor
	// edge order instead of arrival order, for byte-for-byte reproducible
	// outputs.
	DeterministicMerge bool
	// InputPort supplies values for user-input nodes. When nil and no
	// pre-supplied value exists, such nodes fail with INPUT_REQUIRED.
	InputPort InputPort
	// UserInputs pre-supplies values per node name, consulted before the
	// InputPort.
	UserInputs map[string]string
	// Events observes per-node completion events.
	Events EventHandler
	// RetryPolicy controls the delay between attempts. Nil retries
	// immediately.
	RetryPolicy *retry.Policy
}

// Runner drives runs of a workflow graph. A Runner is reusable and safe
// for concurrent runs: all per-run state lives in the run itself.
type Runner struct {
	graph    *Graph
	provider llm.Provider
	logger   *zap.Logger
	tracer   trace.Tracer
	recorder Recorder
	counter  tokenizer.Counter
}

// NewRunner creates a runner for the graph. The provider may be nil when
// every node carries a generation override.
func NewRunner(graph *Graph, provider llm.Provider, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		graph:    graph,
		provider: provider,
		logger:   logger.With(zap.String("component", "runner")),
		tracer:   otel.Tracer("github.com/firstpixel/agent-workflow/workflow"),
	}
}

// WithRecorder attaches an execution recorder (e.g. the Prometheus
// collector).
func (r *Runner) WithRecorder(rec Recorder) *Runner {
	r.recorder = rec
	return r
}

// WithTokenCounter attaches a token counter used to estimate usage when
// the backend reports none.
func (r *Runner) WithTokenCounter(c tokenizer.Counter) *Runner {
	r.counter = c
	return r
}

// nodeState tracks a node through one run.
type nodeState int

const (
	statePending nodeState = iota
	stateReady
	stateAwaitingInput
	stateFired
	stateFailed
)

// received is one predecessor output delivered to a join node.
type received struct {
	from   string
	output string
}

// completionMsg reports a finished node execution back to the loop.
type completionMsg struct {
	node             string
	output           string
	failure          *types.Error
	attempts         int
	duration         time.Duration
	promptTokens     int
	completionTokens int
}

// inputMsg reports a resolved user-input request back to the loop.
type inputMsg struct {
	node  string
	value string
	err   error
}

type loopMsg struct {
	completion *completionMsg
	input      *inputMsg
}

// run holds the state of one run. All fields are owned by the scheduling
// loop goroutine; worker goroutines communicate through msgCh only, so
// "append input + check readiness + transition" is atomic by construction.
type run struct {
	runner *Runner
	graph  *Graph
	opts   RunOptions
	policy *retry.Policy
	logger *zap.Logger
	runID  string

	state      map[string]nodeState
	inputs     map[string][]received
	userInputs map[string]string
	results    map[string]string
	failures   map[string]*types.Error

	readyQ     []string
	pendingOps int
	executing  int
	msgCh      chan loopMsg
}

// Run executes the graph once from the start node with the initial input.
// Graph-build errors and an unknown start node are returned as errors
// before any node executes; every node-level outcome is represented in
// the returned report, never as an unwound error.
func (r *Runner) Run(ctx context.Context, start, input string, opts RunOptions) (*RunReport, error) {
	if r.graph == nil {
		return nil, types.NewError(types.ErrInvalidNode, "runner has no graph")
	}
	if err := r.graph.Validate(); err != nil {
		return nil, err
	}
	if _, ok := r.graph.Node(start); !ok {
		return nil, types.NewError(types.ErrUnknownNode,
			fmt.Sprintf("start node not registered: %s", start)).WithNode(start)
	}
	if opts.MergeSeparator == "" {
		opts.MergeSeparator = DefaultMergeSeparator
	}
	policy := opts.RetryPolicy
	if policy == nil {
		policy = retry.NoDelay()
	}

	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, span := r.tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("start_node", start),
		))
	defer span.End()

	logger.Info("starting run",
		zap.String("start_node", start),
		zap.Int("nodes", len(r.graph.nodes)),
	)
	startTime := time.Now()

	rn := &run{
		runner:     r,
		graph:      r.graph,
		opts:       opts,
		policy:     policy,
		logger:     logger,
		runID:      runID,
		state:      make(map[string]nodeState, len(r.graph.nodes)),
		inputs:     make(map[string][]received, len(r.graph.nodes)),
		userInputs: make(map[string]string),
		results:    make(map[string]string),
		failures:   make(map[string]*types.Error),
		msgCh:      make(chan loopMsg),
	}
	rn.loop(ctx, start, input)
	rn.markUnreachable(start)

	report := &RunReport{
		RunID:           runID,
		TerminalResults: rn.results,
		Failures:        rn.failures,
		Duration:        time.Since(startTime),
	}

	status := "completed"
	if len(report.Failures) > 0 {
		status = "partial"
	}
	if r.recorder != nil {
		r.recorder.RecordRun(status, report.Duration)
	}
	span.SetAttributes(
		attribute.Int("terminal_results", len(report.TerminalResults)),
		attribute.Int("failed_nodes", len(report.Failures)),
	)
	logger.Info("run finished",
		zap.String("status", status),
		zap.Int("terminal_results", len(report.TerminalResults)),
		zap.Strings("failed_nodes", report.FailedNodes()),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// loop is the scheduling loop: dispatch ready nodes FIFO, then process
// one message. It returns when nothing is ready, awaiting input, or in
// flight.
func (rn *run) loop(ctx context.Context, start, input string) {
	rn.deliver(start, "", input)
	// The seed satisfies the start node's join requirement regardless of
	// its declared arity.
	if rn.state[start] != stateReady {
		rn.markReady(start)
	}

	for {
		for len(rn.readyQ) > 0 && ctx.Err() == nil &&
			(rn.opts.MaxConcurrency <= 0 || rn.executing < rn.opts.MaxConcurrency) {
			name := rn.readyQ[0]
			rn.readyQ = rn.readyQ[1:]
			rn.dispatch(ctx, name)
		}

		if ctx.Err() != nil && rn.pendingOps == 0 {
			for _, name := range rn.readyQ {
				rn.fail(ctx, &completionMsg{
					node: name,
					failure: types.NewError(types.ErrCanceled, "run canceled before node started").
						WithNode(name).WithCause(ctx.Err()),
				})
			}
			rn.readyQ = nil
			return
		}
		if rn.pendingOps == 0 {
			return
		}

		msg := <-rn.msgCh
		rn.pendingOps--
		switch {
		case msg.completion != nil:
			rn.executing--
			if msg.completion.failure != nil {
				rn.fail(ctx, msg.completion)
			} else {
				rn.fire(msg.completion)
			}
		case msg.input != nil:
			rn.resolveInput(ctx, msg.input)
		}
	}
}

// deliver appends a predecessor output to a node's pending inputs and
// promotes the node to ready when its join arity is met. A node that has
// already fired must not be resurrected by late arrivals, and pending
// inputs never grow past the declared arity: a node whose in-degree
// exceeds its arity merges exactly the first expectedInputs arrivals no
// matter how execution interleaves.
func (rn *run) deliver(to, from, output string) {
	switch rn.state[to] {
	case stateFired, stateFailed:
		rn.logger.Warn("ignoring input for finished node",
			zap.String("node", to),
			zap.String("from", from),
		)
		return
	}

	node, _ := rn.graph.Node(to)
	if len(rn.inputs[to]) >= node.expectedInputs() {
		rn.logger.Warn("dropping input beyond join arity",
			zap.String("node", to),
			zap.String("from", from),
			zap.Int("expected_inputs", node.expectedInputs()),
		)
		return
	}
	rn.inputs[to] = append(rn.inputs[to], received{from: from, output: output})

	if rn.state[to] == statePending && len(rn.inputs[to]) == node.expectedInputs() {
		rn.markReady(to)
	}
}

func (rn *run) markReady(name string) {
	rn.state[name] = stateReady
	rn.readyQ = append(rn.readyQ, name)
}

// segments returns the node's received inputs in presentation order.
func (rn *run) segments(name string) []string {
	pairs := rn.inputs[name]
	node, _ := rn.graph.Node(name)

	if rn.opts.DeterministicMerge && node.expectedInputs() > 1 {
		ordered := make([]string, 0, len(pairs))
		// Seed inputs first, then declared predecessor order.
		for _, p := range pairs {
			if p.from == "" {
				ordered = append(ordered, p.output)
			}
		}
		for _, pred := range rn.graph.Predecessors(name) {
			for _, p := range pairs {
				if p.from == pred {
					ordered = append(ordered, p.output)
				}
			}
		}
		return ordered
	}

	outputs := make([]string, len(pairs))
	for i, p := range pairs {
		outputs[i] = p.output
	}
	return outputs
}

// dispatch starts a ready node: resolve user input if required, then hand
// the execution to a worker goroutine.
func (rn *run) dispatch(ctx context.Context, name string) {
	node, _ := rn.graph.Node(name)

	if node.NeedsUserInput {
		if _, resolved := rn.userInputs[name]; !resolved {
			if v, ok := rn.opts.UserInputs[name]; ok {
				rn.userInputs[name] = v
			} else if rn.opts.InputPort == nil {
				rn.fail(ctx, &completionMsg{
					node:    name,
					failure: types.NewInputRequiredError(name),
				})
				return
			} else {
				rn.awaitInput(ctx, name)
				return
			}
		}
	}

	segments := rn.segments(name)
	merged := strings.Join(segments, rn.opts.MergeSeparator)
	userInput := rn.userInputs[name]

	rn.pendingOps++
	rn.executing++
	rn.state[name] = stateReady
	go func() {
		rn.msgCh <- loopMsg{completion: rn.runner.executeNode(ctx, node, execSpec{
			segments:  segments,
			merged:    merged,
			userInput: userInput,
			separator: rn.opts.MergeSeparator,
			policy:    rn.policy,
			runID:     rn.runID,
		})}
	}()
}

// awaitInput suspends only this node on the interactive port. The port
// call runs in its own goroutine and does not count against the
// generation concurrency limit, so sibling branches keep executing.
func (rn *run) awaitInput(ctx context.Context, name string) {
	rn.state[name] = stateAwaitingInput
	prior := strings.Join(rn.segments(name), rn.opts.MergeSeparator)
	rn.emit(Event{
		Type:   EventNodeAwaitingInput,
		RunID:  rn.runID,
		Node:   name,
		Inputs: rn.segments(name),
	})
	rn.logger.Info("node awaiting user input", zap.String("node", name))

	rn.pendingOps++
	port := rn.opts.InputPort
	go func() {
		value, err := port.RequestUserInput(ctx, name, prior)
		rn.msgCh <- loopMsg{input: &inputMsg{node: name, value: value, err: err}}
	}()
}

// resolveInput processes an answered (or failed) user-input request.
func (rn *run) resolveInput(ctx context.Context, msg *inputMsg) {
	if msg.err != nil {
		failure := types.NewInputRequiredError(msg.node).WithCause(msg.err)
		if ctx.Err() != nil {
			failure = types.NewError(types.ErrCanceled, "run canceled while awaiting user input").
				WithNode(msg.node).WithCause(ctx.Err())
		}
		rn.fail(ctx, &completionMsg{node: msg.node, failure: failure})
		return
	}
	rn.userInputs[msg.node] = msg.value
	rn.markReady(msg.node)
}

// fire records a successful node execution and routes its output to every
// declared successor; a node with no successors is terminal.
func (rn *run) fire(msg *completionMsg) {
	rn.state[msg.node] = stateFired
	rn.emit(Event{
		Type:             EventNodeCompleted,
		RunID:            rn.runID,
		Node:             msg.node,
		Inputs:           rn.segments(msg.node),
		Output:           msg.output,
		Attempts:         msg.attempts,
		Duration:         msg.duration,
		PromptTokens:     msg.promptTokens,
		CompletionTokens: msg.completionTokens,
	})
	if rn.runner.recorder != nil {
		rn.runner.recorder.RecordNodeExecution(msg.node, "completed", msg.duration, msg.attempts)
	}

	successors := rn.graph.Successors(msg.node)
	if len(successors) == 0 {
		rn.results[msg.node] = msg.output
		return
	}
	for _, succ := range successors {
		rn.deliver(succ, msg.node, msg.output)
	}
}

// fail records a node failure. Failures are local: sibling branches keep
// running, and dependent joins are reported unreachable after the run.
func (rn *run) fail(ctx context.Context, msg *completionMsg) {
	rn.state[msg.node] = stateFailed
	rn.failures[msg.node] = msg.failure
	rn.emit(Event{
		Type:     EventNodeFailed,
		RunID:    rn.runID,
		Node:     msg.node,
		Inputs:   rn.segments(msg.node),
		Err:      msg.failure,
		Attempts: msg.attempts,
		Duration: msg.duration,
	})
	if rn.runner.recorder != nil {
		rn.runner.recorder.RecordNodeExecution(msg.node, "failed", msg.duration, msg.attempts)
	}
	rn.logger.Warn("node failed",
		zap.String("node", msg.node),
		zap.Int("attempts", msg.attempts),
		zap.Error(msg.failure),
	)
}

// markUnreachable reports every node reachable from the start that never
// fired and never failed: its join requirement can no longer be met.
func (rn *run) markUnreachable(start string) {
	reachable := rn.graph.reachableFrom(start)
	for _, name := range rn.graph.Nodes() {
		if !reachable[name] {
			continue
		}
		switch rn.state[name] {
		case stateFired, stateFailed:
		default:
			rn.failures[name] = types.NewUnreachableNodeError(name)
		}
	}
}

func (rn *run) emit(ev Event) {
	if rn.opts.Events != nil {
		rn.opts.Events(ev)
	}
}

// errValidationFailed marks an attempt whose output failed the node's
// validator.
var errValidationFailed = errors.New("output failed validation")

// execSpec carries the per-execution inputs a worker needs.
type execSpec struct {
	segments  []string
	merged    string
	userInput string
	separator string
	policy    *retry.Policy
	runID     string
}

// executeNode runs a node's attempt loop off the scheduling loop. It
// touches no run state and reports back through a completionMsg.
func (r *Runner) executeNode(ctx context.Context, node *Node, spec execSpec) *completionMsg {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "workflow.node",
		trace.WithAttributes(
			attribute.String("run_id", spec.runID),
			attribute.String("node", node.Name),
		))
	defer span.End()

	// The user-supplied value joins the upstream input before generation.
	genInput := spec.merged
	if node.NeedsUserInput && spec.userInput != "" {
		if genInput == "" {
			genInput = spec.userInput
		} else {
			genInput = genInput + spec.separator + spec.userInput
		}
	}

	var (
		lastErr    error
		lastOutput string
		attempts   int
	)
	for attempt := 1; attempt <= node.maxAttempts(); attempt++ {
		if attempt > 1 {
			if err := spec.policy.Wait(ctx, attempt-1); err != nil {
				break
			}
		}
		attempts = attempt

		output, promptTokens, completionTokens, err := r.attempt(ctx, node, genInput, spec.userInput)
		if err == nil {
			if node.Validator != nil && !node.Validator(output) {
				lastErr = errValidationFailed
				lastOutput = output
				r.logger.Debug("attempt failed validation",
					zap.String("node", node.Name),
					zap.Int("attempt", attempt),
				)
				continue
			}
			if r.counter != nil {
				if promptTokens == 0 {
					promptTokens, _ = r.counter.CountTokens(genInput)
				}
				if completionTokens == 0 {
					completionTokens, _ = r.counter.CountTokens(output)
				}
			}
			span.SetAttributes(attribute.Int("attempts", attempt))
			return &completionMsg{
				node:             node.Name,
				output:           output,
				attempts:         attempt,
				duration:         time.Since(start),
				promptTokens:     promptTokens,
				completionTokens: completionTokens,
			}
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if te, ok := err.(*types.Error); ok && !te.Retryable {
			break
		}
	}

	return &completionMsg{
		node:     node.Name,
		attempts: attempts,
		duration: time.Since(start),
		failure:  r.classifyFailure(ctx, node, lastErr, lastOutput, attempts),
	}
}

// attempt performs one generation attempt, applying the node's timeout.
func (r *Runner) attempt(ctx context.Context, node *Node, input, userInput string) (string, int, int, error) {
	actx := ctx
	if node.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, node.Timeout)
		defer cancel()
	}

	if node.Generate != nil {
		output, err := node.Generate(actx, input, userInput)
		if err != nil {
			return "", 0, 0, r.mapAttemptError(ctx, actx, node, err)
		}
		return output, 0, 0, nil
	}

	if r.provider == nil {
		return "", 0, 0, types.NewError(types.ErrGeneration,
			"no generation provider configured").WithNode(node.Name)
	}
	resp, err := r.provider.Generate(actx, &llm.GenerateRequest{
		System: node.System,
		Prompt: node.Prompt,
		Input:  input,
		Model:  node.Model,
	})
	if err != nil {
		return "", 0, 0, r.mapAttemptError(ctx, actx, node, err)
	}
	return resp.Output, resp.PromptTokens, resp.CompletionTokens, nil
}

// mapAttemptError turns an attempt timeout into a retryable TIMEOUT error
// so it consumes exactly one attempt; other errors pass through.
func (r *Runner) mapAttemptError(ctx, actx context.Context, node *Node, err error) error {
	if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return types.NewError(types.ErrTimeout,
			fmt.Sprintf("attempt exceeded timeout %s", node.Timeout)).
			WithNode(node.Name).
			WithRetryable(true).
			WithCause(err)
	}
	return err
}

// classifyFailure maps the final attempt error to the reported failure.
func (r *Runner) classifyFailure(ctx context.Context, node *Node, lastErr error, lastOutput string, attempts int) *types.Error {
	switch {
	case errors.Is(lastErr, errValidationFailed):
		return types.NewValidationExhaustedError(node.Name, attempts, lastOutput)
	case ctx.Err() != nil:
		cause := lastErr
		if cause == nil {
			cause = ctx.Err()
		}
		return types.NewError(types.ErrCanceled, "run canceled").
			WithNode(node.Name).WithCause(cause)
	case lastErr == nil:
		return types.NewError(types.ErrCanceled, "run stopped before any attempt").
			WithNode(node.Name)
	default:
		var te *types.Error
		if errors.As(lastErr, &te) {
			if te.Node == node.Name {
				return te
			}
			// Callers may reuse one error value across nodes; attribute
			// on a copy so the original is never written to.
			clone := *te
			clone.Node = node.Name
			return &clone
		}
		return types.NewGenerationError(node.Name, lastErr)
	}
}
