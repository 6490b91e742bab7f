// Command agent-workflow runs a text-generation workflow graph against a
// local Ollama backend.
//
// Usage:
//
//	agent-workflow run --input "build a todo app"   # run the demo pipeline
//	agent-workflow run --config config.yaml --interactive
//	agent-workflow version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/firstpixel/agent-workflow/config"
	"github.com/firstpixel/agent-workflow/hitl"
	"github.com/firstpixel/agent-workflow/internal/metrics"
	"github.com/firstpixel/agent-workflow/internal/telemetry"
	"github.com/firstpixel/agent-workflow/llm"
	"github.com/firstpixel/agent-workflow/llm/ollama"
	"github.com/firstpixel/agent-workflow/llm/tokenizer"
	"github.com/firstpixel/agent-workflow/types"
	"github.com/firstpixel/agent-workflow/workflow"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runWorkflow(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runWorkflow(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	input := fs.String("input", "", "Initial input seeding the start node")
	interactive := fs.Bool("interactive", false, "Answer user-input nodes from stdin")
	_ = fs.Parse(args)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "run requires --input")
		fs.Usage()
		os.Exit(1)
	}

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	var provider llm.Provider = ollama.New(ollama.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Timeout: cfg.Ollama.Timeout,
	}, logger)
	if cfg.Ollama.RateLimitRPS > 0 {
		provider = llm.RateLimited(provider, cfg.Ollama.RateLimitRPS, cfg.Ollama.RateLimitBurst)
	}

	graph, err := buildDemoGraph(cfg)
	if err != nil {
		logger.Fatal("failed to build workflow graph", zap.Error(err))
	}

	opts := workflow.RunOptions{
		MaxConcurrency:     cfg.Engine.MaxConcurrency,
		MergeSeparator:     cfg.Engine.MergeSeparator,
		DeterministicMerge: cfg.Engine.DeterministicMerge,
		Events: func(ev workflow.Event) {
			switch ev.Type {
			case workflow.EventNodeCompleted:
				logger.Info("node completed",
					zap.String("node", ev.Node),
					zap.Int("attempts", ev.Attempts),
					zap.Duration("duration", ev.Duration),
					zap.Int("prompt_tokens", ev.PromptTokens),
					zap.Int("completion_tokens", ev.CompletionTokens),
				)
			case workflow.EventNodeFailed:
				logger.Warn("node failed",
					zap.String("node", ev.Node),
					zap.Error(ev.Err),
				)
			case workflow.EventNodeAwaitingInput:
				logger.Info("node awaiting input", zap.String("node", ev.Node))
			}
		},
	}
	inputPort, portCleanup := buildInputPort(cfg, *interactive, logger)
	defer portCleanup()
	opts.InputPort = inputPort

	collector := metrics.NewCollector("agentworkflow", prometheus.DefaultRegisterer, logger)
	runner := workflow.NewRunner(graph, provider, logger).
		WithRecorder(collector).
		WithTokenCounter(tokenizer.NewTiktoken(""))

	report, err := runner.Run(ctx, "clarify", *input, opts)
	if err != nil {
		logger.Fatal("run failed to start", zap.Error(err))
	}

	for node, output := range report.TerminalResults {
		fmt.Printf("=== %s ===\n%s\n", node, output)
	}
	if !report.Success() {
		for _, node := range report.FailedNodes() {
			fmt.Fprintf(os.Stderr, "node %s failed: %v\n", node, report.Failures[node])
		}
		os.Exit(1)
	}
}

// buildInputPort selects how user-input nodes get answered: stdin when
// interactive, the Redis-backed broker when hitl.store is redis (so an
// operator in another process can answer via the shared store), and no
// port otherwise, failing such nodes with INPUT_REQUIRED.
func buildInputPort(cfg *config.Config, interactive bool, logger *zap.Logger) (workflow.InputPort, func()) {
	if interactive {
		return hitl.NewReaderPort(os.Stdin, os.Stderr), func() {}
	}
	if cfg.Hitl.Store != "redis" {
		return nil, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	store := hitl.NewRedisStore(client, cfg.Hitl.RequestTTL, logger)
	broker := hitl.NewBroker(store, logger).
		WithTimeout(cfg.Hitl.AnswerTimeout).
		WithPollInterval(cfg.Hitl.PollInterval)

	correlationID := uuid.NewString()
	logger.Info("user-input requests answerable via redis",
		zap.String("correlation_id", correlationID),
		zap.String("redis_addr", cfg.Redis.Addr),
	)
	return broker.Port(correlationID), func() { _ = client.Close() }
}

// buildDemoGraph assembles the clarify -> design -> tasks pipeline.
func buildDemoGraph(cfg *config.Config) (*workflow.Graph, error) {
	model := types.ModelConfig{Model: cfg.Ollama.Model, Temperature: 0.7}

	return workflow.NewBuilder().
		AddNode("clarify").
		WithSystem("You are a requirements analyst. Restate the user's request as a clear, unambiguous problem statement.").
		WithPrompt("Clarify the following request:").
		WithModel(model).
		WithRetryLimit(cfg.Engine.DefaultRetryLimit).
		WithTimeout(cfg.Engine.DefaultNodeTimeout).
		Done().
		AddNode("design").
		WithSystem("You are a software architect. Produce a concise design for the clarified problem.").
		WithPrompt("Design a solution for:").
		WithModel(model).
		WithRetryLimit(cfg.Engine.DefaultRetryLimit).
		WithTimeout(cfg.Engine.DefaultNodeTimeout).
		Done().
		AddNode("tasks").
		WithSystem("You are a project planner. Break the design into an ordered list of implementation tasks.").
		WithPrompt("List the implementation tasks for:").
		WithModel(model).
		WithRetryLimit(cfg.Engine.DefaultRetryLimit).
		WithTimeout(cfg.Engine.DefaultNodeTimeout).
		WithValidator(func(output string) bool { return len(output) > 0 }).
		Done().
		AddEdge("clarify", "design").
		AddEdge("design", "tasks").
		Build()
}

func printVersion() {
	fmt.Printf("agent-workflow %s\n", Version)
	fmt.Printf("  build time: %s\n", BuildTime)
	fmt.Printf("  git commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`agent-workflow - directed workflow execution for text-generation agents

Usage:
  agent-workflow run --input TEXT [--config FILE] [--interactive]
  agent-workflow version
  agent-workflow help`)
}
