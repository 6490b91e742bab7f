package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/firstpixel/agent-workflow/testutil"
	"github.com/firstpixel/agent-workflow/workflow"
)

func TestCollectorRecordsNodeExecutions(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("agentworkflow", reg, nil)

	c.RecordNodeExecution("clarify", "completed", 120*time.Millisecond, 1)
	c.RecordNodeExecution("clarify", "completed", 80*time.Millisecond, 2)
	c.RecordNodeExecution("design", "failed", 50*time.Millisecond, 3)

	got := promtestutil.ToFloat64(c.nodeExecutionsTotal.WithLabelValues("clarify", "completed"))
	if got != 2 {
		t.Fatalf("clarify completed count = %v, want 2", got)
	}
	got = promtestutil.ToFloat64(c.nodeExecutionsTotal.WithLabelValues("design", "failed"))
	if got != 1 {
		t.Fatalf("design failed count = %v, want 1", got)
	}
}

func TestCollectorRecordsRuns(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("agentworkflow", reg, nil)

	c.RecordRun("completed", time.Second)
	c.RecordRun("partial", 2*time.Second)
	c.RecordRun("partial", 3*time.Second)

	if got := promtestutil.ToFloat64(c.runsTotal.WithLabelValues("partial")); got != 2 {
		t.Fatalf("partial run count = %v, want 2", got)
	}
	if got := promtestutil.ToFloat64(c.runsTotal.WithLabelValues("completed")); got != 1 {
		t.Fatalf("completed run count = %v, want 1", got)
	}
}

func TestCollectorObservesRunnerExecution(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("agentworkflow", reg, testutil.Logger(t))

	graph, err := workflow.NewBuilder().
		AddNode("a").
		WithGenerateFunc(func(ctx context.Context, input, userInput string) (string, error) {
			return input + "-a", nil
		}).
		Done().
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	report, err := workflow.NewRunner(graph, nil, testutil.Logger(t)).
		WithRecorder(c).
		Run(context.Background(), "a", "x", workflow.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Success() {
		t.Fatalf("failures: %v", report.Failures)
	}

	if got := promtestutil.ToFloat64(c.nodeExecutionsTotal.WithLabelValues("a", "completed")); got != 1 {
		t.Fatalf("node execution count = %v, want 1", got)
	}
	if got := promtestutil.ToFloat64(c.runsTotal.WithLabelValues("completed")); got != 1 {
		t.Fatalf("run count = %v, want 1", got)
	}
}
