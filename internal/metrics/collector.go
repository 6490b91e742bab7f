// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records workflow execution metrics. It implements the
// workflow Recorder interface.
type Collector struct {
	nodeExecutionsTotal   *prometheus.CounterVec
	nodeExecutionDuration *prometheus.HistogramVec
	nodeAttempts          *prometheus.HistogramVec

	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector registering with reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.nodeExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Total number of node executions by final status",
		},
		[]string{"node", "status"},
	)

	c.nodeExecutionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_execution_duration_seconds",
			Help:      "Node execution duration in seconds, all attempts included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node"},
	)

	c.nodeAttempts = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_attempts",
			Help:      "Generation attempts consumed per node execution",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13},
		},
		[]string{"node"},
	)

	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of workflow runs by final status",
		},
		[]string{"status"},
	)

	c.runDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 3, 10),
		},
	)

	return c
}

// RecordNodeExecution records one finished node execution.
func (c *Collector) RecordNodeExecution(node, status string, d time.Duration, attempts int) {
	c.nodeExecutionsTotal.WithLabelValues(node, status).Inc()
	c.nodeExecutionDuration.WithLabelValues(node).Observe(d.Seconds())
	if attempts > 0 {
		c.nodeAttempts.WithLabelValues(node).Observe(float64(attempts))
	}
}

// RecordRun records one finished workflow run.
func (c *Collector) RecordRun(status string, d time.Duration) {
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(d.Seconds())
	c.logger.Debug("run recorded",
		zap.String("status", status),
		zap.Duration("duration", d),
	)
}
