// Package observability owns the run's Prometheus metrics. Runs are
// batch jobs, so metrics land in a node-exporter textfile instead of a
// scrape endpoint.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cictl",
			Name:      "tasks_total",
			Help:      "Task executions by directory, task, and outcome.",
		},
		[]string{"dir", "task", "outcome"},
	)
	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cictl",
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of task subprocesses.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"task"},
	)
	directoriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cictl",
			Name:      "directories_total",
			Help:      "Package directories processed by outcome.",
		},
		[]string{"outcome"},
	)
	runInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cictl",
			Name:      "run_info",
			Help:      "Constant gauge carrying the run's identifying labels.",
		},
		[]string{"event", "strategy"},
	)
)

var registerOnce sync.Once

// Register installs the metric vectors on the default registerer.
// Subsequent calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(tasksTotal, taskDuration, directoriesTotal, runInfo)
	})
}

// ObserveTask records one task execution.
func ObserveTask(dir, task string, d time.Duration, ok bool) {
	tasksTotal.WithLabelValues(dir, task, outcome(ok)).Inc()
	taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

// ObserveDirectory records a finished package directory.
func ObserveDirectory(ok bool) {
	directoriesTotal.WithLabelValues(outcome(ok)).Inc()
}

// SetRunInfo pins the run's identifying labels.
func SetRunInfo(event, strategy string) {
	runInfo.WithLabelValues(event, strategy).Set(1)
}

// WriteTextfile dumps the default gatherer to path in the textfile
// collector format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("observability: write metrics: %w", err)
	}
	return nil
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
