// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uigen"

var (
	// CommandsTotal counts editor commands by command and outcome (ok, error).
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "editor",
		Name:      "commands_total",
		Help:      "Editor commands executed",
	}, []string{"command", "outcome"})

	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "editor",
		Name:      "command_duration_seconds",
		Help:      "Editor command latency in seconds",
		Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"command"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions currently held in memory",
	})

	// SessionsEvicted counts sessions dropped by the LRU to stay under the cap.
	SessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "evicted_total",
		Help:      "Sessions evicted because the session cap was reached",
	})

	// GenerationSteps counts model turns by provider and stop reason.
	GenerationSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "steps_total",
		Help:      "Model turns taken while generating",
	}, []string{"provider", "stop"})
)

// ObserveCommand records one editor command.
func ObserveCommand(command string, isError bool, elapsed time.Duration) {
	if command == "" {
		command = "invalid"
	}
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	CommandsTotal.WithLabelValues(command, outcome).Inc()
	CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}
