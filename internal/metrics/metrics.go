// Package metrics exposes Prometheus metrics for the launcher core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Instance metrics
	InstanceState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deskhive_instance_state",
			Help: "Instance lifecycle state (1 for the current state, 0 otherwise)",
		},
		[]string{"app", "instance", "state"},
	)

	InstanceMemoryMB = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deskhive_instance_memory_mb",
			Help: "Resident memory of the instance process in megabytes",
		},
		[]string{"app", "instance"},
	)

	InstancesTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deskhive_instances_tracked",
			Help: "Number of instances currently in the registry",
		},
	)

	// Launch metrics
	LaunchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskhive_launch_total",
			Help: "Total launch requests",
		},
		[]string{"app", "outcome"}, // outcome: launched, already_running, adopted, failed
	)

	LaunchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskhive_launch_duration_seconds",
			Help:    "Launch dispatch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0},
		},
		[]string{"app"},
	)

	// Reconciliation metrics
	ReconcileTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deskhive_reconcile_ticks_total",
			Help: "Total reconciliation ticks executed",
		},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskhive_reconcile_duration_seconds",
			Help:    "Reconciliation tick duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskhive_state_transitions_total",
			Help: "Total instance state transitions",
		},
		[]string{"app", "from", "to"},
	)

	// Termination metrics
	TerminationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskhive_termination_total",
			Help: "Total close/kill attempts",
		},
		[]string{"method", "status"}, // method: graceful, forced; status: success, failure
	)

	ShutdownDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskhive_shutdown_duration_seconds",
			Help:    "Mass shutdown duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 5.0, 15.0, 30.0, 60.0},
		},
	)

	// Migration metrics
	MigrationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskhive_migration_total",
			Help: "Total process-identity migration attempts",
		},
		[]string{"app", "status"},
	)
)

// knownStates mirrors the instance state machine for gauge resets.
var knownStates = []string{
	"starting", "running", "active", "minimized",
	"not_responding", "closing", "terminated",
}

// SetInstanceState sets the state gauge for an instance, clearing all
// other state values so exactly one series is 1.
func SetInstanceState(appID, instanceID, state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		InstanceState.WithLabelValues(appID, instanceID, s).Set(v)
	}
}

// ForgetInstance drops all series for a removed instance.
func ForgetInstance(appID, instanceID string) {
	for _, s := range knownStates {
		InstanceState.DeleteLabelValues(appID, instanceID, s)
	}
	InstanceMemoryMB.DeleteLabelValues(appID, instanceID)
}
