package orchestrator

import "github.com/prometheus/client_golang/prometheus"

// StepTotal counts each step phase attempt, labeled by outcome, per
// spec.md §4.2 ("each step emits (step_name, phase, success) to a
// counter").
var StepTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "xcordhub",
		Subsystem: "orchestrator",
		Name:      "step_total",
		Help:      "Count of pipeline step phase attempts by outcome.",
	},
	[]string{"step", "phase", "success"},
)

// PipelineDurationSeconds observes wall-clock time for a full pipeline run
// that completes successfully.
var PipelineDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "xcordhub",
		Subsystem: "orchestrator",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of a completed provisioning or destruction pipeline run.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	[]string{"pipeline"},
)

// ObjectStoreFallbackTotal counts ProvisionObjectStore runs that fell back
// to root object-store credentials because per-instance principal creation
// failed (SPEC_FULL.md's loud-fallback decision for this open question).
var ObjectStoreFallbackTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "xcordhub",
		Subsystem: "orchestrator",
		Name:      "object_store_fallback_total",
		Help:      "Count of ProvisionObjectStore runs that fell back to root credentials.",
	},
)

// Collectors returns every metric this package defines, for registration
// with a *prometheus.Registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{StepTotal, PipelineDurationSeconds, ObjectStoreFallbackTotal}
}
