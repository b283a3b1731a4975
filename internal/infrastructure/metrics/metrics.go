package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Clip-API Metrics
var (
	// Ingest outcome counter
	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clip",
			Subsystem: "api",
			Name:      "ingests_total",
			Help:      "Total ingest attempts by outcome",
		},
		[]string{"status"},
	)

	// Pipeline stage duration histogram
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clip",
			Subsystem: "api",
			Name:      "stage_duration_seconds",
			Help:      "Ingest pipeline stage duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	// Object store operation counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clip",
			Subsystem: "api",
			Name:      "storage_operations_total",
			Help:      "Total object store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Compensation counter
	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clip",
			Subsystem: "api",
			Name:      "compensations_total",
			Help:      "Total compensating actions run on ingest abort",
		},
		[]string{"action", "status"},
	)

	// Result cache counters
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clip",
			Subsystem: "api",
			Name:      "cache_hits_total",
			Help:      "Result cache hits",
		},
	)
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clip",
			Subsystem: "api",
			Name:      "cache_misses_total",
			Help:      "Result cache misses, including stale invalidations",
		},
	)
)

// RecordIngest records an ingest outcome ("success", "degraded" or the
// failing error kind).
func RecordIngest(status string) {
	IngestsTotal.WithLabelValues(status).Inc()
}

// RecordStage records a pipeline stage duration.
func RecordStage(stage string, durationSec float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSec)
}

// RecordStorageOperation records an object store operation.
func RecordStorageOperation(backend, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

// RecordCompensation records one compensating action.
func RecordCompensation(action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CompensationsTotal.WithLabelValues(action, status).Inc()
}
