// Package metrics provides Prometheus metrics for engagesim.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SeriesGenerated counts generated variant datasets.
	SeriesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagesim",
			Name:      "series_generated_total",
			Help:      "Total number of generated variant datasets",
		},
		[]string{"variant", "status"},
	)

	// GeneratedPoints counts generated hourly records.
	GeneratedPoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagesim",
			Name:      "generated_points_total",
			Help:      "Total number of generated hourly records",
		},
		[]string{"variant"},
	)

	// EvaluationsTotal counts evaluations by outcome.
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagesim",
			Name:      "evaluations_total",
			Help:      "Total number of forecast evaluations",
		},
		[]string{"variant", "metric", "status"},
	)

	// EvaluationDuration measures fit-and-forecast plus scoring time.
	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "engagesim",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of forecast evaluations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	// ForecastMAE holds the latest mean absolute error.
	ForecastMAE = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "engagesim",
			Name:      "forecast_mae",
			Help:      "Mean absolute error of the latest evaluation",
		},
		[]string{"variant", "metric"},
	)

	// ForecastRMSE holds the latest root mean squared error.
	ForecastRMSE = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "engagesim",
			Name:      "forecast_rmse",
			Help:      "Root mean squared error of the latest evaluation",
		},
		[]string{"variant", "metric"},
	)

	// IntervalCoverage holds the share of actuals inside the forecast interval.
	IntervalCoverage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "engagesim",
			Name:      "interval_coverage_ratio",
			Help:      "Share of actual values inside the forecast interval",
		},
		[]string{"variant", "metric"},
	)

	// StoreOperations counts persistence calls by backend.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagesim",
			Name:      "store_operations_total",
			Help:      "Total number of series store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// CacheRequests counts series cache lookups.
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagesim",
			Name:      "cache_requests_total",
			Help:      "Total number of series cache lookups",
		},
		[]string{"result"},
	)
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RecordGeneration records one variant generation.
func RecordGeneration(variant string, points int, err error) {
	if err != nil {
		SeriesGenerated.WithLabelValues(variant, StatusError).Inc()
		return
	}
	SeriesGenerated.WithLabelValues(variant, StatusOK).Inc()
	GeneratedPoints.WithLabelValues(variant).Add(float64(points))
}

// RecordEvaluation records a successful evaluation and its accuracy.
func RecordEvaluation(variant, metric string, mae, rmse, coverage, duration float64) {
	EvaluationsTotal.WithLabelValues(variant, metric, StatusOK).Inc()
	EvaluationDuration.WithLabelValues(variant).Observe(duration)
	ForecastMAE.WithLabelValues(variant, metric).Set(mae)
	ForecastRMSE.WithLabelValues(variant, metric).Set(rmse)
	IntervalCoverage.WithLabelValues(variant, metric).Set(coverage)
}

// RecordEvaluationFailure records an evaluation that produced a failed entry.
func RecordEvaluationFailure(variant, metric string, duration float64) {
	EvaluationsTotal.WithLabelValues(variant, metric, StatusError).Inc()
	EvaluationDuration.WithLabelValues(variant).Observe(duration)
}

// RecordStore records a store operation.
func RecordStore(backend, operation string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	StoreOperations.WithLabelValues(backend, operation, status).Inc()
}

// RecordCacheHit records a cache hit.
func RecordCacheHit() {
	CacheRequests.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() {
	CacheRequests.WithLabelValues("miss").Inc()
}
