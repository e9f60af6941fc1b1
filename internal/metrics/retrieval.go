// Package metrics holds the Prometheus collectors for the retrieval core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	PipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Name:      "pipeline_requests_total",
			Help:      "Total number of retrieval pipeline runs",
		},
		[]string{"complexity", "outcome"}, // outcome: "ok" / "cached" / "error"
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inkwell",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	PipelineStageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Name:      "pipeline_stage_errors_total",
			Help:      "Total pipeline failures by stage",
		},
		[]string{"stage"},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Name:      "response_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ResponseCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Name:      "response_cache_evictions_total",
			Help:      "Response cache LRU evictions",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Name:      "search_requests_total",
			Help:      "Total search backend invocations",
		},
		[]string{"backend", "status"}, // backend: "vector" / "structured"
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inkwell",
			Name:      "search_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"},
	)

	SearchFallbackDepth = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inkwell",
			Name:      "search_fallback_depth",
			Help:      "How deep the structured fallback chain went (0 = strict match)",
			Buckets:   []float64{0, 1, 2},
		},
		[]string{"variant"},
	)

	SubQuestionBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Name:      "subquestion_batches_total",
			Help:      "Total sub-question batches processed",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers pipeline metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRequestsTotal)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineStageErrorsTotal)
	prometheus.MustRegister(ResponseCacheTotal)
	prometheus.MustRegister(ResponseCacheEvictionsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(SearchFallbackDepth)
	prometheus.MustRegister(SubQuestionBatchesTotal)
	retrievalMetricsRegistered = true
}
