// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_queries_processed_total",
			Help: "Total number of utterances processed, by resolved intent",
		},
		[]string{"intent"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_query_errors_total",
			Help: "Total number of queries rejected, by error code",
		},
		[]string{"error_code"},
	)

	NarrationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_narration_fallbacks_total",
			Help: "Total number of responses rendered by the fallback formatter",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_result_cache_hits_total",
			Help: "Total number of query results served from the cache",
		},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "insights_query_duration_seconds",
			Help: "Duration of utterance processing in seconds",
		},
		[]string{"intent"},
	)
)
