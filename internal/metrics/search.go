package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and ingest Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neodex",
			Name:      "search_duration_seconds",
			Help:      "Search execution time in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"date_mode"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "neodex",
			Name:      "search_results",
			Help:      "Number of objects returned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neodex",
			Name:      "search_total",
			Help:      "Total searches by outcome",
		},
		[]string{"outcome"}, // "ok" / "timeout" / "error"
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neodex",
			Name:      "search_cache_total",
			Help:      "Search result cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	IngestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neodex",
			Name:      "ingest_rows_total",
			Help:      "Dataset rows ingested",
		},
		[]string{"format"},
	)
)

var registerOnce sync.Once

// Register registers all neodex metrics with the default registry. Must be called once from main;
// later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			httpRequestsInFlight,
			SearchDuration,
			SearchResults,
			SearchTotal,
			SearchCacheTotal,
			IngestRowsTotal,
		)
	})
}
