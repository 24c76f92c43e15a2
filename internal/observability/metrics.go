package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment pipeline.
type Metrics struct {
	RowsEnriched prometheus.Counter
	RowsFailed   prometheus.Counter
	ServiceReady prometheus.Gauge

	// Batch metrics.
	BatchSize     prometheus.Histogram
	BatchDuration prometheus.Histogram

	// Weather endpoint metrics.
	EndpointRequests *prometheus.CounterVec   // labels: endpoint={forecast,marine,ocean}, outcome={success,error}
	EndpointDuration *prometheus.HistogramVec // labels: endpoint
	CacheLookups     *prometheus.CounterVec   // labels: endpoint, result={hit,miss}

	// Kafka sink metrics.
	SinkMessages prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsEnriched,
		m.RowsFailed,
		m.ServiceReady,
		m.BatchSize,
		m.BatchDuration,
		m.EndpointRequests,
		m.EndpointDuration,
		m.CacheLookups,
		m.SinkMessages,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_enrich",
			Name:      "rows_enriched_total",
			Help:      "Total input rows that completed enrichment, including soft failures.",
		}),
		RowsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_enrich",
			Name:      "rows_failed_total",
			Help:      "Total rows that carry a row-level error.",
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "marine_enrich",
			Name:      "service_ready",
			Help:      "1 once the service has completed at least one batch.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marine_enrich",
			Name:      "batch_size",
			Help:      "Number of input rows per enrichment batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marine_enrich",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete batch enrichment.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		EndpointRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_enrich",
			Name:      "endpoint_requests_total",
			Help:      "Weather API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		EndpointDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marine_enrich",
			Name:      "endpoint_request_duration_seconds",
			Help:      "Weather API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"endpoint"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_enrich",
			Name:      "cache_lookups_total",
			Help:      "Weather sample cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		SinkMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_enrich",
			Name:      "sink_messages_total",
			Help:      "Enriched rows published to the Kafka sink topic.",
		}),
	}
}
