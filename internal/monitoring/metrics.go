package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	QueriesTotal  *prometheus.CounterVec
	FetchesTotal  *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	CacheHits     prometheus.Counter
	QueryDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finder_queries_total",
			Help: "The total number of queries resolved, by answering source",
		}, []string{"source"}), // e.g. 'primary', 'sitemap', 'local', 'cache'
		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finder_fetches_total",
			Help: "The total number of page fetches issued, by pipeline stage",
		}, []string{"stage"}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finder_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'fetch_timeout', 'fetch_failed', 'history_save_failed'
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finder_cache_hits_total",
			Help: "The total number of queries served from cache",
		}),
		QueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finder_query_duration_seconds",
			Help:    "Wall-clock time spent resolving a query",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncQueries(source string) {
	m.QueriesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncFetches(stage string) {
	m.FetchesTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncErrors(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
