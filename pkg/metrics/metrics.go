// Package metrics defines the Prometheus collectors used by the wordsmith
// services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitedTotal     prometheus.Counter

	SearchQueriesTotal       *prometheus.CounterVec
	SearchLatency            *prometheus.HistogramVec
	SearchEngineLatency      prometheus.Histogram
	SearchPartitionsExplored prometheus.Histogram
	SearchPhrasesEmitted     prometheus.Histogram
	SearchVariants           prometheus.Histogram
	SearchTruncatedTotal     *prometheus.CounterVec

	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec

	DictionaryWords          prometheus.Gauge
	DictionaryPronunciations prometheus.Gauge
	IndexBuckets             prometheus.Gauge
	IndexHomophoneGroups     prometheus.Gauge

	AnalyticsEventsTotal *prometheus.CounterVec
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homophone_queries_total",
				Help: "Homophone queries by outcome (match, no_match, truncated, unknown_word, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homophone_query_latency_seconds",
				Help:    "End-to-end homophone query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"cache_status"},
		),
		SearchEngineLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homophone_engine_seconds",
				Help:    "Time spent enumerating partitions for one query.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		SearchPartitionsExplored: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homophone_partitions_explored",
				Help:    "Partitions examined per query across all pronunciation variants.",
				Buckets: prometheus.ExponentialBuckets(1, 8, 10),
			},
		),
		SearchPhrasesEmitted: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homophone_phrases_emitted",
				Help:    "Phrases returned per query.",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
			},
		),
		SearchVariants: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homophone_pronunciation_variants",
				Help:    "Full-sentence pronunciation variants per query.",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
			},
		),
		SearchTruncatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homophone_truncated_total",
				Help: "Queries cut short by a work budget, by reason.",
			},
			[]string{"reason"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		DictionaryWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dictionary_words",
				Help: "Words in the loaded pronouncing dictionary.",
			},
		),
		DictionaryPronunciations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dictionary_pronunciations",
				Help: "Word/pronunciation pairs in the loaded dictionary.",
			},
		),
		IndexBuckets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_pronunciation_buckets",
				Help: "Distinct pronunciations in the inverted index.",
			},
		),
		IndexHomophoneGroups: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_homophone_groups",
				Help: "Pronunciations shared by two or more words.",
			},
		),
		AnalyticsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_total",
				Help: "Search events handled by the analytics pipeline, by status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RateLimitedTotal,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchEngineLatency,
		m.SearchPartitionsExplored,
		m.SearchPhrasesEmitted,
		m.SearchVariants,
		m.SearchTruncatedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CircuitBreakerState,
		m.DictionaryWords,
		m.DictionaryPronunciations,
		m.IndexBuckets,
		m.IndexHomophoneGroups,
		m.AnalyticsEventsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
