package httpapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal        *prometheus.CounterVec
	ResolutionsTotal     *prometheus.CounterVec
	ProviderFetchesTotal *prometheus.CounterVec
	ResolutionDuration   prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	SearchesTotal        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunebridge_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"endpoint", "status"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunebridge_resolutions_total",
				Help: "Total number of stream resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ProviderFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunebridge_provider_fetches_total",
				Help: "Total number of upstream provider fetches",
			},
			[]string{"provider", "status"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tunebridge_resolution_duration_seconds",
				Help:    "Time spent resolving a stream URL",
				Buckets: prometheus.DefBuckets,
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunebridge_cache_hits_total",
				Help: "Total number of resolution cache hits",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunebridge_searches_total",
				Help: "Total number of search operations",
			},
			[]string{"kind", "status"},
		),
	}

	metrics.registry.MustRegister(
		metrics.RequestsTotal,
		metrics.ResolutionsTotal,
		metrics.ProviderFetchesTotal,
		metrics.ResolutionDuration,
		metrics.CacheHitsTotal,
		metrics.SearchesTotal,
	)

	return metrics
}

// RecordProviderFetch satisfies the resolution chain's recorder hook.
func (m *Metrics) RecordProviderFetch(provider, status string) {
	m.ProviderFetchesTotal.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) RecordResolution(outcome string, duration time.Duration) {
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordSearch(kind, status string) {
	m.SearchesTotal.WithLabelValues(kind, status).Inc()
}
