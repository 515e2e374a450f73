package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the fetch pipeline's collectors.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	CacheLookups  *prometheus.CounterVec
	ResponseSize  prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg leaves them
// unregistered, which is handy for throwaway sessions.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browse_fetches_total",
				Help: "Network fetches by outcome",
			},
			[]string{"result"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "browse_fetch_duration_seconds",
				Help:    "Time from acquiring a stream to a parsed response",
				Buckets: prometheus.DefBuckets,
			},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browse_cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),
		ResponseSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "browse_response_size_bytes",
				Help:    "Size of fetched response bodies",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
		),
	}
}

// RecordFetch counts a network fetch. result is "ok" or an error kind.
func (m *Metrics) RecordFetch(result string, d time.Duration, bodySize int) {
	m.FetchesTotal.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(d.Seconds())
	if result == "ok" {
		m.ResponseSize.Observe(float64(bodySize))
	}
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}
