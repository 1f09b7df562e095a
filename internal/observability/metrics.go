// Package observability exposes prometheus metrics for the runtime.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the runtime's prometheus collectors. A nil *Metrics is
// valid and records nothing, so call sites do not need guards.
type Metrics struct {
	turnsTotal        *prometheus.CounterVec
	streamDuration    prometheus.Histogram
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	cacheEvictions    prometheus.Counter
	connectorFailures prometheus.Counter
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tonari",
			Name:      "turns_total",
			Help:      "Turns served, by outcome.",
		}, []string{"outcome"}),
		streamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tonari",
			Name:      "stream_duration_seconds",
			Help:      "Duration of response streams.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tonari",
			Name:      "session_cache_hits_total",
			Help:      "Session cache lookups served from the live slot.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tonari",
			Name:      "session_cache_misses_total",
			Help:      "Session cache lookups that required a rebuild.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tonari",
			Name:      "session_cache_evictions_total",
			Help:      "Session cache entries evicted by a key change.",
		}),
		connectorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tonari",
			Name:      "gateway_connect_failures_total",
			Help:      "Tool gateway connection attempts that degraded the agent.",
		}),
	}
	reg.MustRegister(
		m.turnsTotal,
		m.streamDuration,
		m.cacheHits,
		m.cacheMisses,
		m.cacheEvictions,
		m.connectorFailures,
	)
	return m
}

// TurnServed records a completed turn with its outcome label.
func (m *Metrics) TurnServed(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.streamDuration.Observe(seconds)
}

// CacheHit records a slot reuse.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss records a slot rebuild.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// CacheEviction records a slot eviction.
func (m *Metrics) CacheEviction() {
	if m == nil {
		return
	}
	m.cacheEvictions.Inc()
}

// ConnectorFailure records a gateway connect failure.
func (m *Metrics) ConnectorFailure() {
	if m == nil {
		return
	}
	m.connectorFailures.Inc()
}
