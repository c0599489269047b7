package services

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the recommendation and upstream collectors.
type Metrics struct {
	served    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	upstream  *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. Collectors that are already
// registered are reused, so building the service twice in one process is
// safe.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Recommendation lists served, by algorithm actually used",
		}, []string{"algorithm"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Requests that fell back to the rule-based ranker, by requested algorithm",
		}, []string{"algorithm"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recommendation_latency_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"algorithm"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Storefront API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
	}

	if reg != nil {
		m.served = register(reg, m.served)
		m.fallbacks = register(reg, m.fallbacks)
		m.latency = register(reg, m.latency)
		m.upstream = register(reg, m.upstream)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) ObserveUpstream(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) RecordServed(algorithm string, fallback bool, requested string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.served.WithLabelValues(algorithm).Inc()
	if fallback {
		m.fallbacks.WithLabelValues(requested).Inc()
	}
	m.latency.WithLabelValues(requested).Observe(elapsed.Seconds())
}
