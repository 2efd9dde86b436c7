package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "telcodash"

// Metrics groups the collectors exported on the metrics endpoint.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests           *prometheus.CounterVec
	httpDuration           *prometheus.HistogramVec
	recommendationsCreated *prometheus.CounterVec
	recommendationsSkipped prometheus.Counter
	budgetAlerts           *prometheus.CounterVec
	anomaliesDetected      *prometheus.CounterVec
	rateLimited            prometheus.Counter
	cacheLookups           *prometheus.CounterVec
}

// New builds the collectors and registers them with registerer.
// A nil registerer falls back to prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		recommendationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_created_total",
			Help:      "Recommendations persisted by category.",
		}, []string{"category"}),
		recommendationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_deduplicated_total",
			Help:      "Recommendations dropped because a similar open one exists.",
		}),
		budgetAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_alerts_total",
			Help:      "Budget threshold alerts raised by entity type.",
		}, []string{"entity_type"}),
		anomaliesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_anomalies_detected_total",
			Help:      "Usage anomalies reported by detector.",
		}, []string{"detector"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
	}

	registerer.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.recommendationsCreated,
		m.recommendationsSkipped,
		m.budgetAlerts,
		m.anomaliesDetected,
		m.rateLimited,
		m.cacheLookups,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecommendationCreated(category string) {
	if m == nil {
		return
	}
	m.recommendationsCreated.WithLabelValues(category).Inc()
}

func (m *Metrics) RecommendationDeduplicated() {
	if m == nil {
		return
	}
	m.recommendationsSkipped.Inc()
}

func (m *Metrics) BudgetAlert(entityType string) {
	if m == nil {
		return
	}
	m.budgetAlerts.WithLabelValues(entityType).Inc()
}

func (m *Metrics) AnomaliesDetected(detector string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.anomaliesDetected.WithLabelValues(detector).Add(float64(n))
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
