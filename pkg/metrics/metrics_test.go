package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("GET", "/api/v1/lines", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/lines", 200, 5*time.Millisecond)
	m.RecommendationCreated("plan_upgrade")
	m.RecommendationDeduplicated()
	m.BudgetAlert("department")
	m.AnomaliesDetected("ratio", 3)
	m.AnomaliesDetected("ratio", 0)
	m.RateLimited()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/lines", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.recommendationsCreated.WithLabelValues("plan_upgrade")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.recommendationsSkipped))
	require.Equal(t, 1.0, testutil.ToFloat64(m.budgetAlerts.WithLabelValues("department")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.anomaliesDetected.WithLabelValues("ratio")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
	require.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	require.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.RecommendationCreated("data_sharing")
		m.RecommendationDeduplicated()
		m.BudgetAlert("line")
		m.AnomaliesDetected("stddev", 1)
		m.RateLimited()
		m.CacheLookup(true)
	})
}
