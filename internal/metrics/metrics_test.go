package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveHTTP("GET", "/api/v1/dashboard", 200, 15*time.Millisecond)
	m.ObserveAggregation("file", 120)
	m.SourceFailure("zoho")
	m.RefreshOutcome("success", time.Unix(1717200000, 0))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `sales_dashboard_http_requests_total{method="GET",route="/api/v1/dashboard",status="200"} 1`)
	assert.Contains(t, text, `sales_dashboard_aggregation_passes_total{source="file"} 1`)
	assert.Contains(t, text, `sales_dashboard_source_failures_total{source="zoho"} 1`)
	assert.Contains(t, text, `sales_dashboard_last_successful_refresh_timestamp_seconds 1.7172e+09`)
	assert.Contains(t, text, "go_goroutines")
}

func TestMetrics_RefreshOutcomes(t *testing.T) {
	m := metrics.New()
	m.RefreshOutcome("failure", time.Now())
	m.RefreshOutcome("failure", time.Now())

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, family := range families {
		if family.GetName() != "sales_dashboard_refresh_runs_total" {
			continue
		}
		found = true
		require.Len(t, family.GetMetric(), 1)
		assert.Equal(t, 2.0, family.GetMetric()[0].GetCounter().GetValue())
	}
	assert.True(t, found)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.ObserveAggregation("file", 1)
		m.SourceFailure("file")
		m.RefreshOutcome("success", time.Now())
	})
	assert.Nil(t, m.Registry())
}
