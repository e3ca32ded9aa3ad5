// Package metrics exposes Prometheus collectors for the HTTP layer, the
// aggregation engine and the refresh job.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sales_dashboard"

// Metrics holds the service collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	aggregationPasses *prometheus.CounterVec
	recordsPerPass    prometheus.Histogram
	sourceFailures    *prometheus.CounterVec
	refreshRuns       *prometheus.CounterVec
	lastRefresh       prometheus.Gauge
}

// New creates the collectors and registers them with Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		aggregationPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_passes_total",
			Help:      "Completed aggregation passes by deal source.",
		}, []string{"source"}),
		recordsPerPass: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_records",
			Help:      "Deal records per aggregation pass.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Failed snapshot loads by deal source.",
		}, []string{"source"}),
		refreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Snapshot refresh runs by outcome.",
		}, []string{"outcome"}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful snapshot refresh.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.aggregationPasses,
		m.recordsPerPass,
		m.sourceFailures,
		m.refreshRuns,
		m.lastRefresh,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveAggregation(source string, records int) {
	if m == nil {
		return
	}
	m.aggregationPasses.WithLabelValues(source).Inc()
	m.recordsPerPass.Observe(float64(records))
}

func (m *Metrics) SourceFailure(source string) {
	if m == nil {
		return
	}
	m.sourceFailures.WithLabelValues(source).Inc()
}

// RefreshOutcome counts a refresh run; outcome is "success", "failure" or "skipped"
func (m *Metrics) RefreshOutcome(outcome string, at time.Time) {
	if m == nil {
		return
	}
	m.refreshRuns.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.lastRefresh.Set(float64(at.Unix()))
	}
}
