// Package metrics exposes Prometheus collectors for HTTP traffic and
// entitlement decisions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/msomdec/mtaabiz/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ service.DecisionRecorder = (*Metrics)(nil)

// Metrics owns a private registry so tests can create independent instances.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
}

// New registers the collectors, including Go runtime and process metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtaabiz",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mtaabiz",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtaabiz",
			Name:      "entitlement_decisions_total",
			Help:      "Invoice quota decisions by plan and outcome.",
		}, []string{"plan", "outcome"}),
	}
	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.decisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request. route is the matched
// ServeMux pattern, never the raw path.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordDecision implements service.DecisionRecorder.
func (m *Metrics) RecordDecision(d service.Decision) {
	plan := "free"
	if d.IsPro {
		plan = "pro"
	}
	outcome := "allowed"
	if !d.Allowed {
		outcome = "denied"
	}
	m.decisions.WithLabelValues(plan, outcome).Inc()
}
