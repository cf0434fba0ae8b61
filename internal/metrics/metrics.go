// Package metrics exposes Prometheus collectors for query generation and the embedding index.
//
// All methods are safe on a nil *Metrics, so components can take metrics as an optional dependency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "apiquery"

// Metrics holds the collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	generateRequests *prometheus.CounterVec
	generateDuration prometheus.Histogram
	synthesis        *prometheus.CounterVec
	alternates       *prometheus.CounterVec
	indexOps         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generateRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_requests_total",
			Help:      "Query generation requests by outcome (success, failure, invalid, cancelled).",
		}, []string{"outcome"}),
		generateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Query generation latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		synthesis: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Generated queries by synthesis strategy.",
		}, []string{"source"}),
		alternates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alternate_queries_total",
			Help:      "Alternate retrieval queries tried, by whether they replaced the context.",
		}, []string{"accepted"}),
		indexOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_operations_total",
			Help:      "Embedding index operations by operation and status.",
		}, []string{"op", "status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGenerate records one generation request.
func (m *Metrics) ObserveGenerate(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generateRequests.WithLabelValues(outcome).Inc()
	m.generateDuration.Observe(d.Seconds())
}

// ObserveSynthesis records which strategy produced a query.
func (m *Metrics) ObserveSynthesis(source string) {
	if m == nil {
		return
	}
	m.synthesis.WithLabelValues(source).Inc()
}

// ObserveAlternate records one alternate query attempt.
func (m *Metrics) ObserveAlternate(accepted bool) {
	if m == nil {
		return
	}
	m.alternates.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

// ObserveIndexOp records an index operation outcome.
func (m *Metrics) ObserveIndexOp(op string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.indexOps.WithLabelValues(op, status).Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
