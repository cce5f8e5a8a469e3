// Package monitor exposes gateway metrics in the Prometheus format.
package monitor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"margin-gateway/pkg/exchanges/common"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_http_in_flight_requests",
			Help: "Requests currently being served",
		}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_venue_calls_total",
			Help: "Venue calls by operation and outcome",
		}, []string{"op", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_venue_call_duration_seconds",
			Help:    "Venue call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.requests, m.requestLatency, m.inFlight,
		m.upstreamCalls, m.upstreamLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RequestStarted tracks an in-flight request; call the returned func when done.
func (m *Metrics) RequestStarted() func() {
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// ObserveRequest records a finished HTTP request. route is the route
// template, not the raw path.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveUpstream records one venue call and its outcome.
func (m *Metrics) ObserveUpstream(op string, elapsed time.Duration, err error) {
	m.upstreamCalls.WithLabelValues(op, Outcome(err)).Inc()
	m.upstreamLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Outcome labels an upstream result: "ok", an error kind, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := common.KindOf(err); ok {
		return kind.String()
	}
	return "error"
}
