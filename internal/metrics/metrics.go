// Package metrics provides the Prometheus metrics of the frontend and
// backend services.
//
// Each service owns a private registry holding the Go and process
// collectors, the HTTP metrics recorded by middleware.Metrics and the
// metrics of its own outbound work: upstream calls for the frontend,
// database probes for the backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the metric set of one service.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPResponseSize     *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimited          prometheus.Counter

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	DBProbesTotal   *prometheus.CounterVec
	DBProbeDuration *prometheus.HistogramVec
}

// New creates the metrics of service on a fresh registry. Metric names are
// prefixed with "tierstack_" and labelled with the service name.
func New(service string) (*Metrics, error) {
	labels := prometheus.Labels{"service": service}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "tierstack_http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "tierstack_http_request_duration_seconds",
				Help:        "HTTP request duration in seconds",
				ConstLabels: labels,
				// 1ms to 30s; proxied calls may wait up to the upstream timeout.
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "tierstack_http_response_size_bytes",
				Help:        "HTTP response size in bytes",
				ConstLabels: labels,
				Buckets:     []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "tierstack_http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: labels,
			},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "tierstack_http_rate_limited_total",
				Help:        "Requests rejected by the per-client rate limiter",
				ConstLabels: labels,
			},
		),

		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "tierstack_upstream_requests_total",
				Help:        "Total number of calls to the upstream service",
				ConstLabels: labels,
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "tierstack_upstream_request_duration_seconds",
				Help:        "Upstream call duration in seconds",
				ConstLabels: labels,
				Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
			},
			[]string{"endpoint"},
		),

		DBProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "tierstack_db_probes_total",
				Help:        "Total number of database probes",
				ConstLabels: labels,
			},
			[]string{"operation", "outcome"},
		),
		DBProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "tierstack_db_probe_duration_seconds",
				Help:        "Database probe duration in seconds",
				ConstLabels: labels,
				Buckets:     []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"operation"},
		),
	}

	all := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.HTTPRequestsInFlight,
		m.RateLimited,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.DBProbesTotal,
		m.DBProbeDuration,
	}
	for _, c := range all {
		if err := m.Registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on error. Registration only fails on
// programming errors such as duplicate metric names.
func MustNew(service string) *Metrics {
	m, err := New(service)
	if err != nil {
		panic("failed to initialize metrics: " + err.Error())
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, seconds float64) {
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveDBProbe records one database probe.
func (m *Metrics) ObserveDBProbe(operation string, err error, seconds float64) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.DBProbesTotal.WithLabelValues(operation, outcome).Inc()
	m.DBProbeDuration.WithLabelValues(operation).Observe(seconds)
}
