// Package obs exposes Prometheus metrics for the service.
package obs

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/or-admin/internal/application"
)

// Metrics holds every collector the service reports. It implements
// application.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	surgeryOperations  *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	buildInfo          *prometheus.GaugeVec
}

var _ application.Metrics = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them, along with the Go
// runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		surgeryOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oradmin_surgery_operations_total",
			Help: "Surgery store operations by outcome.",
		}, []string{"operation", "outcome"}),
		sessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oradmin_session_transitions_total",
			Help: "Session status transitions by reason.",
		}, []string{"status", "reason"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oradmin_active_sessions",
			Help: "Sessions currently in the active state.",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oradmin_build_info",
			Help: "OR admin build information.",
		}, []string{"version"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.surgeryOperations,
		m.sessionTransitions,
		m.activeSessions,
		m.buildInfo,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SetBuildInfo publishes oradmin_build_info{version} 1.
func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}

// ObserveSurgeryOperation counts a surgery store operation.
func (m *Metrics) ObserveSurgeryOperation(operation, outcome string) {
	m.surgeryOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveSessionTransition counts a session entering status.
func (m *Metrics) ObserveSessionTransition(status application.SessionStatus, reason string) {
	m.sessionTransitions.WithLabelValues(string(status), reason).Inc()
}

// SetActiveSessions records the number of active sessions.
func (m *Metrics) SetActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

// Instrument measures request count, latency and in-flight requests.
// pathLabel maps a request to a low cardinality path label; nil uses the raw
// URL path.
func (m *Metrics) Instrument(next http.Handler, pathLabel func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if pathLabel != nil {
			path = pathLabel(r)
		}
		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// statusWriter records the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so websocket upgrades work
// behind the instrumentation.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("obs: response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
