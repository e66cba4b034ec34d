// Package metrics provides Prometheus metrics for the admin service.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	requestsTotal           *prometheus.CounterVec
	requestDuration         *prometheus.HistogramVec
	requestsInFlight        prometheus.Gauge
	responseSize            *prometheus.HistogramVec
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	upstreamErrors          *prometheus.CounterVec
	degradedResponses       *prometheus.CounterVec
	loginAttempts           *prometheus.CounterVec
	healthStatus            prometheus.Gauge
}

var (
	globalMetrics *Metrics
	globalOnce    sync.Once
)

// NewMetrics creates and registers Prometheus metrics. Registration happens
// once per process; later calls return the same instance.
func NewMetrics() *Metrics {
	globalOnce.Do(func() {
		globalMetrics = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "taas_admin_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			requestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "taas_admin_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"method", "route", "status"},
			),
			requestsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "taas_admin_http_requests_in_flight",
					Help: "Number of HTTP requests currently being processed",
				},
			),
			responseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "taas_admin_http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
				},
				[]string{"method", "route"},
			),
			upstreamRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "taas_admin_upstream_requests_total",
					Help: "Total number of requests to the repository hosting API",
				},
				[]string{"operation", "status"},
			),
			upstreamRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "taas_admin_upstream_request_duration_seconds",
					Help:    "Repository hosting API request duration in seconds",
					Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
				[]string{"operation"},
			),
			upstreamErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "taas_admin_upstream_errors_total",
					Help: "Total number of failed repository hosting API requests",
				},
				[]string{"operation", "kind"},
			),
			degradedResponses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "taas_admin_degraded_responses_total",
					Help: "Responses rendered empty because the upstream failed",
				},
				[]string{"resource"},
			),
			loginAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "taas_admin_login_attempts_total",
					Help: "Login attempts by result",
				},
				[]string{"result"},
			),
			healthStatus: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "taas_admin_health_status",
					Help: "Health status of the admin service (1 = healthy, 0 = unhealthy)",
				},
			),
		}
	})

	return globalMetrics
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordResponseSize records the response size.
func (m *Metrics) RecordResponseSize(method, route string, size int) {
	m.responseSize.WithLabelValues(method, route).Observe(float64(size))
}

// IncRequestsInFlight increments the in-flight requests counter.
func (m *Metrics) IncRequestsInFlight() {
	m.requestsInFlight.Inc()
}

// DecRequestsInFlight decrements the in-flight requests counter.
func (m *Metrics) DecRequestsInFlight() {
	m.requestsInFlight.Dec()
}

// RecordUpstreamRequest records one call to the hosting API.
func (m *Metrics) RecordUpstreamRequest(operation, status string, duration time.Duration) {
	m.upstreamRequestsTotal.WithLabelValues(operation, status).Inc()
	m.upstreamRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordUpstreamError records a failed hosting API call.
func (m *Metrics) RecordUpstreamError(operation, kind string) {
	m.upstreamErrors.WithLabelValues(operation, kind).Inc()
}

// RecordDegraded counts a response that hid an upstream failure behind an
// empty result.
func (m *Metrics) RecordDegraded(resource string) {
	m.degradedResponses.WithLabelValues(resource).Inc()
}

// RecordLogin records a login attempt; result is "success" or "failure".
func (m *Metrics) RecordLogin(result string) {
	m.loginAttempts.WithLabelValues(result).Inc()
}

// SetHealthStatus sets the health status.
func (m *Metrics) SetHealthStatus(healthy bool) {
	if healthy {
		m.healthStatus.Set(1)
	} else {
		m.healthStatus.Set(0)
	}
}

// MetricsServer provides a separate HTTP server for Prometheus metrics.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a new metrics server.
func NewMetricsServer(port int, path string, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start starts the metrics server.
func (ms *MetricsServer) Start() error {
	ms.logger.Info("starting metrics server", zap.String("addr", ms.server.Addr))
	if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// MetricsMiddleware creates middleware that records HTTP metrics. Requests
// are labelled by their route template so path parameters do not explode
// label cardinality.
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.IncRequestsInFlight()
			defer m.DecRequestsInFlight()

			start := time.Now()
			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeTemplate(r)
			m.RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
			m.RecordResponseSize(r.Method, route, rw.size)
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// metricsResponseWriter wraps http.ResponseWriter to capture metrics.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

// WriteHeader captures the status code.
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}
