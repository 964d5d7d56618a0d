package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Connection metrics
	ConnectionsActive    prometheus.Gauge
	ConnectionsTotal     *prometheus.CounterVec
	GroupOperationsTotal *prometheus.CounterVec

	// Delivery metrics
	EventsRoutedTotal  *prometheus.CounterVec
	EventsDroppedTotal prometheus.Counter
	SignalsTotal       *prometheus.CounterVec

	// Authorization metrics
	AuthorizationDecisionsTotal *prometheus.CounterVec
	AuthorizationDuration       prometheus.Histogram
	ReauthorizationsTotal       *prometheus.CounterVec

	// Key resolution metrics
	KeyCacheTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "herald_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "herald_connections_active",
				Help: "Number of live event stream connections",
			},
		),
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_connections_total",
				Help: "Total number of connection attempts by outcome",
			},
			[]string{"outcome"},
		),
		GroupOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_group_operations_total",
				Help: "Total number of transport group join/leave operations",
			},
			[]string{"operation", "status"},
		),

		EventsRoutedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_events_routed_total",
				Help: "Total number of events routed to clients",
			},
			[]string{"source", "type", "mode"},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "herald_events_dropped_total",
				Help: "Total number of events dropped because a connection queue was full",
			},
		),
		SignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_signals_total",
				Help: "Total number of domain change signals handled",
			},
			[]string{"signal", "status"},
		),

		AuthorizationDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_authorization_decisions_total",
				Help: "Total number of per-category authorization decisions",
			},
			[]string{"source", "decision"},
		),
		AuthorizationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "herald_authorization_duration_seconds",
				Help:    "Duration of a full authorization pass for one principal",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		ReauthorizationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_reauthorizations_total",
				Help: "Total number of identity-level group membership refreshes",
			},
			[]string{"status"},
		),

		KeyCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_key_cache_total",
				Help: "Id to key cache lookups by layer and result",
			},
			[]string{"layer", "result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ConnectionsActive,
		m.ConnectionsTotal,
		m.GroupOperationsTotal,
		m.EventsRoutedTotal,
		m.EventsDroppedTotal,
		m.SignalsTotal,
		m.AuthorizationDecisionsTotal,
		m.AuthorizationDuration,
		m.ReauthorizationsTotal,
		m.KeyCacheTotal,
	)

	return m
}

// NewTestMetrics returns metrics registered against a private registry
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// pathLabel maps a request to a low-cardinality label (usually the route
// template); nil uses the raw URL path.
func HTTPMetricsMiddleware(metrics *Metrics, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	if pathLabel == nil {
		pathLabel = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := pathLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler returns the /metrics handler for a registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
