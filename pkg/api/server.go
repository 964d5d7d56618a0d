package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/authz"
	"github.com/platinummonkey/herald/pkg/httputil"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/signals"
)

// SignalPublisher accepts ingested signals
type SignalPublisher interface {
	Subscribed(name signals.Name) bool
	PublishAsync(ctx context.Context, sig signals.Signal)
}

// Authorization computes the categories a principal may receive
type Authorization interface {
	AuthorizeAll(ctx context.Context, principal *auth.Principal) (authz.Result, error)
}

// Dependencies holds the components the server routes to
type Dependencies struct {
	Stream        http.Handler
	StreamLimiter *httputil.RateLimiter // nil disables connect limiting
	Signals       SignalPublisher
	Authorization Authorization
	Resolver      auth.Resolver
	SignalSecret  string
	CORSOrigins   []string
	Metrics       *observability.Metrics
	Logger        *observability.Logger
}

// Server is the public HTTP surface
type Server struct {
	router  *mux.Router
	handler http.Handler
	logger  *observability.Logger
}

// NewServer creates a new API server
func NewServer(deps Dependencies) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: observability.OrNop(deps.Logger),
	}

	s.router.Handle("/api/v1/events", httputil.RateLimitMiddleware(deps.StreamLimiter)(deps.Stream)).Methods(http.MethodGet)
	NewSignalHandlers(deps.Signals, deps.SignalSecret, s.logger).RegisterRoutes(s.router)
	NewAuthorizationHandlers(deps.Resolver, deps.Authorization, s.logger).RegisterRoutes(s.router)

	// Route middleware runs after matching, so the route template is known
	if deps.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(deps.Metrics, routeTemplate))
	}

	middlewares := []httputil.Middleware{
		httputil.RequestIDMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		httputil.LoggingMiddleware(s.logger),
	}
	if len(deps.CORSOrigins) > 0 {
		middlewares = append(middlewares, httputil.CORSMiddleware(deps.CORSOrigins))
	}

	s.handler = otelhttp.NewHandler(httputil.Chain(middlewares...)(s.router), "herald")
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router for additional registrations
func (s *Server) Router() *mux.Router {
	return s.router
}

// NewHealthRouter builds the operational router served on the health port
func NewHealthRouter(checker *observability.HealthChecker, registry *prometheus.Registry) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", checker.Readiness).Methods(http.MethodGet)
	router.HandleFunc("/health/live", checker.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", checker.Readiness).Methods(http.MethodGet)
	if registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(registry)).Methods(http.MethodGet)
	}
	return router
}

// routeTemplate labels metrics by route template so path parameters do not
// explode cardinality
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
