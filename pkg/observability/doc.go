// Package observability provides structured logging, Prometheus metrics,
// health checks, OpenTelemetry setup and graceful shutdown.
//
// # Structured Logging
//
// The Logger wraps logrus with a JSON formatter:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("category", "Document").Info("group joined")
//
// Request scoped fields come from the context:
//
//	observability.FromContext(ctx).Warn("principal reconstruction failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.EventsRoutedTotal.WithLabelValues("Media", "Updated", "group").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	router.HandleFunc("/health/ready", checker.Readiness)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/api: HTTP middleware wiring
package observability
