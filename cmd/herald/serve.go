package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/platinummonkey/herald/pkg/api"
	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/authz"
	"github.com/platinummonkey/herald/pkg/config"
	"github.com/platinummonkey/herald/pkg/httputil"
	"github.com/platinummonkey/herald/pkg/keys"
	"github.com/platinummonkey/herald/pkg/membership"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/rbac"
	"github.com/platinummonkey/herald/pkg/registry"
	"github.com/platinummonkey/herald/pkg/router"
	"github.com/platinummonkey/herald/pkg/signals"
	"github.com/platinummonkey/herald/pkg/translator"
	"github.com/platinummonkey/herald/pkg/transport"
)

func serve(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	var res resources
	defer res.close(ctx, logger)

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	res.add(otelProviders.Shutdown)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(promRegistry)

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	res.add(func(ctx context.Context) error { return db.Close() })
	logger.WithField("driver", cfg.Database.Driver).Info("Connected to content database")

	if err := auth.RunMigrations(ctx, db, cfg.Database.Driver, logger); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Cache.RedisURL != "" {
		redisClient, err = keys.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return err
		}
		res.add(func(ctx context.Context) error { return redisClient.Close() })
		logger.Info("Connected to Redis key cache")
	}

	policies, err := rbac.LoadPolicyFile(cfg.Auth.PoliciesFile)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}
	logger.WithField("policies", len(policies.Names())).Info("Loaded authorization policies")

	aggregator := authz.NewAggregator(
		authz.DefaultAuthorizers(policies),
		authz.WithConcurrency(cfg.Auth.AuthzConcurrency),
		authz.WithMetrics(metrics),
		authz.WithLogger(logger),
	)

	builder := auth.NewSQLPrincipalBuilder(db)
	connections := registry.New()
	promRegistry.MustRegister(connections.Collectors()...)
	hub := transport.NewHub(cfg.Server.QueueSize, metrics, logger)
	members := membership.NewManager(connections, hub, aggregator, builder, metrics, logger)
	eventRouter := router.New(connections, hub, metrics, logger)

	keyResolver := keys.NewCachedResolver(keys.NewSQLResolver(db), keys.CacheConfig{
		Size:  cfg.Cache.Size,
		TTL:   cfg.Cache.TTL,
		Redis: redisClient,
	}, metrics, logger)

	bus := signals.NewBus(logger, metrics)
	translator.New(eventRouter, members, keyResolver, logger).Register(bus)

	resolver, err := buildResolver(ctx, cfg.Auth, db, builder)
	if err != nil {
		return err
	}

	var streamLimiter *httputil.RateLimiter
	if cfg.Server.StreamRateLimit > 0 {
		streamLimiter = httputil.NewRateLimiter(cfg.Server.StreamRateLimit, cfg.Server.StreamRateBurst, time.Minute)
		cleanupCtx, stopCleanup := context.WithCancel(ctx)
		defer stopCleanup()
		streamLimiter.StartCleanup(cleanupCtx)
	}

	server := api.NewServer(api.Dependencies{
		Stream:        transport.NewStreamHandler(hub, resolver, members, cfg.Server.KeepAlive, metrics, logger),
		StreamLimiter: streamLimiter,
		Signals:       bus,
		Authorization: aggregator,
		Resolver:      resolver,
		SignalSecret:  cfg.Auth.SignalSecret,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Metrics:       metrics,
		Logger:        logger,
	})

	// No WriteTimeout: event streams stay open for the life of the client
	httpServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:     server,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	var registryForMetrics *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		registryForMetrics = promRegistry
	}
	healthServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:     api.NewHealthRouter(observability.NewHealthChecker(db, redisClient, version), registryForMetrics),
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, httpServer, healthServer)
	res.handOff(shutdown)

	errCh := make(chan error, 2)
	for _, srv := range []*http.Server{httpServer, healthServer} {
		go func(srv *http.Server) {
			logger.WithField("addr", srv.Addr).Info("Starting HTTP server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	done := make(chan error, 1)
	go func() { done <- shutdown.WaitForShutdown() }()

	select {
	case err := <-errCh:
		logger.WithError(err).Error("HTTP server failed")
		if shutdownErr := shutdown.Shutdown(); shutdownErr != nil {
			logger.WithError(shutdownErr).Error("Shutdown failed")
		}
		return err
	case err := <-done:
		return err
	}
}

// buildResolver chains API token and, when configured, OIDC resolution
func buildResolver(ctx context.Context, cfg config.AuthConfig, db *sql.DB, builder auth.PrincipalBuilder) (auth.Resolver, error) {
	resolvers := []auth.Resolver{auth.NewTokenResolver(auth.NewTokenStore(db), builder)}

	if cfg.OIDCIssuerURL != "" {
		oidcResolver, err := auth.NewOIDCResolver(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID, builder)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC: %w", err)
		}
		resolvers = append(resolvers, oidcResolver)
	}

	return auth.NewChainResolver(resolvers...), nil
}
