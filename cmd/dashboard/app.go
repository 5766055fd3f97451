package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vigility/dashboard/internal/adapters/cache"
	"github.com/vigility/dashboard/internal/adapters/storage"
	"github.com/vigility/dashboard/internal/api/handlers"
	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/providers"
	"github.com/vigility/dashboard/internal/domain/repositories"
	"github.com/vigility/dashboard/internal/infrastructure/clients/analyticsapi"
	badgerclient "github.com/vigility/dashboard/internal/infrastructure/clients/badger"
	redisclient "github.com/vigility/dashboard/internal/infrastructure/clients/redis"
	"github.com/vigility/dashboard/internal/infrastructure/observability"
	"github.com/vigility/dashboard/internal/infrastructure/session"
	"github.com/vigility/dashboard/pkg/config"
)

// redisNamespace prefixes every key the dashboard writes to a shared Redis
const redisNamespace = "vigility"

// app holds the wired dashboard components for one CLI invocation
type app struct {
	cfg        *config.Config
	metrics    *observability.Metrics
	session    *session.Store
	client     *analyticsapi.HTTPClient
	snapshots  repositories.FilterSnapshotRepository
	controller *services.FilterController
	tracking   *services.TrackingService
	auth       *services.AuthService
	checks     map[string]handlers.HealthCheck

	closers []func() error
}

// newApp wires storage, the backend client, the session and the filter
// controller, then restores the saved session
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, checks: make(map[string]handlers.HealthCheck)}

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			a.closers = append(a.closers, func() error {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return shutdown(shutdownCtx)
			})
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	a.metrics = metrics

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	loc, err := cfg.Filters.Location()
	if err != nil {
		a.close()
		return nil, err
	}

	a.session = session.NewStore(storage.NewSessionAdapter(store))
	a.client = analyticsapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, a.session)

	var analytics providers.AnalyticsProvider = a.client
	if cfg.Breaker.Enabled {
		breaker := analyticsapi.NewCircuitBreakerClient(a.client, analyticsapi.BreakerConfig{
			Name:             "analytics",
			FailureThreshold: uint32(cfg.Breaker.FailureThreshold),
			OpenTimeout:      cfg.Breaker.OpenTimeout,
		})
		a.checks["analytics_breaker"] = func(ctx context.Context) error {
			if state := breaker.State(); state == "open" {
				return errors.New("circuit breaker is open")
			}
			return nil
		}
		analytics = breaker
	}

	a.tracking = services.NewTrackingService(a.client, metrics)
	a.snapshots = storage.NewFilterSnapshotAdapter(store, cfg.Filters.Retention(), metrics)
	a.controller = services.NewFilterController(
		analytics,
		a.snapshots,
		services.FilterControllerConfig{
			Location: loc,
			Hook:     a.tracking.Hook(),
			Metrics:  metrics,
		},
	)
	a.auth = services.NewAuthService(a.client, a.session)

	a.session.OnSignIn(func(ctx context.Context, user entities.User) {
		a.controller.SetUser(ctx, user.ID)
	})
	a.session.OnSignOut(func(ctx context.Context, reason session.SignOutReason) {
		if reason == session.ReasonExpired {
			log.Warn().Msg("Session expired, signed out")
		}
		a.controller.SetUser(ctx, "")
	})

	if err := a.session.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to restore saved session")
	}
	if id := a.session.UserID(); id != "" {
		a.controller.SetUser(ctx, id)
	}

	return a, nil
}

// openStore opens the configured backend for snapshots and the session
func (a *app) openStore(ctx context.Context) (providers.CacheProvider, error) {
	switch a.cfg.Store.Backend {
	case config.StoreBackendRedis:
		client, err := redisclient.NewClient(ctx, &a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.checks["redis"] = client.Ping
		return cache.NewRedisAdapter(client, redisNamespace), nil

	case config.StoreBackendMemory:
		mem, err := cache.NewMemoryAdapter(a.cfg.Memory.MaxSizeMB)
		if err != nil {
			return nil, fmt.Errorf("create memory store: %w", err)
		}
		a.closers = append(a.closers, func() error {
			mem.Close()
			return nil
		})
		log.Warn().Msg("Using the in-memory store, filters and session are lost on exit")
		return mem, nil

	default:
		client, err := badgerclient.NewClient(&a.cfg.Badger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return cache.NewBadgerAdapter(client.DB()), nil
	}
}

// close waits for in-flight work and releases every resource, newest first
func (a *app) close() {
	if a.controller != nil {
		a.controller.Wait()
	}
	if a.tracking != nil {
		a.tracking.Flush()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Error during shutdown")
		}
	}
	a.closers = nil
}
