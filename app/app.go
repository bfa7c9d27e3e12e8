// Package app wires the authentication daemon: infrastructure components,
// the auth service, the HTTP server and telemetry.
package app

import (
	"context"
	"fmt"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/keys"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/auth/session"
	"github.com/kbukum/authkit/bootstrap"
	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/database"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/metrics"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/server/handlers"
	"github.com/kbukum/authkit/server/middleware"
	"github.com/kbukum/authkit/store"
)

const meterName = "github.com/kbukum/authkit"

// App is the assembled daemon.
type App struct {
	*bootstrap.App[*Config]

	meter    *observability.MeterProvider
	database *database.Component
	redis    *redis.Component
	states   oauth2.StateStore

	service *auth.Service
	server  *server.Server
}

// New registers the infrastructure components and telemetry providers.
// The business layer is built in the configure phase, once the database
// (and redis, when enabled) are connected.
func New(ctx context.Context, cfg *Config, opts ...bootstrap.Option) (*App, error) {
	b, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	a := &App{App: b}

	res, err := observability.NewResource(observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	tp, err := observability.InitTracer(ctx, cfg.Tracing, res, b.Logger)
	if err != nil {
		return nil, err
	}
	if tp != nil {
		b.OnStop(tp.Shutdown)
	}
	a.meter, err = observability.InitMeter(ctx, cfg.Metrics, res, b.Logger)
	if err != nil {
		return nil, err
	}
	b.OnStop(a.meter.Shutdown)

	a.database = database.NewComponent(cfg.Database, b.Logger).WithAutoMigrate(store.Models()...)
	if err := b.RegisterComponent(a.database); err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled {
		a.redis = redis.NewComponent(cfg.Redis, b.Logger)
		if err := b.RegisterComponent(a.redis); err != nil {
			return nil, err
		}
	}
	if cfg.OAuth2.StateStore == oauth2.StateStoreMemory {
		mem := oauth2.NewMemoryStateStore(cfg.OAuth2.SweepInterval, b.Logger)
		if err := b.RegisterComponent(mem); err != nil {
			return nil, err
		}
		a.states = mem
	}

	b.OnConfigure(a.configure)
	return a, nil
}

// Service returns the auth service, or nil before the configure phase.
func (a *App) Service() *auth.Service { return a.service }

// Server returns the HTTP server, or nil before the configure phase.
func (a *App) Server() *server.Server { return a.server }

func (a *App) configure(_ context.Context, b *bootstrap.App[*Config]) error {
	cfg, log := b.Cfg, b.Logger

	km, err := keys.NewManager(cfg.Keys, log)
	if err != nil {
		return err
	}
	if err := km.Load(); err != nil {
		return fmt.Errorf("loading signing keys: %w", err)
	}
	tokens, err := jwt.NewService(cfg.JWT, km)
	if err != nil {
		return err
	}
	passwords, err := password.NewService(cfg.Password)
	if err != nil {
		return err
	}

	if a.states == nil {
		a.states = oauth2.NewRedisStateStore(a.redis.Client())
	}
	coordinator, err := oauth2.New(cfg.OAuth2, a.states, log)
	if err != nil {
		return err
	}

	meter := a.meter.Meter(meterName)
	authMetrics, err := metrics.New(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := observability.NewHTTPMetrics(meter)
	if err != nil {
		return err
	}

	st := store.New(a.database.DB())
	sessions := session.NewManager(cfg.Session, st.Sessions, tokens, log)
	a.service = auth.NewService(auth.Deps{
		Store:     st,
		Tokens:    tokens,
		Passwords: passwords,
		Sessions:  sessions,
		OAuth2:    coordinator,
		Metrics:   authMetrics,
	}, log)

	a.server = server.New(cfg.Server, log)
	a.server.ApplyMiddleware(httpMetrics)
	a.server.RegisterDefaultEndpoints(cfg.Name, b.Components.HealthAll, a.readiness)
	if cfg.Metrics.Enabled {
		a.server.MountMetrics(cfg.Metrics.Path, a.meter.Handler())
	}
	handlers.New(a.service, log).Register(a.server.GinEngine(), middleware.RateLimit(cfg.Server.RateLimit))

	sweeper := session.NewSweeper(sessions, cfg.Session.SweepInterval, log).
		OnSweep(func(ctx context.Context, n int64) {
			authMetrics.Session(ctx, metrics.SessionExpired, n)
		})
	if err := b.RegisterComponent(sweeper); err != nil {
		return err
	}
	if err := b.RegisterComponent(server.NewComponent(a.server)); err != nil {
		return err
	}

	log.Info("Authentication configured", logger.Fields(
		"auth", cfg.Config.Describe(),
		"providers", coordinator.Providers(),
	))
	return nil
}

// readiness reports the stores requests depend on.
func (a *App) readiness(ctx context.Context) []component.Health {
	results := []component.Health{a.database.Health(ctx)}
	if a.redis != nil {
		results = append(results, a.redis.Health(ctx))
	}
	return results
}
