// KaungMyatLinn | 2026
// server.go

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/kaungmyat1inn/digitalmartpos/internal/admin"
	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/auth"
	"github.com/kaungmyat1inn/digitalmartpos/internal/config"
	"github.com/kaungmyat1inn/digitalmartpos/internal/health"
	"github.com/kaungmyat1inn/digitalmartpos/internal/middleware"
	"github.com/kaungmyat1inn/digitalmartpos/internal/product"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
	"github.com/kaungmyat1inn/digitalmartpos/internal/sale"
	"github.com/kaungmyat1inn/digitalmartpos/internal/staff"
	"github.com/kaungmyat1inn/digitalmartpos/internal/tenant"
	"github.com/kaungmyat1inn/digitalmartpos/internal/user"
)

type Config struct {
	App    *config.Config
	Engine *rbac.Engine
	Redis  *redis.Client
	Plans  middleware.PlanSource
	JWKS   http.HandlerFunc
	Logger *slog.Logger

	Auth     *auth.Handler
	Tenants  *tenant.Handler
	Users    *user.Handler
	Staff    *staff.Handler
	Products *product.Handler
	Sales    *sale.Handler
	Audit    *audit.Handler
	Admin    *admin.Handler
	Health   *health.Handler
}

type Server struct {
	httpServer *http.Server
	health     *health.Handler
	cfg        config.ServerConfig
	logger     *slog.Logger
}

func New(cfg Config) *Server {
	router := buildRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.App.Server.Address(),
			Handler:      router,
			ReadTimeout:  cfg.App.Server.ReadTimeout,
			WriteTimeout: cfg.App.Server.WriteTimeout,
			IdleTimeout:  cfg.App.Server.IdleTimeout,
		},
		health: cfg.Health,
		cfg:    cfg.App.Server,
		logger: cfg.Logger,
	}
}

func buildRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.App.IsProduction()))
	r.Use(middleware.CORS(cfg.App.CORS))

	cfg.Health.RegisterRoutes(r)
	r.Get("/.well-known/jwks.json", cfg.JWKS)

	authenticator := middleware.Authenticator(cfg.Engine)
	superAdminOnly := middleware.RequireRole(cfg.Engine, rbac.RoleSuperAdmin)
	planLimiter := middleware.PlanRateLimiter(
		cfg.Redis,
		cfg.Plans,
		middleware.DefaultPlans,
	)

	// Per-IP ceiling in front of everything under /v1; unauthenticated auth
	// endpoints get nothing finer. Fails open so a Redis outage degrades to
	// the in-process limiter instead of a hard 503.
	ipLimiter := middleware.NewRateLimiter(cfg.Redis, middleware.RateLimitConfig{
		Limit: redis_rate.Limit{
			Rate:   cfg.App.RateLimit.Requests,
			Burst:  cfg.App.RateLimit.Burst,
			Period: cfg.App.RateLimit.Window,
		},
		KeyFunc:  middleware.KeyByIP,
		FailOpen: true,
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(ipLimiter.Handler)

		cfg.Auth.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(planLimiter)

			cfg.Tenants.RegisterRoutes(r, func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireTenantScope(cfg.Engine))

					cfg.Users.RegisterRoutes(r)
					cfg.Staff.RegisterRoutes(r)
					cfg.Products.RegisterRoutes(r)
					cfg.Sales.RegisterRoutes(r)
					cfg.Audit.RegisterRoutes(r)
				})
			})
		})

		cfg.Admin.RegisterRoutes(r, authenticator, superAdminOnly)
	})

	return r
}

// Start serves until ctx is cancelled, then drains: readiness flips first so
// load balancers stop sending traffic before connections are closed.
func (s *Server) Start(ctx context.Context, drainDelay time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, draining")
	s.health.SetShutdown(true)
	s.health.SetReady(false)

	if drainDelay > 0 {
		time.Sleep(drainDelay)
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}
