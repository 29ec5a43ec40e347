// KaungMyatLinn | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kaungmyat1inn/digitalmartpos/internal/admin"
	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/auth"
	"github.com/kaungmyat1inn/digitalmartpos/internal/config"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/events"
	"github.com/kaungmyat1inn/digitalmartpos/internal/health"
	"github.com/kaungmyat1inn/digitalmartpos/internal/product"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
	"github.com/kaungmyat1inn/digitalmartpos/internal/sale"
	"github.com/kaungmyat1inn/digitalmartpos/internal/server"
	"github.com/kaungmyat1inn/digitalmartpos/internal/staff"
	"github.com/kaungmyat1inn/digitalmartpos/internal/tenant"
	"github.com/kaungmyat1inn/digitalmartpos/internal/user"
)

const drainDelay = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("genkeys", false, "generate a signing key pair and exit")
	flag.Parse()

	if *genKeys {
		cfg, err := config.Load(*configPath)
		if err != nil {
			slog.Error("config error", "error", err)
			os.Exit(1)
		}
		if err := auth.GenerateKeyPair(
			cfg.JWT.PrivateKeyPath,
			cfg.JWT.PublicKeyPath,
		); err != nil {
			slog.Error("key generation error", "error", err)
			os.Exit(1)
		}
		slog.Info("key pair written",
			"private", cfg.JWT.PrivateKeyPath,
			"public", cfg.JWT.PublicKeyPath,
		)
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	auditBus := events.NewBus[audit.Entry]()
	auditRepo := audit.NewRepository(db.DB)
	recorder := audit.NewRecorder(
		auditRepo,
		auditBus,
		cfg.Audit.BufferSize,
		logger,
	)
	auditSvc := audit.NewService(auditRepo)

	// Every INTERNAL_ERROR response leaves a SYSTEM_ERROR trail with the
	// underlying diagnostic, which never reaches the client.
	core.SetSystemErrorHook(func(err error) {
		recorder.Record(audit.Entry{
			TenantID:     rbac.GlobalTenantID,
			Action:       audit.ActionSystemError,
			Resource:     audit.Resource{Type: "system"},
			Status:       audit.StatusFailure,
			ErrorMessage: err.Error(),
		})
	})

	userRepo := user.NewRepository(db.DB)
	staffRepo := staff.NewRepository(db.DB)
	authRepo := auth.NewRepository(db.DB)
	tenantRepo := tenant.NewRepository(db.DB)
	productRepo := product.NewRepository(db.DB)
	saleRepo := sale.NewRepository(db.DB)

	userSvc := user.NewService(userRepo, staffRepo, authRepo, recorder)
	tenantSvc := tenant.NewService(tenant.NewProvisionTx(db), tenantRepo, recorder)

	engine := rbac.NewEngine(jwtManager, userSvc, tenantSvc)

	authSvc := auth.NewService(
		auth.NewRegistryTx(db),
		authRepo,
		jwtManager,
		userSvc,
		tenantSvc,
		recorder,
		cfg.Auth,
	)
	staffSvc := staff.NewService(db, staffRepo, userSvc, recorder)
	productSvc := product.NewService(productRepo, recorder)
	saleSvc := sale.NewService(db, saleRepo, productRepo, recorder)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		AuditBus:   auditBus,
	})

	srv := server.New(server.Config{
		App:    cfg,
		Engine: engine,
		Redis:  redis.Client,
		Plans:  tenantSvc,
		JWKS:   jwtManager.GetJWKSHandler(),
		Logger: logger,

		Auth:     auth.NewHandler(authSvc),
		Tenants:  tenant.NewHandler(tenantSvc, engine),
		Users:    user.NewHandler(userSvc, engine),
		Staff:    staff.NewHandler(staffSvc, engine),
		Products: product.NewHandler(productSvc, engine),
		Sales:    sale.NewHandler(saleSvc, engine),
		Audit:    audit.NewHandler(auditSvc, engine),
		Admin:    adminHandler,
		Health:   healthHandler,
	})

	err = srv.Start(ctx, drainDelay)

	// The recorder flushes queued entries before the bus and stores go away.
	recorder.Close()
	auditBus.Close()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout,
	)
	defer cancel()

	if telemetry != nil {
		if telErr := telemetry.Shutdown(shutdownCtx); telErr != nil {
			logger.Error("telemetry shutdown error", "error", telErr)
		}
	}

	if redisErr := redis.Close(); redisErr != nil {
		logger.Error("redis close error", "error", redisErr)
	}

	if dbErr := db.Close(); dbErr != nil {
		logger.Error("database close error", "error", dbErr)
	}

	logger.Info("application stopped")
	return err
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
