// AngelaMos | 2026
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

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/launchpad/internal/admin"
	"github.com/carterperez-dev/launchpad/internal/auth"
	"github.com/carterperez-dev/launchpad/internal/billing"
	"github.com/carterperez-dev/launchpad/internal/config"
	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/coupon"
	"github.com/carterperez-dev/launchpad/internal/health"
	"github.com/carterperez-dev/launchpad/internal/jobs"
	"github.com/carterperez-dev/launchpad/internal/ledger"
	"github.com/carterperez-dev/launchpad/internal/media"
	"github.com/carterperez-dev/launchpad/internal/middleware"
	"github.com/carterperez-dev/launchpad/internal/product"
	"github.com/carterperez-dev/launchpad/internal/report"
	"github.com/carterperez-dev/launchpad/internal/review"
	"github.com/carterperez-dev/launchpad/internal/server"
	"github.com/carterperez-dev/launchpad/internal/upvote"
	"github.com/carterperez-dev/launchpad/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

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

	identity, err := auth.NewIdentityVerifier(cfg.Identity)
	if err != nil {
		return err
	}
	logger.Info("identity verifier initialized", "mode", cfg.Identity.Mode)

	objectStore, err := media.NewMinIOStore(cfg.Storage)
	if err != nil {
		return err
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		return err
	}
	logger.Info("object storage connected",
		"endpoint", cfg.Storage.Endpoint,
		"bucket", cfg.Storage.Bucket,
	)

	store := ledger.NewPostgresStore(db.DB)
	engine := upvote.NewEngine(
		store,
		upvote.NewRedisLocker(redis.Client, cfg.Ledger.UpvoteLockTTL),
	)

	userSvc := user.NewService(store)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		identity,
		userSvc,
		engine,
		redis.Client,
	)
	authHandler := auth.NewHandler(authSvc)
	tokenGuard := auth.NewTokenGuard(jwtManager, redis.Client)

	productHandler := product.NewHandler(product.NewService(store, cfg.Ledger.FreeQuota))
	upvoteHandler := upvote.NewHandler(engine)
	reviewHandler := review.NewHandler(review.NewService(store))
	reportHandler := report.NewHandler(report.NewService(store))

	couponSvc := coupon.NewService(store)
	couponHandler := coupon.NewHandler(couponSvc)

	billingSvc := billing.NewService(
		store,
		billing.NewHTTPProcessor(
			cfg.Billing.ProcessorURL,
			cfg.Billing.SecretKey,
			cfg.Billing.Timeout,
		),
		couponSvc,
		billing.Config{
			Currency:           cfg.Billing.Currency,
			SubscriptionAmount: cfg.Billing.SubscriptionAmount,
		},
	)
	billingHandler := billing.NewHandler(billingSvc)

	mediaHandler := media.NewHandler(media.NewService(
		objectStore,
		cfg.Storage.PublicBaseURL,
		cfg.Storage.MaxUploadBytes,
	))

	scheduler := jobs.NewScheduler(logger)
	if cfg.Jobs.Enabled {
		if err := scheduler.Add(jobs.NewRecountJob(cfg.Jobs.RecountSchedule, engine)); err != nil {
			return err
		}
		if err := scheduler.Add(jobs.NewTokenGCJob(cfg.Jobs.TokenGCSchedule, authRepo)); err != nil {
			return err
		}
		scheduler.Start()
	}

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
		health.Check{Name: "storage", Checker: objectStore},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Store:       store,
		DBStats:     db.Stats,
		RedisStats:  redis.PoolStats,
		DBPing:      db.Ping,
		RedisPing:   redis.Ping,
		StoragePing: objectStore.Ping,
		Recounter:   engine,
		Jobs:        scheduler,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(core.Tracer()))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(tokenGuard)
	optionalAuth := middleware.OptionalAuth(tokenGuard)
	moderatorOnly := middleware.RequireModerator
	adminOnly := middleware.RequireAdmin

	writeLimiter := middleware.WriteLimiter(redis.Client, middleware.MembershipTiers{
		"free": middleware.PerMinute(
			cfg.RateLimit.FreeWrites,
			cfg.RateLimit.FreeWrites/3+1,
		),
		"active": middleware.PerMinute(
			cfg.RateLimit.MemberWrites,
			cfg.RateLimit.MemberWrites/3+1,
		),
	})

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)

		productHandler.RegisterRoutes(r, authenticator, optionalAuth)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Use(writeLimiter)

			upvoteHandler.RegisterRoutes(r, authenticator)
			reviewHandler.RegisterRoutes(r, authenticator)
			reportHandler.RegisterRoutes(r, authenticator)
		})

		mediaHandler.RegisterRoutes(r, authenticator)
		couponHandler.RegisterRoutes(r, authenticator)
		billingHandler.RegisterRoutes(r, authenticator)

		productHandler.RegisterModerationRoutes(r, authenticator, moderatorOnly)
		reportHandler.RegisterModerationRoutes(r, authenticator, moderatorOnly)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		couponHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
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
