package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kreede/api/routes"
	"kreede/internal/audit"
	"kreede/internal/cancellation"
	"kreede/internal/gateway"
	"kreede/internal/shared/config"
	"kreede/internal/shared/constants"
	"kreede/internal/shared/database"
	"kreede/pkg/cache"
	"kreede/pkg/logger"
	"kreede/pkg/ratelimit"
	"kreede/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Smart environment loading
	bootLogger := logger.GetDefault()
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			bootLogger.Info("Production environment: using container environment variables")
		} else {
			bootLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		bootLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// Rebuild the logger now that the mode and level are known
	appLogger := logger.NewWithWriter(os.Stdout, cfg.LogLevel)
	logger.SetDefault(appLogger)

	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing, Version, cfg.GinMode)
	if err != nil {
		appLogger.Error("Failed to initialize tracing", slog.Any("error", err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := cancellation.RegisterValidators(); err != nil {
		appLogger.Error("Failed to register validators", slog.Any("error", err))
		os.Exit(1)
	}

	// Missing gateway credentials are a startup error
	gw, err := gateway.New(cfg.Gateway)
	if err != nil {
		appLogger.Error("Failed to initialize payment gateway", slog.Any("error", err))
		os.Exit(1)
	}

	exporter := audit.NoopExporter()
	if cfg.Audit.Enabled {
		exporter, err = audit.NewKafkaExporter(cfg.Audit)
		if err != nil {
			appLogger.Error("Failed to initialize audit exporter, continuing without it", slog.Any("error", err))
			exporter = audit.NoopExporter()
		} else {
			appLogger.Info("Audit exporter initialized",
				slog.Any("brokers", cfg.Audit.Brokers),
				slog.String("topic", cfg.Audit.Topic),
			)
		}
	}
	defer exporter.Close()

	locker := cache.NoopLocker()
	var rateLimiter *ratelimit.RateLimiter
	if db.Redis != nil {
		locker = cache.NewLocker(db.Redis, constants.LockKeyPrefix)
		if cfg.RateLimit.Enabled {
			rateLimiter = ratelimit.NewRateLimiter(db.Redis, cfg.RateLimit)
			appLogger.Info("Rate limiter initialized",
				slog.Duration("window", cfg.RateLimit.WindowDuration),
				slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
				slog.Int("cancellation_requests", cfg.RateLimit.CancellationRequests),
			)
		}
	} else {
		appLogger.Warn("Redis unavailable: cancellation locks and rate limiting disabled")
	}

	router := setupRouter(cfg, db, rateLimiter, routes.Deps{
		Gateway: gw,
		Audit:   exporter,
		Locker:  locker,
		Log:     appLogger,
	})

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.String("gateway", cfg.Gateway.Provider),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("audit_export", cfg.Audit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}
	if err := shutdownTracing(ctx); err != nil {
		appLogger.Error("Tracer shutdown failed", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, deps routes.Deps) *gin.Engine {
	engine := gin.New()

	// Logs requests and recovers from panics
	engine.Use(RequestLoggerMiddleware(deps.Log), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, deps.Log))
	}

	appRouter := routes.NewRouter(cfg, db, deps)
	appRouter.SetupRoutes(engine)

	return engine
}

// RequestLoggerMiddleware tags each request with an id and logs it once done.
func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		reqLogger := l.WithRequestID(requestID)
		reqLogger.LogHTTPRequest(c, time.Since(start))
		if status := c.Writer.Status(); status >= http.StatusInternalServerError && len(c.Errors) > 0 {
			reqLogger.LogHTTPError(c, c.Errors.Last(), status)
		}
	}
}
