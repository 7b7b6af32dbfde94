package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nultr/nultr/backend/go/internal/v1/auth"
	"github.com/nultr/nultr/backend/go/internal/v1/config"
	"github.com/nultr/nultr/backend/go/internal/v1/health"
	"github.com/nultr/nultr/backend/go/internal/v1/httpapi"
	"github.com/nultr/nultr/backend/go/internal/v1/logging"
	"github.com/nultr/nultr/backend/go/internal/v1/middleware"
	"github.com/nultr/nultr/backend/go/internal/v1/ratelimit"
	"github.com/nultr/nultr/backend/go/internal/v1/session"
	"github.com/nultr/nultr/backend/go/internal/v1/store"
)

func main() {
	// Load .env for local development. Try multiple paths to handle different
	// ways of running the app.
	envPaths := []string{".env", "../../../.env", "../../.env"}
	var envLoaded bool
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("Loaded environment from", "path", path)
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		slog.Warn("No .env file found in any expected location, relying on environment variables")
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.Development()); err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	// --- Storage ---
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal(ctx, "failed to open database", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(); err != nil {
		logging.Fatal(ctx, "failed to run migrations", zap.Error(err))
	}
	logging.Info(ctx, "database ready")

	// --- Services ---
	tokens := auth.NewTokenService(cfg.JWTSecretKey)
	hasher := auth.NewPasswordHasher()
	registry := session.NewRegistry()
	wsHandler := session.NewHandler(registry, tokens, st.Rooms, st.Messages, cfg.AllowedOrigins)
	apiHandlers := httpapi.NewHandlers(st, tokens, hasher)
	healthHandler := health.NewHandler(st)

	limiter, err := ratelimit.New(cfg)
	if err != nil {
		logging.Fatal(ctx, "failed to build rate limiters", zap.Error(err))
	}

	// --- Router ---
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	api := router.Group("", limiter.APIMiddleware())
	apiHandlers.Register(api)

	router.GET("/ws", limiter.WSMiddleware(), wsHandler.ServeWs)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	// Static assets are the fallback for everything else.
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.AssetsDir))))

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	// --- Graceful Shutdown ---
	go func() {
		logging.Info(ctx, "server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(ctx, "failed to run server", zap.Error(err))
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "server forced to shutdown", zap.Error(err))
	}

	logging.Info(ctx, "server exiting")
}
