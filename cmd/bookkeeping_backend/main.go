package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/handlers"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/bootstrap"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/config"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logger"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/statement"
	"github.com/SscSPs/bookkeeping_engine/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

// @title Bookkeeping Engine API
// @version 1.0
// @description Journal posting, bank statement import and bank reconciliation for small-business books.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	log.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	profiles, err := statement.LoadProfiles(cfg.StatementProfilesPath)
	if err != nil {
		log.Warn("Statement profiles not loaded; only the default column mapping is available", slog.String("error", err.Error()))
		profiles = statement.Profiles{}
	}

	app, err := bootstrap.Open(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(log), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limiter, err := middleware.NewLimiter(cfg.RateLimit)
	if err != nil {
		log.Error("Failed to configure rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, app.Services, profiles); err != nil {
		log.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case serverErr = <-errChan:
		log.Error("Server error occurred", slog.String("error", serverErr.Error()))
	}

	cancelAppCtx()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", slog.String("error", err.Error()))
	}
	app.Close(shutdownCtx)

	if serverErr != nil {
		os.Exit(1)
	}
	log.Info("Server shutdown completed")
}
