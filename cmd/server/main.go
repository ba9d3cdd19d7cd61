package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"qrlinkr/internal/config"
	"qrlinkr/internal/handlers"
	"qrlinkr/internal/models"
	"qrlinkr/internal/repository"
	"qrlinkr/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.AppEnv == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 4. Schema
	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		logger.Info("Running database migrations...")
		if err := repository.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 5. Initialize Redis; the slug cache is optional
	rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
	if err != nil {
		logger.Warn("Failed to connect to Redis, slug cache disabled", "error", err)
	} else {
		defer rdb.Close()
	}

	// 6. Initialize Services
	auditService := services.NewAuditService(db, logger)
	geoIPService := services.NewGeoIPService(cfg.GeoIPDBPath, logger)
	geoIPService.Init()
	defer geoIPService.Close()

	linkCache := services.NewLinkCache(rdb, cfg.CacheTTL, logger)
	registry := services.NewLinkRegistry(db, linkCache, auditService, logger)
	recorder := services.NewAnalyticsRecorder(db, logger, geoIPService, services.RecorderOptions{
		Buffer: cfg.AnalyticsBuffer,
		MaskIP: cfg.MaskVisitorIP,
	})
	resolver := services.NewRedirectResolver(registry, recorder, logger)
	qrService := services.NewQRService()

	owner := models.Owner{ID: cfg.OwnerID, Email: cfg.OwnerEmail}
	if err := registry.EnsureOwner(ctx, owner); err != nil {
		return fmt.Errorf("failed to provision owner: %w", err)
	}

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, registry, recorder, resolver, qrService)

	// 8. Setup Router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter()

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		auditService.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		recorder.Start(workerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
	}

	// Stop workers only after in-flight requests have queued their visits;
	// each worker flushes its queue before returning.
	workerCancel()
	workers.Wait()

	logger.Info("Server exiting")
	return runErr
}
