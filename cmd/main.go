package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"findocbot/internal/app"
	"findocbot/internal/config"
	"findocbot/internal/logger"
	"findocbot/middleware"
	"findocbot/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)
	defer logger.Sync()

	ctx := context.Background()
	container, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to build application", "error", err)
		os.Exit(1)
	}
	if err := container.Start(ctx); err != nil {
		logger.Error("Failed to start application", "error", err)
		_ = container.Shutdown(ctx)
		os.Exit(1)
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	if cfg.OTELEnabled {
		router.Use(middleware.TracingMiddleware(app.ServiceName))
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(container.Metrics))
	if container.Redis != nil {
		window := time.Duration(cfg.RateLimitWindow) * time.Second
		router.Use(middleware.RateLimitMiddleware(middleware.NewRedisWindowCounter(container.Redis), cfg.RateLimitReqs, window))
	}
	// multipart framing adds a little on top of the file itself
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + 1<<20))

	var enqueuer routes.TaskEnqueuer
	var inspector routes.TaskInspector
	if container.Queue != nil {
		enqueuer, inspector = container.Queue, container.Inspector
	}

	routes.SetupSystemRoutes(router, container.Cache.Stats, container.MetricsHandler, container.Ping)
	routes.SetupDocumentRoutes(router, cfg, container.Upload, enqueuer, inspector)
	routes.SetupSearchRoutes(router, cfg, container.Search)
	routes.SetupChatRoutes(router, cfg, container.Answer)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("Container shutdown failed", "error", err)
	}

	logger.Info("Server exited")
}
