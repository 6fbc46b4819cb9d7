package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propscout/api/internal/config"
	"github.com/propscout/api/internal/database"
	"github.com/propscout/api/internal/dispatch"
	"github.com/propscout/api/internal/handlers"
	"github.com/propscout/api/internal/logger"
	"github.com/propscout/api/internal/middleware"
	"github.com/propscout/api/internal/repository"
	"github.com/propscout/api/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	dispatchDrain   = 10 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting PropScout ingestion API", map[string]interface{}{
		"version":     "0.1.0",
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Start the enrichment fan-out workers
	dispatcher := dispatch.New(cfg.Dispatch, log.WithComponent("dispatch"))
	dispatcher.Start(ctx)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository and service layers
	datasetRepo := repository.NewDatasetRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	ingestService := services.NewIngestService(datasetRepo, propertyRepo, dispatcher, log.WithComponent("ingest"))
	datasetService := services.NewDatasetService(datasetRepo, propertyRepo, log.WithComponent("datasets"))

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(ingestService)
	datasetHandler := handlers.NewDatasetHandler(datasetService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/uploads", uploadHandler.Upload)

		datasets := v1.Group("/datasets")
		{
			datasets.GET("", datasetHandler.List)
			datasets.GET("/:id", datasetHandler.Get)
			datasets.GET("/:id/properties", datasetHandler.RecentProperties)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	// Let in-flight enrichment dispatches finish before exiting
	dispatcher.Stop(dispatchDrain)

	log.Info("Server exited", nil)
}
