package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gitlab.com/geotrk1/trk.location_server/src/production/TRK.ApiService/controllers"
	"gitlab.com/geotrk1/trk.location_server/src/production/TRK.ApiService/health"
	"gitlab.com/geotrk1/trk.location_server/src/production/TRK.ApiService/middleware"
	container "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Container"
	implementation "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Repository/Implementation"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewApiContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting Location API Service")

	config := ctr.GetConfig()

	// Connect to the document store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := ctr.GetMongoClient(ctx)
	if err != nil {
		logger.FatalWithError(err, "Failed to connect to document store")
	}

	sourceColl, err := ctr.GetSourceCollection(ctx)
	if err != nil {
		logger.FatalWithError(err, "Failed to get source collection")
	}
	locationColl, err := ctr.GetLocationCollection(ctx)
	if err != nil {
		logger.FatalWithError(err, "Failed to get location collection")
	}

	// Create repositories
	sourceRepo := implementation.NewMongoSourceRepository(sourceColl)
	locationRepo := implementation.NewMongoLocationRepository(locationColl)

	if err := locationRepo.EnsureIndexes(ctx); err != nil {
		logger.FatalWithError(err, "Failed to create location indexes")
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Create controllers and register routes
	sourceController := controllers.NewSourceController(sourceRepo, locationRepo, logger)
	locationController := controllers.NewLocationController(sourceRepo, locationRepo, logger, config.Mongo.Retention)
	healthController := controllers.NewHealthController(health.NewHealthChecker(client), logger)
	staticController := controllers.NewStaticController(config.Static.Dir)

	sourceController.RegisterRoutes(router)
	locationController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)
	staticController.RegisterRoutes(router)

	// Create HTTP server with timeouts
	port := config.Server.Port
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("API service running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
