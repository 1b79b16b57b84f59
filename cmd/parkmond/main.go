package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-monitor-backend/config"
	"parking-monitor-backend/internal/alerting"
	"parking-monitor-backend/internal/api"
	"parking-monitor-backend/internal/db"
	"parking-monitor-backend/internal/ingest"
	"parking-monitor-backend/internal/report"
	"parking-monitor-backend/internal/sweep"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "parking-monitor ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Domain engines
	alerts := alerting.NewEngine(gormDB)
	reports := report.NewEngine(gormDB)
	pipeline := ingest.NewPipeline(gormDB, alerts, cfg.Alerting.HighPowerThresholdWatts)

	// Run the offline sweep in the background
	sweepSvc := sweep.NewService(cfg, alerts)
	go sweepSvc.Run(ctx)

	// Initialize router
	router := api.NewRouter(&cfg.Server, pipeline, alerts, reports)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
