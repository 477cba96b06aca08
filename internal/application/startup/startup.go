// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postpal/postpal-go/internal/application/container"
	"github.com/postpal/postpal-go/internal/infrastructure/airtable"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/performance"
	persistenceanalytics "github.com/postpal/postpal-go/internal/infrastructure/persistence/analytics"
	"github.com/postpal/postpal-go/internal/infrastructure/persistence/database"
	"github.com/postpal/postpal-go/internal/presentation/http/server"
	"github.com/postpal/postpal-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("PostPal lead-capture service starting...")

	// Step 1: Load record-store configuration (fail fast on missing env)
	log.Println("Loading record store configuration...")
	storeCfg, err := airtable.LoadConfig()
	if err != nil {
		return fmt.Errorf("record store configuration failed: %w", err)
	}
	log.Printf("✓ Record store configured for table %q", storeCfg.TableName)

	// Step 2: Initialize channeled logging
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Channeled logging initialized")

	// Step 3: Open the analytics event log
	logger.Startup().Info("Opening analytics event log...")
	eventLogDB, err := database.NewEventLogConnection(logger)
	if err != nil {
		return fmt.Errorf("failed to open event log database: %w", err)
	}

	eventRepo := persistenceanalytics.NewSQLEventRepository(eventLogDB, logger)
	if err := eventRepo.EnsureSchema(); err != nil {
		eventLogDB.Close()
		return fmt.Errorf("failed to prepare event log schema: %w", err)
	}
	logger.Startup().Info("Event log schema verified", "driver", eventLogDB.Driver)

	// Step 4: Create dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	perfTracker := performance.NewTracker(nil)
	appContainer := container.New(storeCfg, eventLogDB, logger, perfTracker)
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 5: Start session sweep worker
	go func() {
		ticker := time.NewTicker(config.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := appContainer.Sessions.Sweep(); removed > 0 {
					logger.System().Debug("Session sweep completed",
						"removed", removed, "remaining", appContainer.Sessions.Len())
				}
			}
		}
	}()
	logger.Startup().Info("Session sweep worker started", "interval", config.SessionSweepInterval)

	// Step 6: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	port := os.Getenv("PORT")
	if port == "" {
		port = config.Port
	}
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Closing event log database...")
	if err := eventLogDB.Close(); err != nil {
		logger.Shutdown().Error("Error closing event log database", "error", err.Error())
	} else {
		logger.Shutdown().Info("Event log database closed successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	logger.Close()
	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
