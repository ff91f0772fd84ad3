package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lorehaven/recap"
	"github.com/lorehaven/recap/internal/config"
	"github.com/lorehaven/recap/internal/errortypes"
	"github.com/lorehaven/recap/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFilename, "path to the configuration file")
	flag.Parse()

	// Environment overrides may live in a .env file next to the binary.
	_ = godotenv.Load()

	appLogger := setupLogging()

	appLogger.Info("Recap MCP Server - Starting...")

	settings, err := config.LoadSettingsWithPath(*configPath)
	if err != nil {
		errortypes.LogError(appLogger, err)
		appLogger.Fatal("Failed to load configuration")
	}

	// Configure logging based on config
	if settings.Logging.Level != "" {
		appLogger.SetLevel(logger.ParseLevel(settings.Logging.Level))
		appLogger.Info("Log level set to %s", settings.Logging.Level)
	}

	if settings.Logging.Format == "json" {
		appLogger.SetFormat(logger.JSON)
		appLogger.Info("Log format set to JSON")
	}

	service, err := recap.NewService(recap.ServiceOptions{
		Settings: settings,
		Logger:   appLogger,
	})
	if err != nil {
		errortypes.LogError(appLogger, err)
		appLogger.Fatal("Failed to initialize recap service")
	}

	setupSignalHandler(service, appLogger)

	// Start blocks until the MCP client closes stdin.
	appLogger.Info("Starting MCP server...")
	if err := service.Start(); err != nil {
		errortypes.LogError(appLogger, err)
		appLogger.Fatal("MCP server failed")
	}
}

// setupLogging configures and returns the application logger
func setupLogging() *logger.Logger {
	cfg := logger.DefaultConfig()

	if levelStr := os.Getenv("RECAP_LOG_LEVEL"); levelStr != "" {
		cfg.Level = logger.ParseLevel(levelStr)
	}

	appLogger := logger.New(cfg)
	logger.SetDefaultLogger(appLogger)

	return appLogger
}

// setupSignalHandler sets up a signal handler for graceful shutdown.
func setupSignalHandler(service *recap.Service, log *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully...")

		if err := service.Stop(); err != nil {
			errortypes.LogError(log, err)
		}

		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}
