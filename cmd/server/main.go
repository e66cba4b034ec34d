// Package main provides the entry point for the TaaS admin service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MyTechPlan/oc-client/internal/config"
	"github.com/MyTechPlan/oc-client/internal/metrics"
	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/MyTechPlan/oc-client/internal/server"
	"github.com/MyTechPlan/oc-client/internal/tenant"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)
	defer logger.Sync()

	logger.Info("starting TaaS admin",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Environment),
	)

	registry, err := tenant.Load(cfg)
	if err != nil {
		logger.Fatal("failed to load tenants", zap.Error(err))
	}
	logger.Info("tenants loaded", zap.Int("count", len(registry.List())))

	m := metrics.NewMetrics()

	repo, err := repository.NewClient(cfg.GitHub, m, logger)
	if err != nil {
		logger.Fatal("failed to create GitHub client", zap.Error(err))
	}

	// Start metrics server if enabled
	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		logger.Info("metrics server started",
			zap.Int("port", cfg.Metrics.Port),
			zap.String("path", cfg.Metrics.Path),
		)
	}

	httpServer, err := server.NewServer(cfg, repo, registry, m, logger)
	if err != nil {
		logger.Fatal("failed to create HTTP server", zap.Error(err))
	}

	errChan := httpServer.StartAsync()
	m.SetHealthStatus(true)
	logger.Info("HTTP server started", zap.Int("port", cfg.Server.Port))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("initiating graceful shutdown")
	m.SetHealthStatus(false)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}

	logger.Info("TaaS admin shutdown complete")
}

// initLogger builds the zap logger from cfg. "console" selects the
// development encoder; anything else logs JSON.
func initLogger(cfg config.LoggingConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		// Fallback to basic logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
