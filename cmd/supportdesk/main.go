package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/config"
	logpkg "github.com/kailas-cloud/supportdesk/internal/logger"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
	chiTransport "github.com/kailas-cloud/supportdesk/internal/transport/chi"
	"github.com/kailas-cloud/supportdesk/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting supportdesk API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("audit_driver", cfg.Audit.Driver),
		zap.String("notify_driver", cfg.Notify.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCompletionMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()
	app, err := build(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	defer app.close()

	handler := chiTransport.NewRouter(app.server, chiTransport.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MetricsAPIKeys: cfg.HTTP.MetricsAPIKeys,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       config.Seconds(cfg.HTTP.ReadTimeoutSec),
		ReadHeaderTimeout: config.Seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout:      config.Seconds(cfg.HTTP.WriteTimeoutSec),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
