package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/config"
	"github.com/hamed0406/prommonitor/internal/heartbeat"
	"github.com/hamed0406/prommonitor/internal/httpapi"
	apimw "github.com/hamed0406/prommonitor/internal/httpapi/middleware"
	"github.com/hamed0406/prommonitor/internal/logging"
	"github.com/hamed0406/prommonitor/internal/metrics"
	"github.com/hamed0406/prommonitor/internal/repo/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New("api", cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := cfg.ValidateRecorder(); err != nil {
		logger.Fatal("config_invalid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clusters, closeRegistry, err := registry.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("registry_open_failed", zap.String("backend", cfg.RegistryBackend), zap.Error(err))
	}

	m := metrics.New()
	rec := heartbeat.NewRecorder(logger, clusters, cfg.VerifyToken, m)
	api := httpapi.NewServer(logger, rec, clusters, m)

	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.HeartbeatRPM, cfg.HeartbeatBurst, cfg.APIRPM, cfg.APIBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.String("environment", cfg.EnvironmentName),
			zap.String("backend", cfg.RegistryBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := multierr.Combine(srv.Shutdown(shutdownCtx), closeRegistry(shutdownCtx)); err != nil {
		logger.Error("api_shutdown_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}
