// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rfq-workers/internal/api"
	"rfq-workers/internal/common/camunda"
	"rfq-workers/internal/common/config"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/orchestrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if cfg.Tracing.Enabled {
		tracing, err := observability.NewJaegerTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
		obs.EnableTracing(tracing)
		zapLog.Info("Jaeger tracing enabled", zap.String("endpoint", cfg.Tracing.JaegerEndpoint))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Orchestrator ---
	engineCfg, err := orchestrator.ConfigFrom(cfg)
	if err != nil {
		zapLog.Fatal("invalid conversation config", zap.Error(err))
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		zapLog.Fatal("generation backend init failed", zap.Error(err))
	}
	engine := orchestrator.New(gen, engineCfg, log, obs)
	zapLog.Info("Orchestrator ready",
		zap.String("provider", cfg.Generation.Provider),
		zap.String("kind", string(engineCfg.Kind)),
		zap.String("failurePolicy", string(engineCfg.FailurePolicy)),
	)

	// --- Storage ---
	deps, err := connectInfrastructure(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("infrastructure init failed", zap.Error(err))
	}
	defer deps.Close()

	// --- Workers ---
	var workers []worker.JobWorker
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		}, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		workers, err = registerWorkers(ctx, zeebe, cfg, engine, deps, obs, log)
		if err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	} else {
		zapLog.Info("Camunda disabled, serving HTTP API only")
	}

	// --- HTTP: API, Health & Metrics ---
	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(cfg.App.Name, deps.apiServer(engine, log))
	registerOps(router, cfg, deps, zeebe)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}
