// cmd/insights-server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sales-insights/internal/cache"
	"sales-insights/internal/common/config"
	"sales-insights/internal/common/database"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/common/observability"
	"sales-insights/internal/dataprep"
	"sales-insights/internal/engine/classifier"
	"sales-insights/internal/engine/dispatcher"
	"sales-insights/internal/engine/executor"
	"sales-insights/internal/engine/formatter"
	"sales-insights/internal/narration"
	"sales-insights/internal/server"
	"sales-insights/internal/session"
	"sales-insights/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "console")
		bootstrap.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting insights server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("dataset", cfg.Dataset.Path),
	)

	obs := observability.New("insights-server")
	defer obs.Shutdown()

	// --- Load dataset ---
	loader := dataprep.NewLoader(cfg.Dataset.DateFormat, log)
	records, report, err := loader.LoadFile(cfg.Dataset.Path)
	if err != nil {
		zapLog.Fatal("dataset load failed", zap.Error(err))
	}
	dataset, err := store.NewDataset(records)
	if err != nil {
		zapLog.Fatal("dataset preparation failed", zap.Error(err))
	}
	st := store.New(dataset)
	minYear, maxYear := dataset.Years()
	zapLog.Info("Dataset loaded",
		zap.Int("rows", report.Rows),
		zap.Int("skipped", report.Skipped),
		zap.Int("minYear", minYear),
		zap.Int("maxYear", maxYear),
	)

	// --- Optional result cache ---
	var resultCache cache.ResultCache
	var redisClient *database.RedisClient
	if cfg.Cache.Enabled {
		redisClient, err = database.NewRedis(cfg.Cache.Redis)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx); err != nil {
			zapLog.Warn("redis unreachable, running without cache", zap.Error(err))
			redisClient.Close()
			redisClient = nil
		} else {
			resultCache = cache.NewRedisCache(redisClient, cfg.Cache.TTLDuration(), log)
			zapLog.Info("Result cache enabled", zap.String("address", cfg.Cache.Redis.Address))
		}
		cancel()
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// --- Optional narration ---
	var narrator narration.Narrator
	if cfg.Narration.Enabled {
		narrator = narration.NewHTTPNarrator(&cfg.Narration, log)
		zapLog.Info("Narration enabled", zap.Strings("models", cfg.Narration.Models))
	}

	// --- Engine ---
	cls := classifier.New(dataset.Vocabulary(), cfg.Engine.MinIntentScore)
	d := dispatcher.New(
		st,
		cls,
		executor.New(),
		formatter.New(),
		narrator,
		resultCache,
		obs,
		log,
		cfg.Engine,
	)
	sessions := session.NewManager(cfg.Engine.HistoryLimit)

	// --- Metrics server ---
	if cfg.Server.MetricsAddress != "" && cfg.Server.MetricsAddress != cfg.Server.Address {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
			if err := http.ListenAndServe(cfg.Server.MetricsAddress, mux); err != nil {
				zapLog.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- API server ---
	srv := server.New(d, sessions, log, cfg.Server.Address)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down server", zap.Error(err))
	}

	zapLog.Info("Insights server stopped gracefully")
}
