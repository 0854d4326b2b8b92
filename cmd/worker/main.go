package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atelier-erp/atelier-erp/internal/app"
	"github.com/atelier-erp/atelier-erp/internal/marketplace"
	"github.com/atelier-erp/atelier-erp/internal/platform/cache"
	"github.com/atelier-erp/atelier-erp/internal/platform/db"
	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	credStore, err := marketplace.NewCredentialStore(pool, cfg.CredentialSecret)
	if err != nil {
		logger.Error("init credential store", slog.Any("error", err))
		os.Exit(1)
	}
	listingCache := marketplace.NewListingCache(redisClient, cfg.ListingCacheTTL)
	mpClient := marketplace.NewClient(cfg.MarketplaceBaseURL, logger)
	// The worker handles refresh tasks itself, so it enqueues nothing.
	mpService := marketplace.NewService(credStore, mpClient, listingCache, nil, logger)

	idempotency := shared.NewIdempotencyStore(pool)

	registry := prometheus.NewRegistry()
	jobMetrics := jobs.NewMetrics(registry)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metricsMux}
	go func() {
		logger.Info("worker metrics listening", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	refreshTask, err := jobs.NewListingRefreshTask(jobs.ListingRefreshPayload{})
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskListingRefresh, Handler: jobs.NewListingRefreshHandler(mpService, jobMetrics, logger)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idempotency, jobMetrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
