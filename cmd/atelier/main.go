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

	"github.com/atelier-erp/atelier-erp/internal/app"
	"github.com/atelier-erp/atelier-erp/internal/catalog"
	"github.com/atelier-erp/atelier-erp/internal/marketplace"
	"github.com/atelier-erp/atelier-erp/internal/observability"
	"github.com/atelier-erp/atelier-erp/internal/platform/cache"
	"github.com/atelier-erp/atelier-erp/internal/platform/db"
	"github.com/atelier-erp/atelier-erp/internal/production"
	"github.com/atelier-erp/atelier-erp/internal/purchase"
	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/shipment"
	"github.com/atelier-erp/atelier-erp/internal/stock"
	"github.com/atelier-erp/atelier-erp/jobs"
	"github.com/atelier-erp/atelier-erp/migrations"
)

// refreshEnqueuer adapts the jobs queue client to the marketplace port.
type refreshEnqueuer struct {
	client *jobs.Client
}

func (e refreshEnqueuer) EnqueueListingRefresh(ctx context.Context, ownerID int64) error {
	_, err := e.client.EnqueueListingRefresh(ctx, jobs.ListingRefreshPayload{OwnerID: ownerID})
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := migrations.Up(cfg.PGDSN); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, listing cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	catalogService := catalog.NewService(catalog.NewRepository(pool))
	catalogHandler := catalog.NewHandler(logger, catalogService)

	stockService := stock.NewService(stock.NewRepository(pool), cfg.LowStockThreshold)
	stockHandler := stock.NewHandler(logger, stockService)

	purchaseService := purchase.NewService(purchase.NewRepository(pool), auditLogger, metrics, logger)
	purchaseHandler := purchase.NewHandler(logger, purchaseService)

	productionService := production.NewService(production.NewRepository(pool), auditLogger, metrics, logger)
	productionHandler := production.NewHandler(logger, productionService)

	shipmentService := shipment.NewService(shipment.NewRepository(pool), auditLogger, metrics, logger)
	shipmentHandler := shipment.NewHandler(logger, shipmentService)

	credStore, err := marketplace.NewCredentialStore(pool, cfg.CredentialSecret)
	if err != nil {
		logger.Error("init credential store", slog.Any("error", err))
		os.Exit(1)
	}
	listingCache := marketplace.NewListingCache(redisClient, cfg.ListingCacheTTL)
	mpClient := marketplace.NewClient(cfg.MarketplaceBaseURL, logger)
	queueClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = queueClient.Close() }()
	mpService := marketplace.NewService(credStore, mpClient, listingCache,
		refreshEnqueuer{client: queueClient}, logger)
	mpHandler := marketplace.NewHandler(logger, mpService)

	handler := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CatalogHandler:     catalogHandler,
		StockHandler:       stockHandler,
		PurchaseHandler:    purchaseHandler,
		ProductionHandler:  productionHandler,
		ShipmentHandler:    shipmentHandler,
		MarketplaceHandler: mpHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      handler,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
