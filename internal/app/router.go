package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atelier-erp/atelier-erp/internal/catalog"
	"github.com/atelier-erp/atelier-erp/internal/marketplace"
	"github.com/atelier-erp/atelier-erp/internal/observability"
	"github.com/atelier-erp/atelier-erp/internal/production"
	"github.com/atelier-erp/atelier-erp/internal/purchase"
	"github.com/atelier-erp/atelier-erp/internal/shipment"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CatalogHandler     *catalog.Handler
	StockHandler       *stock.Handler
	PurchaseHandler    *purchase.Handler
	ProductionHandler  *production.Handler
	ShipmentHandler    *shipment.Handler
	MarketplaceHandler *marketplace.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Atelier defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.CatalogHandler != nil {
			r.Route("/catalog", params.CatalogHandler.MountRoutes)
		}
		if params.StockHandler != nil {
			r.Route("/stocks", params.StockHandler.MountRoutes)
		}
		if params.PurchaseHandler != nil {
			r.Route("/purchases", params.PurchaseHandler.MountRoutes)
		}
		if params.ProductionHandler != nil {
			r.Route("/productions", params.ProductionHandler.MountRoutes)
		}
		if params.ShipmentHandler != nil {
			r.Route("/shipments", params.ShipmentHandler.MountRoutes)
		}
		if params.MarketplaceHandler != nil {
			r.Route("/marketplace", params.MarketplaceHandler.MountRoutes)
		}
	})

	return r
}
