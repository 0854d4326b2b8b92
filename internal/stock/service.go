package stock

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort abstracts ledger reads for service.
type RepositoryPort interface {
	ListMaterialStocks(ctx context.Context, filter Filter) ([]MaterialStockDetail, error)
	ListProductStocks(ctx context.Context, filter Filter) ([]ProductStockDetail, error)
	MaterialSummary(ctx context.Context, filter Filter) (total float64, critical int, err error)
	ProductSummary(ctx context.Context, filter Filter, lowThreshold float64) (total float64, low int, err error)
}

// Service provides read-only ledger projections. It never mutates stock.
type Service struct {
	repo         RepositoryPort
	lowThreshold float64
}

// NewService builds Service. A non-positive threshold falls back to the
// default.
func NewService(repo RepositoryPort, lowThreshold float64) *Service {
	if lowThreshold <= 0 {
		lowThreshold = DefaultLowStockThreshold
	}
	return &Service{repo: repo, lowThreshold: lowThreshold}
}

// Overview bundles the ledger rows with the aggregate summary.
type Overview struct {
	MaterialStocks []MaterialStockDetail `json:"material_stocks"`
	ProductStocks  []ProductStockDetail  `json:"product_stocks"`
	Summary        Summary               `json:"summary"`
}

// Summary computes ledger totals and critical counts for the filter scope.
func (s *Service) Summary(ctx context.Context, filter Filter) (Summary, error) {
	var out Summary
	out.LowStockThreshold = s.lowThreshold

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, critical, err := s.repo.MaterialSummary(gctx, filter)
		if err != nil {
			return err
		}
		out.TotalMaterials = total
		out.CriticalMaterials = critical
		return nil
	})
	g.Go(func() error {
		total, low, err := s.repo.ProductSummary(gctx, filter, s.lowThreshold)
		if err != nil {
			return err
		}
		out.TotalProducts = total
		out.LowStockProducts = low
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// Overview lists ledger rows and the summary for the filter scope.
func (s *Service) Overview(ctx context.Context, filter Filter) (Overview, error) {
	summary, err := s.Summary(ctx, filter)
	if err != nil {
		return Overview{}, err
	}
	materials, err := s.repo.ListMaterialStocks(ctx, filter)
	if err != nil {
		return Overview{}, err
	}
	products, err := s.repo.ListProductStocks(ctx, filter)
	if err != nil {
		return Overview{}, err
	}
	return Overview{MaterialStocks: materials, ProductStocks: products, Summary: summary}, nil
}
