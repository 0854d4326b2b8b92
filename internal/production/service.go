package production

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/catalog"
	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListProductions(ctx context.Context, limit int) ([]Production, error)
	ListUsage(ctx context.Context, productionID int64) ([]MaterialUsage, error)
}

// TxRepository exposes transactional operations used by the production
// workflow.
type TxRepository interface {
	ListBOM(ctx context.Context, productID int64) ([]catalog.BOMLine, error)
	InsertProduction(ctx context.Context, p Production) (int64, error)
	InsertMaterialUsage(ctx context.Context, usage MaterialUsage) error
	EnsureMaterialStock(ctx context.Context, materialID, locationID int64) (stock.MaterialStock, bool, error)
	SetMaterialQty(ctx context.Context, materialID, locationID int64, qty float64) error
	EnsureProductStock(ctx context.Context, productID, locationID int64) (stock.ProductStock, bool, error)
	SetProductQty(ctx context.Context, productID, locationID int64, qty float64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts workflow outcomes.
type MetricsPort interface {
	RecordStockMutation(workflow, outcome string)
}

// Service implements the production workflow: debit raw materials per BOM,
// record the theoretical usage and credit the finished product, atomically.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	metrics  MetricsPort
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs production service.
func NewService(repo RepositoryPort, audit AuditPort, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, logger: logger, validate: validator.New()}
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordStockMutation("production", outcome)
	}
}

// CreateProduction validates input and applies the run as one transaction.
// Material decrements clamp at zero; the usage audit lines keep the full
// theoretical consumption. A product without BOM lines only gets the
// finished-stock credit.
func (s *Service) CreateProduction(ctx context.Context, req CreateProductionRequest) (Result, error) {
	if err := s.validate.Struct(req); err != nil {
		s.recordOutcome("rejected")
		return Result{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	run := Production{
		Date:        req.Date,
		ProductID:   req.ProductID,
		LocationID:  req.LocationID,
		ProducedQty: req.ProducedQty,
	}
	var usage []MaterialUsage

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bom, err := tx.ListBOM(ctx, run.ProductID)
		if err != nil {
			return err
		}

		id, err := tx.InsertProduction(ctx, run)
		if err != nil {
			return err
		}
		run.ID = id

		for _, line := range bom {
			required := line.QtyPerUnit * run.ProducedQty

			row, _, err := tx.EnsureMaterialStock(ctx, line.MaterialID, run.LocationID)
			if err != nil {
				return err
			}
			remaining := row.Qty - required
			if remaining < 0 {
				if s.logger != nil {
					s.logger.Warn("material stock clamped to zero",
						slog.Int64("material_id", line.MaterialID),
						slog.Int64("location_id", run.LocationID),
						slog.Float64("on_hand", row.Qty),
						slog.Float64("required", required))
				}
				remaining = 0
			}
			if err := tx.SetMaterialQty(ctx, line.MaterialID, run.LocationID, remaining); err != nil {
				return err
			}

			u := MaterialUsage{ProductionID: run.ID, MaterialID: line.MaterialID, QtyUsed: required}
			if err := tx.InsertMaterialUsage(ctx, u); err != nil {
				return err
			}
			usage = append(usage, u)
		}

		productRow, _, err := tx.EnsureProductStock(ctx, run.ProductID, run.LocationID)
		if err != nil {
			return err
		}
		return tx.SetProductQty(ctx, run.ProductID, run.LocationID, productRow.Qty+run.ProducedQty)
	})
	if err != nil {
		s.recordOutcome("failed")
		return Result{}, err
	}

	s.recordOutcome("applied")
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  req.ActorID,
			Action:   "production:create",
			Entity:   "production",
			EntityID: fmt.Sprintf("%d", run.ID),
			Meta: map[string]any{
				"product_id":   run.ProductID,
				"location_id":  run.LocationID,
				"produced_qty": run.ProducedQty,
				"bom_lines":    len(usage),
			},
		})
	}
	return Result{Production: run, Usage: usage}, nil
}

// ListProductions returns recent runs, newest first.
func (s *Service) ListProductions(ctx context.Context, limit int) ([]Production, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListProductions(ctx, limit)
}

// ListUsage returns the usage audit lines of one run.
func (s *Service) ListUsage(ctx context.Context, productionID int64) ([]MaterialUsage, error) {
	return s.repo.ListUsage(ctx, productionID)
}
