package purchase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListPurchases(ctx context.Context, limit int) ([]Purchase, error)
}

// TxRepository exposes transactional operations used by the purchase
// workflow. Ledger methods operate on locked rows.
type TxRepository interface {
	EnsureHomeLocation(ctx context.Context) (locationID int64, created bool, err error)
	InsertPurchase(ctx context.Context, p Purchase) (int64, error)
	EnsureMaterialStock(ctx context.Context, materialID, locationID int64) (stock.MaterialStock, bool, error)
	SetMaterialQty(ctx context.Context, materialID, locationID int64, qty float64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts workflow outcomes.
type MetricsPort interface {
	RecordStockMutation(workflow, outcome string)
}

// Service implements the purchase workflow: persist the purchase record and
// credit the material ledger at the lazily created home location, atomically.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	metrics  MetricsPort
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs purchase service.
func NewService(repo RepositoryPort, audit AuditPort, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, logger: logger, validate: validator.New()}
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordStockMutation("purchase", outcome)
	}
}

// CreatePurchase validates input, computes the exact total and applies the
// record plus the ledger credit as one transaction.
func (s *Service) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (Purchase, error) {
	if err := s.validate.Struct(req); err != nil {
		s.recordOutcome("rejected")
		return Purchase{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		s.recordOutcome("rejected")
		return Purchase{}, fmt.Errorf("%w: unit price %q is not a decimal", ErrValidation, req.UnitPrice)
	}
	if unitPrice.IsNegative() {
		s.recordOutcome("rejected")
		return Purchase{}, fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
	}

	total := unitPrice.Mul(decimal.NewFromFloat(req.Qty))
	purchase := Purchase{
		Date:        req.Date,
		MaterialID:  req.MaterialID,
		Qty:         req.Qty,
		UnitPrice:   unitPrice,
		TotalAmount: total,
		Supplier:    req.Supplier,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = id

		homeID, created, err := tx.EnsureHomeLocation(ctx)
		if err != nil {
			return err
		}
		if created && s.logger != nil {
			s.logger.Info("home location created", slog.Int64("location_id", homeID))
		}

		row, _, err := tx.EnsureMaterialStock(ctx, purchase.MaterialID, homeID)
		if err != nil {
			return err
		}
		return tx.SetMaterialQty(ctx, purchase.MaterialID, homeID, row.Qty+purchase.Qty)
	})
	if err != nil {
		s.recordOutcome("failed")
		return Purchase{}, err
	}

	s.recordOutcome("applied")
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  req.ActorID,
			Action:   "purchase:create",
			Entity:   "material_purchase",
			EntityID: fmt.Sprintf("%d", purchase.ID),
			Meta: map[string]any{
				"material_id": purchase.MaterialID,
				"qty":         purchase.Qty,
				"total":       purchase.TotalAmount.String(),
			},
		})
	}
	return purchase, nil
}

// ListPurchases returns recent purchases, newest first.
func (s *Service) ListPurchases(ctx context.Context, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListPurchases(ctx, limit)
}
