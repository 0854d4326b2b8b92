package shipment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListShipments(ctx context.Context, limit int) ([]Shipment, error)
	GetLogistics(ctx context.Context, shipmentID int64) (Logistics, error)
}

// TxRepository exposes transactional operations used by the shipment
// workflow. Ledger methods operate on locked rows; the idempotency claim
// shares the transaction so the key commits or rolls back with the move.
type TxRepository interface {
	ClaimIdempotencyKey(ctx context.Context, key string) error
	InsertShipment(ctx context.Context, sh Shipment) (int64, error)
	InsertLogistics(ctx context.Context, lg Logistics) (int64, error)
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

const idempotencyModule = "shipment"

// Service implements the shipment workflow: verify the source holds enough
// stock, then move it and persist the record, atomically. An insufficient
// source aborts the whole transaction and leaves no record behind.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	metrics  MetricsPort
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs shipment service.
func NewService(repo RepositoryPort, audit AuditPort, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		validate: validator.New(),
	}
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordStockMutation("shipment", outcome)
	}
}

// CreateShipment validates input, then claims the external reference and
// moves the stock in a single transaction. A retried reference returns
// ErrDuplicate without touching the ledger; any rollback releases the
// reference along with it, so the caller may retry.
func (s *Service) CreateShipment(ctx context.Context, req CreateShipmentRequest) (Result, error) {
	if err := s.validate.Struct(req); err != nil {
		s.recordOutcome("rejected")
		return Result{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.FromLocationID == req.ToLocationID {
		s.recordOutcome("rejected")
		return Result{}, fmt.Errorf("%w: source and destination must differ", ErrValidation)
	}

	var cost decimal.Decimal
	if req.Logistics != nil {
		var err error
		if cost, err = decimal.NewFromString(req.Logistics.Cost); err != nil {
			s.recordOutcome("rejected")
			return Result{}, fmt.Errorf("%w: logistics cost %q is not a decimal", ErrValidation, req.Logistics.Cost)
		}
		if cost.IsNegative() {
			s.recordOutcome("rejected")
			return Result{}, fmt.Errorf("%w: logistics cost must be >= 0", ErrValidation)
		}
	}

	ref := req.ExternalRef
	if ref == "" {
		ref = uuid.NewString()
	}

	sh := Shipment{
		Date:           req.Date,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		ProductID:      req.ProductID,
		Qty:            req.Qty,
		ExternalRef:    ref,
		Comment:        req.Comment,
	}
	var lg *Logistics

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.ClaimIdempotencyKey(ctx, ref); err != nil {
			return err
		}

		source, _, err := tx.EnsureProductStock(ctx, sh.ProductID, sh.FromLocationID)
		if err != nil {
			return err
		}
		if source.Qty < sh.Qty {
			return fmt.Errorf("%w: have %v, need %v", ErrInsufficientStock, source.Qty, sh.Qty)
		}
		if err := tx.SetProductQty(ctx, sh.ProductID, sh.FromLocationID, source.Qty-sh.Qty); err != nil {
			return err
		}

		dest, _, err := tx.EnsureProductStock(ctx, sh.ProductID, sh.ToLocationID)
		if err != nil {
			return err
		}
		if err := tx.SetProductQty(ctx, sh.ProductID, sh.ToLocationID, dest.Qty+sh.Qty); err != nil {
			return err
		}

		id, err := tx.InsertShipment(ctx, sh)
		if err != nil {
			return err
		}
		sh.ID = id

		if req.Logistics != nil {
			row := Logistics{
				ShipmentID: sh.ID,
				Carrier:    req.Logistics.Carrier,
				Cost:       cost,
				Tracking:   req.Logistics.Tracking,
			}
			if row.ID, err = tx.InsertLogistics(ctx, row); err != nil {
				return err
			}
			lg = &row
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			s.recordOutcome("rejected")
			return Result{}, fmt.Errorf("%w: external ref %q", ErrDuplicate, ref)
		}
		if errors.Is(err, ErrInsufficientStock) {
			s.recordOutcome("rejected")
		} else {
			s.recordOutcome("failed")
		}
		return Result{}, err
	}

	s.recordOutcome("applied")
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  req.ActorID,
			Action:   "shipment:create",
			Entity:   "shipment",
			EntityID: fmt.Sprintf("%d", sh.ID),
			Meta: map[string]any{
				"product_id":   sh.ProductID,
				"from":         sh.FromLocationID,
				"to":           sh.ToLocationID,
				"qty":          sh.Qty,
				"external_ref": sh.ExternalRef,
			},
		})
	}
	return Result{Shipment: sh, Logistics: lg}, nil
}

// ListShipments returns recent shipments, newest first.
func (s *Service) ListShipments(ctx context.Context, limit int) ([]Shipment, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListShipments(ctx, limit)
}

// GetLogistics returns the logistics row of one shipment.
func (s *Service) GetLogistics(ctx context.Context, shipmentID int64) (Logistics, error) {
	return s.repo.GetLogistics(ctx, shipmentID)
}
