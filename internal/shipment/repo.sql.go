package shipment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atelier-erp/atelier-erp/internal/platform/db"
	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

// Repository persists shipments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx     pgx.Tx
	ledger *stock.TxLedger
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("shipment repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: stock.NewTxLedger(tx)})
	})
}

// ListShipments returns recent shipments, newest first.
func (r *Repository) ListShipments(ctx context.Context, limit int) ([]Shipment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, date, from_location_id, to_location_id, product_id, qty, external_ref, comment, created_at
FROM shipments ORDER BY date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Shipment{}
	for rows.Next() {
		var sh Shipment
		if err := rows.Scan(&sh.ID, &sh.Date, &sh.FromLocationID, &sh.ToLocationID, &sh.ProductID, &sh.Qty, &sh.ExternalRef, &sh.Comment, &sh.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// GetLogistics returns the logistics row of one shipment.
func (r *Repository) GetLogistics(ctx context.Context, shipmentID int64) (Logistics, error) {
	var lg Logistics
	var cost string
	err := r.pool.QueryRow(ctx, `SELECT id, shipment_id, carrier, cost::text, tracking
FROM shipment_logistics WHERE shipment_id=$1`, shipmentID).
		Scan(&lg.ID, &lg.ShipmentID, &lg.Carrier, &cost, &lg.Tracking)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Logistics{}, ErrNotFound
		}
		return Logistics{}, err
	}
	if lg.Cost, err = decimal.NewFromString(cost); err != nil {
		return Logistics{}, err
	}
	return lg, nil
}

func (r *txRepository) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return shared.ClaimIdempotencyKey(ctx, r.tx, key, idempotencyModule)
}

func (r *txRepository) InsertShipment(ctx context.Context, sh Shipment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO shipments (date, from_location_id, to_location_id, product_id, qty, external_ref, comment)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`, sh.Date, sh.FromLocationID, sh.ToLocationID, sh.ProductID, sh.Qty, sh.ExternalRef, sh.Comment).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLogistics(ctx context.Context, lg Logistics) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO shipment_logistics (shipment_id, carrier, cost, tracking)
VALUES ($1, $2, $3, $4)
RETURNING id`, lg.ShipmentID, lg.Carrier, lg.Cost.String(), lg.Tracking).Scan(&id)
	return id, err
}

func (r *txRepository) EnsureProductStock(ctx context.Context, productID, locationID int64) (stock.ProductStock, bool, error) {
	return r.ledger.EnsureProductStock(ctx, productID, locationID)
}

func (r *txRepository) SetProductQty(ctx context.Context, productID, locationID int64, qty float64) error {
	return r.ledger.SetProductQty(ctx, productID, locationID, qty)
}
