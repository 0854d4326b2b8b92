package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the stock ledger from PostgreSQL. All mutation happens
// through TxLedger inside a workflow transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListMaterialStocks lists material ledger rows, optionally for one location.
func (r *Repository) ListMaterialStocks(ctx context.Context, filter Filter) ([]MaterialStockDetail, error) {
	query := `SELECT s.material_id, s.location_id, s.qty, s.updated_at, m.name, m.unit, l.name
FROM material_stocks s
JOIN materials m ON m.id = s.material_id
JOIN locations l ON l.id = s.location_id`
	args := []any{}
	if filter.LocationID != nil {
		query += ` WHERE s.location_id = $1`
		args = append(args, *filter.LocationID)
	}
	query += ` ORDER BY m.name, l.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MaterialStockDetail{}
	for rows.Next() {
		var d MaterialStockDetail
		if err := rows.Scan(&d.MaterialID, &d.LocationID, &d.Qty, &d.UpdatedAt, &d.MaterialName, &d.Unit, &d.LocationName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListProductStocks lists product ledger rows, optionally for one location.
func (r *Repository) ListProductStocks(ctx context.Context, filter Filter) ([]ProductStockDetail, error) {
	query := `SELECT s.product_id, s.location_id, s.qty, s.updated_at, p.name, l.name
FROM product_stocks s
JOIN products p ON p.id = s.product_id
JOIN locations l ON l.id = s.location_id`
	args := []any{}
	if filter.LocationID != nil {
		query += ` WHERE s.location_id = $1`
		args = append(args, *filter.LocationID)
	}
	query += ` ORDER BY p.name, l.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProductStockDetail{}
	for rows.Next() {
		var d ProductStockDetail
		if err := rows.Scan(&d.ProductID, &d.LocationID, &d.Qty, &d.UpdatedAt, &d.ProductName, &d.LocationName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MaterialSummary aggregates material quantities and the zero-quantity count.
func (r *Repository) MaterialSummary(ctx context.Context, filter Filter) (total float64, critical int, err error) {
	query := `SELECT COALESCE(SUM(qty), 0), COUNT(*) FILTER (WHERE qty = 0) FROM material_stocks`
	args := []any{}
	if filter.LocationID != nil {
		query += ` WHERE location_id = $1`
		args = append(args, *filter.LocationID)
	}
	err = r.pool.QueryRow(ctx, query, args...).Scan(&total, &critical)
	return total, critical, err
}

// ProductSummary aggregates product quantities and the low-stock count.
func (r *Repository) ProductSummary(ctx context.Context, filter Filter, lowThreshold float64) (total float64, low int, err error) {
	query := `SELECT COALESCE(SUM(qty), 0), COUNT(*) FILTER (WHERE qty < $1) FROM product_stocks`
	args := []any{lowThreshold}
	if filter.LocationID != nil {
		query += ` WHERE location_id = $2`
		args = append(args, *filter.LocationID)
	}
	err = r.pool.QueryRow(ctx, query, args...).Scan(&total, &low)
	return total, low, err
}

// TxLedger mutates ledger rows inside a workflow transaction. Row locks
// taken by the FOR UPDATE reads serialize concurrent transactions touching
// the same (material, location) or (product, location) pair.
type TxLedger struct {
	tx pgx.Tx
}

// NewTxLedger wraps an open transaction.
func NewTxLedger(tx pgx.Tx) *TxLedger {
	return &TxLedger{tx: tx}
}

// EnsureMaterialStock returns the locked ledger row for (material, location),
// creating it with quantity zero when absent. The second result reports
// whether the row was created.
func (l *TxLedger) EnsureMaterialStock(ctx context.Context, materialID, locationID int64) (MaterialStock, bool, error) {
	var s MaterialStock
	err := l.tx.QueryRow(ctx, `INSERT INTO material_stocks (material_id, location_id, qty)
VALUES ($1, $2, 0)
ON CONFLICT (material_id, location_id) DO NOTHING
RETURNING material_id, location_id, qty, updated_at`, materialID, locationID).
		Scan(&s.MaterialID, &s.LocationID, &s.Qty, &s.UpdatedAt)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return MaterialStock{}, false, err
	}
	err = l.tx.QueryRow(ctx, `SELECT material_id, location_id, qty, updated_at
FROM material_stocks WHERE material_id=$1 AND location_id=$2 FOR UPDATE`, materialID, locationID).
		Scan(&s.MaterialID, &s.LocationID, &s.Qty, &s.UpdatedAt)
	if err != nil {
		return MaterialStock{}, false, err
	}
	return s, false, nil
}

// SetMaterialQty writes the new quantity for a locked material row.
func (l *TxLedger) SetMaterialQty(ctx context.Context, materialID, locationID int64, qty float64) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	_, err := l.tx.Exec(ctx, `UPDATE material_stocks SET qty=$3, updated_at=NOW()
WHERE material_id=$1 AND location_id=$2`, materialID, locationID, qty)
	return err
}

// EnsureProductStock returns the locked ledger row for (product, location),
// creating it with quantity zero when absent.
func (l *TxLedger) EnsureProductStock(ctx context.Context, productID, locationID int64) (ProductStock, bool, error) {
	var s ProductStock
	err := l.tx.QueryRow(ctx, `INSERT INTO product_stocks (product_id, location_id, qty)
VALUES ($1, $2, 0)
ON CONFLICT (product_id, location_id) DO NOTHING
RETURNING product_id, location_id, qty, updated_at`, productID, locationID).
		Scan(&s.ProductID, &s.LocationID, &s.Qty, &s.UpdatedAt)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ProductStock{}, false, err
	}
	err = l.tx.QueryRow(ctx, `SELECT product_id, location_id, qty, updated_at
FROM product_stocks WHERE product_id=$1 AND location_id=$2 FOR UPDATE`, productID, locationID).
		Scan(&s.ProductID, &s.LocationID, &s.Qty, &s.UpdatedAt)
	if err != nil {
		return ProductStock{}, false, err
	}
	return s, false, nil
}

// SetProductQty writes the new quantity for a locked product row.
func (l *TxLedger) SetProductQty(ctx context.Context, productID, locationID int64, qty float64) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	_, err := l.tx.Exec(ctx, `UPDATE product_stocks SET qty=$3, updated_at=NOW()
WHERE product_id=$1 AND location_id=$2`, productID, locationID, qty)
	return err
}
