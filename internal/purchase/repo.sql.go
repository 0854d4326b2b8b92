package purchase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atelier-erp/atelier-erp/internal/catalog"
	"github.com/atelier-erp/atelier-erp/internal/platform/db"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

// Repository persists purchases in PostgreSQL.
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
		return errors.New("purchase repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: stock.NewTxLedger(tx)})
	})
}

// ListPurchases returns recent purchases, newest first.
func (r *Repository) ListPurchases(ctx context.Context, limit int) ([]Purchase, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, date, material_id, qty, unit_price::text, total_amount::text, supplier, created_at
FROM material_purchases ORDER BY date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Purchase{}
	for rows.Next() {
		var p Purchase
		var unitPrice, total string
		if err := rows.Scan(&p.ID, &p.Date, &p.MaterialID, &p.Qty, &unitPrice, &total, &p.Supplier, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if p.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) EnsureHomeLocation(ctx context.Context) (int64, bool, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO locations (name, kind) VALUES ($1, $2)
ON CONFLICT (name) DO NOTHING
RETURNING id`, catalog.HomeLocationName, string(catalog.LocationKindHome)).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}
	err = r.tx.QueryRow(ctx, `SELECT id FROM locations WHERE name=$1`, catalog.HomeLocationName).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

func (r *txRepository) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO material_purchases (date, material_id, qty, unit_price, total_amount, supplier)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`, p.Date, p.MaterialID, p.Qty, p.UnitPrice.String(), p.TotalAmount.String(), p.Supplier).Scan(&id)
	return id, err
}

func (r *txRepository) EnsureMaterialStock(ctx context.Context, materialID, locationID int64) (stock.MaterialStock, bool, error) {
	return r.ledger.EnsureMaterialStock(ctx, materialID, locationID)
}

func (r *txRepository) SetMaterialQty(ctx context.Context, materialID, locationID int64, qty float64) error {
	return r.ledger.SetMaterialQty(ctx, materialID, locationID, qty)
}
