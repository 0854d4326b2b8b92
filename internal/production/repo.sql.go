package production

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/catalog"
	"github.com/atelier-erp/atelier-erp/internal/platform/db"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

// Repository persists production runs in PostgreSQL.
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
		return errors.New("production repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: stock.NewTxLedger(tx)})
	})
}

// ListProductions returns recent runs, newest first.
func (r *Repository) ListProductions(ctx context.Context, limit int) ([]Production, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, date, product_id, location_id, produced_qty, created_at
FROM productions ORDER BY date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Production{}
	for rows.Next() {
		var p Production
		if err := rows.Scan(&p.ID, &p.Date, &p.ProductID, &p.LocationID, &p.ProducedQty, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListUsage returns the usage audit lines of one run.
func (r *Repository) ListUsage(ctx context.Context, productionID int64) ([]MaterialUsage, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, production_id, material_id, qty_used
FROM production_materials WHERE production_id=$1 ORDER BY id`, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MaterialUsage{}
	for rows.Next() {
		var u MaterialUsage
		if err := rows.Scan(&u.ID, &u.ProductionID, &u.MaterialID, &u.QtyUsed); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *txRepository) ListBOM(ctx context.Context, productID int64) ([]catalog.BOMLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, product_id, material_id, qty_per_unit
FROM product_bom WHERE product_id=$1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []catalog.BOMLine{}
	for rows.Next() {
		var line catalog.BOMLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.MaterialID, &line.QtyPerUnit); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

func (r *txRepository) InsertProduction(ctx context.Context, p Production) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO productions (date, product_id, location_id, produced_qty)
VALUES ($1, $2, $3, $4)
RETURNING id`, p.Date, p.ProductID, p.LocationID, p.ProducedQty).Scan(&id)
	return id, err
}

func (r *txRepository) InsertMaterialUsage(ctx context.Context, usage MaterialUsage) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO production_materials (production_id, material_id, qty_used)
VALUES ($1, $2, $3)`, usage.ProductionID, usage.MaterialID, usage.QtyUsed)
	return err
}

func (r *txRepository) EnsureMaterialStock(ctx context.Context, materialID, locationID int64) (stock.MaterialStock, bool, error) {
	return r.ledger.EnsureMaterialStock(ctx, materialID, locationID)
}

func (r *txRepository) SetMaterialQty(ctx context.Context, materialID, locationID int64, qty float64) error {
	return r.ledger.SetMaterialQty(ctx, materialID, locationID, qty)
}

func (r *txRepository) EnsureProductStock(ctx context.Context, productID, locationID int64) (stock.ProductStock, bool, error) {
	return r.ledger.EnsureProductStock(ctx, productID, locationID)
}

func (r *txRepository) SetProductQty(ctx context.Context, productID, locationID int64, qty float64) error {
	return r.ledger.SetProductQty(ctx, productID, locationID, qty)
}
