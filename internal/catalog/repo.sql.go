package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// CreateLocation inserts a new location.
func (r *Repository) CreateLocation(ctx context.Context, name string, kind LocationKind) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx, `INSERT INTO locations (name, kind) VALUES ($1, $2)
RETURNING id, name, kind, created_at`, name, string(kind)).
		Scan(&loc.ID, &loc.Name, &loc.Kind, &loc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Location{}, ErrDuplicate
		}
		return Location{}, err
	}
	return loc, nil
}

// GetLocation fetches a location by id.
func (r *Repository) GetLocation(ctx context.Context, id int64) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx, `SELECT id, name, kind, created_at FROM locations WHERE id=$1`, id).
		Scan(&loc.ID, &loc.Name, &loc.Kind, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, ErrNotFound
		}
		return Location{}, err
	}
	return loc, nil
}

// ListLocations returns all locations ordered by name.
func (r *Repository) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, kind, created_at FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Location{}
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Kind, &loc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// CreateMaterial inserts a new material.
func (r *Repository) CreateMaterial(ctx context.Context, name, unit string, kind MaterialKind) (Material, error) {
	var m Material
	err := r.pool.QueryRow(ctx, `INSERT INTO materials (name, unit, kind) VALUES ($1, $2, $3)
RETURNING id, name, unit, kind, created_at`, name, unit, string(kind)).
		Scan(&m.ID, &m.Name, &m.Unit, &m.Kind, &m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Material{}, ErrDuplicate
		}
		return Material{}, err
	}
	return m, nil
}

// GetMaterial fetches a material by id.
func (r *Repository) GetMaterial(ctx context.Context, id int64) (Material, error) {
	var m Material
	err := r.pool.QueryRow(ctx, `SELECT id, name, unit, kind, created_at FROM materials WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Unit, &m.Kind, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Material{}, ErrNotFound
		}
		return Material{}, err
	}
	return m, nil
}

// ListMaterials returns all materials ordered by name.
func (r *Repository) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, unit, kind, created_at FROM materials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Material{}
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.Kind, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateProduct inserts a new product.
func (r *Repository) CreateProduct(ctx context.Context, name, catalogCode string) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, catalog_code) VALUES ($1, $2)
RETURNING id, name, catalog_code, created_at`, name, catalogCode).
		Scan(&p.ID, &p.Name, &p.CatalogCode, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrDuplicate
		}
		return Product{}, err
	}
	return p, nil
}

// GetProduct fetches a product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, catalog_code, created_at FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.CatalogCode, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// ListProducts returns all products ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, catalog_code, created_at FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CatalogCode, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateBOMLine adds a material requirement to a product. The
// (product, material) pair is unique.
func (r *Repository) CreateBOMLine(ctx context.Context, line BOMLine) (BOMLine, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO product_bom (product_id, material_id, qty_per_unit)
VALUES ($1, $2, $3)
RETURNING id`, line.ProductID, line.MaterialID, line.QtyPerUnit).Scan(&line.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return BOMLine{}, ErrDuplicate
		}
		return BOMLine{}, err
	}
	return line, nil
}

// ListBOM returns the bill of materials for a product.
func (r *Repository) ListBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, material_id, qty_per_unit
FROM product_bom WHERE product_id=$1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BOMLine{}
	for rows.Next() {
		var line BOMLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.MaterialID, &line.QtyPerUnit); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// DeleteBOMLine removes one BOM line.
func (r *Repository) DeleteBOMLine(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_bom WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
