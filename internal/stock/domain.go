package stock

import (
	"errors"
	"time"
)

// MaterialStock is the on-hand quantity of one material at one location.
// Rows are unique per (material, location) and owned by the ledger, not by
// any single transaction. Writers keep Qty >= 0.
type MaterialStock struct {
	MaterialID int64     `json:"material_id"`
	LocationID int64     `json:"location_id"`
	Qty        float64   `json:"qty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProductStock is the on-hand quantity of one product at one location.
type ProductStock struct {
	ProductID  int64     `json:"product_id"`
	LocationID int64     `json:"location_id"`
	Qty        float64   `json:"qty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MaterialStockDetail joins display names for listings.
type MaterialStockDetail struct {
	MaterialStock
	MaterialName string `json:"material_name"`
	Unit         string `json:"unit"`
	LocationName string `json:"location_name"`
}

// ProductStockDetail joins display names for listings.
type ProductStockDetail struct {
	ProductStock
	ProductName  string `json:"product_name"`
	LocationName string `json:"location_name"`
}

// Summary aggregates the ledger for the dashboard: totals across the filter
// scope, count of materials at exactly zero ("critical") and count of
// products below the low-stock threshold.
type Summary struct {
	TotalMaterials    float64 `json:"total_materials"`
	TotalProducts     float64 `json:"total_products"`
	CriticalMaterials int     `json:"critical_materials"`
	LowStockProducts  int     `json:"low_stock_products"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
}

// Filter scopes ledger reads to one location when set.
type Filter struct {
	LocationID *int64
}

// ErrNegativeQuantity marks an invariant violation: a ledger row below zero
// must never be observable. Writers clamp or reject before committing.
var ErrNegativeQuantity = errors.New("stock: negative quantity")

// DefaultLowStockThreshold is the product quantity below which a row counts
// as low stock.
const DefaultLowStockThreshold = 5.0
