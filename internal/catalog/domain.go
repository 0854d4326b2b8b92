package catalog

import (
	"errors"
	"time"
)

// LocationKind enumerates supported storage location kinds.
type LocationKind string

const (
	// LocationKindHome is the business's own storage.
	LocationKindHome LocationKind = "home"
	// LocationKindMarketplace is a marketplace warehouse.
	LocationKindMarketplace LocationKind = "marketplace"
)

// IsValid checks if the kind is a closed-enum member.
func (k LocationKind) IsValid() bool {
	switch k {
	case LocationKindHome, LocationKindMarketplace:
		return true
	default:
		return false
	}
}

// HomeLocationName is the display name of the lazily created default
// location credited by purchases.
const HomeLocationName = "Home"

// MaterialKind enumerates material categories.
type MaterialKind string

const (
	MaterialKindRaw       MaterialKind = "raw"
	MaterialKindPackaging MaterialKind = "packaging"
	MaterialKindOther     MaterialKind = "other"
)

// IsValid checks if the kind is a closed-enum member.
func (k MaterialKind) IsValid() bool {
	switch k {
	case MaterialKindRaw, MaterialKindPackaging, MaterialKindOther:
		return true
	default:
		return false
	}
}

// Location is a place where stock is held.
type Location struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Kind      LocationKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

// Material is a purchasable input consumed by production.
type Material struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Unit      string       `json:"unit"`
	Kind      MaterialKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

// Product is a finished good produced from materials.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CatalogCode string    `json:"catalog_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BOMLine maps one material requirement of a product. Unique per
// (product, material); quantity per unit is strictly positive.
type BOMLine struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	MaterialID int64   `json:"material_id"`
	QtyPerUnit float64 `json:"qty_per_unit"`
}

// CreateLocationRequest is the payload to register a location.
type CreateLocationRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Kind string `json:"kind" validate:"required,oneof=home marketplace"`
}

// CreateMaterialRequest is the payload to register a material.
type CreateMaterialRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Unit string `json:"unit" validate:"required,max=20"`
	Kind string `json:"kind" validate:"required,oneof=raw packaging other"`
}

// CreateProductRequest is the payload to register a product.
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	CatalogCode string `json:"catalog_code" validate:"omitempty,max=50"`
}

// CreateBOMLineRequest adds one material requirement to a product.
type CreateBOMLineRequest struct {
	ProductID  int64   `json:"product_id" validate:"required,gt=0"`
	MaterialID int64   `json:"material_id" validate:"required,gt=0"`
	QtyPerUnit float64 `json:"qty_per_unit" validate:"required,gt=0"`
}

var (
	// ErrNotFound indicates a missing catalog record.
	ErrNotFound = errors.New("catalog: not found")
	// ErrDuplicate indicates a uniqueness-constraint violation, e.g. a second
	// BOM line for the same (product, material) pair.
	ErrDuplicate = errors.New("catalog: duplicate entry")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("catalog: invalid input")
)
