package production

import (
	"errors"
	"time"
)

// Production records one production run: ProducedQty units of a product made
// at a location on a date.
type Production struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	ProductID   int64     `json:"product_id"`
	LocationID  int64     `json:"location_id"`
	ProducedQty float64   `json:"produced_qty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MaterialUsage is the audit line for materials consumed by a run. QtyUsed is
// the full theoretical amount (BOM quantity × produced quantity) even when
// the matching ledger decrement was clamped at zero. It is written once and
// never recomputed.
type MaterialUsage struct {
	ID           int64   `json:"id"`
	ProductionID int64   `json:"production_id"`
	MaterialID   int64   `json:"material_id"`
	QtyUsed      float64 `json:"qty_used"`
}

// CreateProductionRequest is the payload to record a production run.
type CreateProductionRequest struct {
	Date        time.Time `json:"date" validate:"required"`
	ProductID   int64     `json:"product_id" validate:"required,gt=0"`
	LocationID  int64     `json:"location_id" validate:"required,gt=0"`
	ProducedQty float64   `json:"produced_qty" validate:"required,gt=0"`
	ActorID     int64     `json:"-"`
}

// Result bundles the stored run with its usage lines.
type Result struct {
	Production Production      `json:"production"`
	Usage      []MaterialUsage `json:"usage"`
}

// ErrValidation indicates malformed or out-of-range input, surfaced before
// any ledger mutation.
var ErrValidation = errors.New("production: invalid input")
