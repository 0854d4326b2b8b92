package purchase

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase records one material purchase. TotalAmount is always computed as
// Qty × UnitPrice at write time, never accepted from the caller.
type Purchase struct {
	ID          int64           `json:"id"`
	Date        time.Time       `json:"date"`
	MaterialID  int64           `json:"material_id"`
	Qty         float64         `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Supplier    string          `json:"supplier,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreatePurchaseRequest is the payload to record a purchase. UnitPrice is a
// decimal string so money never takes a float round trip.
type CreatePurchaseRequest struct {
	Date       time.Time `json:"date" validate:"required"`
	MaterialID int64     `json:"material_id" validate:"required,gt=0"`
	Qty        float64   `json:"qty" validate:"required,gt=0"`
	UnitPrice  string    `json:"unit_price" validate:"required"`
	Supplier   string    `json:"supplier" validate:"omitempty,max=100"`
	ActorID    int64     `json:"-"`
}

// ErrValidation indicates malformed or out-of-range input, surfaced before
// any ledger mutation.
var ErrValidation = errors.New("purchase: invalid input")
