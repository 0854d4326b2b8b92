package shipment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Shipment moves finished product stock between two locations. The record
// only exists when the full quantity was available at the source.
type Shipment struct {
	ID             int64     `json:"id"`
	Date           time.Time `json:"date"`
	FromLocationID int64     `json:"from_location_id"`
	ToLocationID   int64     `json:"to_location_id"`
	ProductID      int64     `json:"product_id"`
	Qty            float64   `json:"qty"`
	ExternalRef    string    `json:"external_ref"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Logistics holds the optional carrier details of one shipment, at most one
// row per shipment.
type Logistics struct {
	ID         int64           `json:"id"`
	ShipmentID int64           `json:"shipment_id"`
	Carrier    string          `json:"carrier"`
	Cost       decimal.Decimal `json:"cost"`
	Tracking   string          `json:"tracking,omitempty"`
}

// LogisticsInput is the optional logistics block of a shipment request.
// Cost is a decimal string so money never takes a float round trip.
type LogisticsInput struct {
	Carrier  string `json:"carrier" validate:"required,max=100"`
	Cost     string `json:"cost" validate:"required"`
	Tracking string `json:"tracking" validate:"omitempty,max=100"`
}

// CreateShipmentRequest is the payload to post a shipment. An empty
// ExternalRef gets a generated one; a repeated ExternalRef is rejected as a
// duplicate submission.
type CreateShipmentRequest struct {
	Date           time.Time       `json:"date" validate:"required"`
	FromLocationID int64           `json:"from_location_id" validate:"required,gt=0"`
	ToLocationID   int64           `json:"to_location_id" validate:"required,gt=0"`
	ProductID      int64           `json:"product_id" validate:"required,gt=0"`
	Qty            float64         `json:"qty" validate:"required,gt=0"`
	ExternalRef    string          `json:"external_ref" validate:"omitempty,max=100"`
	Comment        string          `json:"comment" validate:"omitempty,max=255"`
	Logistics      *LogisticsInput `json:"logistics"`
	ActorID        int64           `json:"-"`
}

// Result pairs the persisted shipment with its optional logistics row.
type Result struct {
	Shipment  Shipment   `json:"shipment"`
	Logistics *Logistics `json:"logistics,omitempty"`
}

// ErrValidation indicates malformed or out-of-range input, surfaced before
// any ledger mutation.
var ErrValidation = errors.New("shipment: invalid input")

// ErrInsufficientStock indicates the source location did not hold the full
// requested quantity. Nothing is persisted in that case.
var ErrInsufficientStock = errors.New("insufficient stock at source location")

// ErrDuplicate indicates a repeated external reference.
var ErrDuplicate = errors.New("shipment already processed")

// ErrNotFound indicates a missing shipment or logistics row.
var ErrNotFound = errors.New("shipment not found")
