package shipment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/stock"
)

type memoryRepo struct {
	productStock map[string]float64
	claimedKeys  map[string]bool
	shipments    []Shipment
	logistics    []Logistics
	nextID       int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		productStock: make(map[string]float64),
		claimedKeys:  make(map[string]bool),
	}
}

func stockKey(productID, locationID int64) string {
	return fmt.Sprintf("%d:%d", productID, locationID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	stockSnapshot := make(map[string]float64, len(r.productStock))
	for k, v := range r.productStock {
		stockSnapshot[k] = v
	}
	keySnapshot := make(map[string]bool, len(r.claimedKeys))
	for k, v := range r.claimedKeys {
		keySnapshot[k] = v
	}
	shipCount, lgCount := len(r.shipments), len(r.logistics)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.productStock = stockSnapshot
		r.claimedKeys = keySnapshot
		r.shipments = r.shipments[:shipCount]
		r.logistics = r.logistics[:lgCount]
		return err
	}
	return nil
}

func (r *memoryRepo) ListShipments(ctx context.Context, limit int) ([]Shipment, error) {
	out := make([]Shipment, len(r.shipments))
	copy(out, r.shipments)
	return out, nil
}

func (r *memoryRepo) GetLogistics(ctx context.Context, shipmentID int64) (Logistics, error) {
	for _, lg := range r.logistics {
		if lg.ShipmentID == shipmentID {
			return lg, nil
		}
	}
	return Logistics{}, ErrNotFound
}

func (tx *memoryTx) ClaimIdempotencyKey(ctx context.Context, key string) error {
	if tx.repo.claimedKeys[key] {
		return shared.ErrIdempotencyConflict
	}
	tx.repo.claimedKeys[key] = true
	return nil
}

func (tx *memoryTx) InsertShipment(ctx context.Context, sh Shipment) (int64, error) {
	tx.repo.nextID++
	sh.ID = tx.repo.nextID
	tx.repo.shipments = append(tx.repo.shipments, sh)
	return sh.ID, nil
}

func (tx *memoryTx) InsertLogistics(ctx context.Context, lg Logistics) (int64, error) {
	tx.repo.nextID++
	lg.ID = tx.repo.nextID
	tx.repo.logistics = append(tx.repo.logistics, lg)
	return lg.ID, nil
}

func (tx *memoryTx) EnsureProductStock(ctx context.Context, productID, locationID int64) (stock.ProductStock, bool, error) {
	key := stockKey(productID, locationID)
	qty, ok := tx.repo.productStock[key]
	if !ok {
		tx.repo.productStock[key] = 0
	}
	return stock.ProductStock{ProductID: productID, LocationID: locationID, Qty: qty}, !ok, nil
}

func (tx *memoryTx) SetProductQty(ctx context.Context, productID, locationID int64, qty float64) error {
	if qty < 0 {
		return stock.ErrNegativeQuantity
	}
	tx.repo.productStock[stockKey(productID, locationID)] = qty
	return nil
}

func TestCreateShipmentMovesStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.productStock[stockKey(1, 1)] = 10

	svc := NewService(repo, nil, nil, nil)
	res, err := svc.CreateShipment(context.Background(), CreateShipmentRequest{
		Date:           time.Now(),
		FromLocationID: 1,
		ToLocationID:   2,
		ProductID:      1,
		Qty:            4,
	})
	require.NoError(t, err)
	require.InDelta(t, 6.0, repo.productStock[stockKey(1, 1)], 0.0001)
	require.InDelta(t, 4.0, repo.productStock[stockKey(1, 2)], 0.0001)
	require.NotEmpty(t, res.Shipment.ExternalRef)
	require.Nil(t, res.Logistics)
}

func TestCreateShipmentInsufficientStockLeavesNothing(t *testing.T) {
	repo := newMemoryRepo()
	repo.productStock[stockKey(1, 1)] = 3

	svc := NewService(repo, nil, nil, nil)
	_, err := svc.CreateShipment(context.Background(), CreateShipmentRequest{
		Date:           time.Now(),
		FromLocationID: 1,
		ToLocationID:   2,
		ProductID:      1,
		Qty:            5,
		ExternalRef:    "WB-42",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.InDelta(t, 3.0, repo.productStock[stockKey(1, 1)], 0.0001)
	_, destTouched := repo.productStock[stockKey(1, 2)]
	require.False(t, destTouched)
	require.Empty(t, repo.shipments)
	// The claim rolled back with the transaction, so a corrected retry
	// with the same ref can go through.
	require.False(t, repo.claimedKeys["WB-42"])
}

func TestCreateShipmentFailedInsertReleasesKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.productStock[stockKey(1, 1)] = 10
	svc := NewService(repo, nil, nil, nil)

	req := CreateShipmentRequest{
		Date:           time.Now(),
		FromLocationID: 1,
		ToLocationID:   2,
		ProductID:      1,
		Qty:            3,
		ExternalRef:    "WB-9",
		Logistics:      &LogisticsInput{Carrier: "CDEK", Cost: "12.50"},
	}
	failing := &failingLogisticsRepo{memoryRepo: repo}
	_, err := NewService(failing, nil, nil, nil).CreateShipment(context.Background(), req)
	require.Error(t, err)
	require.False(t, repo.claimedKeys["WB-9"])
	require.InDelta(t, 10.0, repo.productStock[stockKey(1, 1)], 0.0001)

	// With the key released the same ref succeeds on retry.
	_, err = svc.CreateShipment(context.Background(), req)
	require.NoError(t, err)
	require.True(t, repo.claimedKeys["WB-9"])
}

// failingLogisticsRepo wraps the in-memory repo and fails the logistics
// insert to simulate a mid-transaction error.
type failingLogisticsRepo struct {
	*memoryRepo
}

type failingLogisticsTx struct {
	*memoryTx
}

func (r *failingLogisticsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.memoryRepo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return fn(ctx, &failingLogisticsTx{memoryTx: tx.(*memoryTx)})
	})
}

func (tx *failingLogisticsTx) InsertLogistics(ctx context.Context, lg Logistics) (int64, error) {
	return 0, fmt.Errorf("insert logistics: connection reset")
}

func TestCreateShipmentRejectsSameLocation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.CreateShipment(context.Background(), CreateShipmentRequest{
		Date:           time.Now(),
		FromLocationID: 3,
		ToLocationID:   3,
		ProductID:      1,
		Qty:            1,
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, repo.shipments)
}

func TestCreateShipmentDuplicateRefRejected(t *testing.T) {
	repo := newMemoryRepo()
	repo.productStock[stockKey(1, 1)] = 10
	svc := NewService(repo, nil, nil, nil)

	req := CreateShipmentRequest{
		Date:           time.Now(),
		FromLocationID: 1,
		ToLocationID:   2,
		ProductID:      1,
		Qty:            2,
		ExternalRef:    "WB-7",
	}
	_, err := svc.CreateShipment(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateShipment(context.Background(), req)
	require.ErrorIs(t, err, ErrDuplicate)
	require.InDelta(t, 8.0, repo.productStock[stockKey(1, 1)], 0.0001)
	require.Len(t, repo.shipments, 1)
}

func TestCreateShipmentWithLogistics(t *testing.T) {
	repo := newMemoryRepo()
	repo.productStock[stockKey(1, 1)] = 5
	svc := NewService(repo, nil, nil, nil)

	res, err := svc.CreateShipment(context.Background(), CreateShipmentRequest{
		Date:           time.Now(),
		FromLocationID: 1,
		ToLocationID:   2,
		ProductID:      1,
		Qty:            5,
		Logistics:      &LogisticsInput{Carrier: "CDEK", Cost: "149.90", Tracking: "TRK123"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Logistics)
	require.Equal(t, "149.9", res.Logistics.Cost.String())

	lg, err := svc.GetLogistics(context.Background(), res.Shipment.ID)
	require.NoError(t, err)
	require.Equal(t, "CDEK", lg.Carrier)
}
