package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/stock"
)

type memoryRepo struct {
	purchases     []Purchase
	materialStock map[int64]float64
	homeID        int64
	nextID        int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{materialStock: make(map[int64]float64), homeID: 1}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]float64, len(r.materialStock))
	for k, v := range r.materialStock {
		snapshot[k] = v
	}
	count := len(r.purchases)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.materialStock = snapshot
		r.purchases = r.purchases[:count]
		return err
	}
	return nil
}

func (r *memoryRepo) ListPurchases(ctx context.Context, limit int) ([]Purchase, error) {
	out := make([]Purchase, len(r.purchases))
	copy(out, r.purchases)
	return out, nil
}

func (tx *memoryTx) EnsureHomeLocation(ctx context.Context) (int64, bool, error) {
	return tx.repo.homeID, false, nil
}

func (tx *memoryTx) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	tx.repo.nextID++
	p.ID = tx.repo.nextID
	tx.repo.purchases = append(tx.repo.purchases, p)
	return p.ID, nil
}

func (tx *memoryTx) EnsureMaterialStock(ctx context.Context, materialID, locationID int64) (stock.MaterialStock, bool, error) {
	qty, ok := tx.repo.materialStock[materialID]
	if !ok {
		tx.repo.materialStock[materialID] = 0
	}
	return stock.MaterialStock{MaterialID: materialID, LocationID: locationID, Qty: qty}, !ok, nil
}

func (tx *memoryTx) SetMaterialQty(ctx context.Context, materialID, locationID int64, qty float64) error {
	if qty < 0 {
		return stock.ErrNegativeQuantity
	}
	tx.repo.materialStock[materialID] = qty
	return nil
}

func TestCreatePurchaseCreditsHomeStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	p, err := svc.CreatePurchase(ctx, CreatePurchaseRequest{
		Date:       time.Now(),
		MaterialID: 7,
		Qty:        12.5,
		UnitPrice:  "3.20",
		Supplier:   "Mill & Co",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), p.ID)
	require.InDelta(t, 12.5, repo.materialStock[7], 0.0001)

	_, err = svc.CreatePurchase(ctx, CreatePurchaseRequest{
		Date:       time.Now(),
		MaterialID: 7,
		Qty:        7.5,
		UnitPrice:  "3.10",
	})
	require.NoError(t, err)
	require.InDelta(t, 20.0, repo.materialStock[7], 0.0001)
	require.Len(t, repo.purchases, 2)
}

func TestCreatePurchaseTotalIsExact(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	p, err := svc.CreatePurchase(context.Background(), CreatePurchaseRequest{
		Date:       time.Now(),
		MaterialID: 1,
		Qty:        3,
		UnitPrice:  "0.10",
	})
	require.NoError(t, err)
	require.True(t, p.TotalAmount.Equal(decimal.RequireFromString("0.30")),
		"got total %s", p.TotalAmount)
}

func TestCreatePurchaseRejectsInvalidInput(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	cases := []CreatePurchaseRequest{
		{Date: time.Now(), MaterialID: 1, Qty: 0, UnitPrice: "1.00"},
		{Date: time.Now(), MaterialID: 1, Qty: -4, UnitPrice: "1.00"},
		{Date: time.Now(), MaterialID: 1, Qty: 4, UnitPrice: "not-a-number"},
		{Date: time.Now(), MaterialID: 1, Qty: 4, UnitPrice: "-2.00"},
		{Date: time.Now(), MaterialID: 0, Qty: 4, UnitPrice: "2.00"},
	}
	for _, req := range cases {
		_, err := svc.CreatePurchase(ctx, req)
		require.ErrorIs(t, err, ErrValidation)
	}
	require.Empty(t, repo.purchases)
	require.Empty(t, repo.materialStock)
}
