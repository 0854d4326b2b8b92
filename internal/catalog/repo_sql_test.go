package catalog

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/migrations"
)

// testPool connects to the database named by TEST_PG_DSN with the real
// migrated schema, so these tests catch drift between the repository SQL
// and the migrations that the in-memory fakes cannot see.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	require.NoError(t, migrations.Up(dsn))
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestProductRoundTripAgainstSchema(t *testing.T) {
	repo := NewRepository(testPool(t))
	ctx := context.Background()

	name := uniqueName("Tote bag")
	created, err := repo.CreateProduct(ctx, name, "WB-12345")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "WB-12345", created.CatalogCode)

	got, err := repo.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, name, got.Name)
	require.Equal(t, "WB-12345", got.CatalogCode)

	all, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	found := false
	for _, p := range all {
		if p.ID == created.ID {
			found = true
			require.Equal(t, "WB-12345", p.CatalogCode)
		}
	}
	require.True(t, found)
}

func TestLocationAndMaterialRoundTripAgainstSchema(t *testing.T) {
	repo := NewRepository(testPool(t))
	ctx := context.Background()

	loc, err := repo.CreateLocation(ctx, uniqueName("Home"), LocationKindHome)
	require.NoError(t, err)
	_, err = repo.CreateLocation(ctx, loc.Name, LocationKindMarketplace)
	require.ErrorIs(t, err, ErrDuplicate)

	mat, err := repo.CreateMaterial(ctx, uniqueName("Linen"), "m", MaterialKindRaw)
	require.NoError(t, err)

	got, err := repo.GetMaterial(ctx, mat.ID)
	require.NoError(t, err)
	require.Equal(t, MaterialKindRaw, got.Kind)
}

func TestBOMLineUniquePairAgainstSchema(t *testing.T) {
	repo := NewRepository(testPool(t))
	ctx := context.Background()

	product, err := repo.CreateProduct(ctx, uniqueName("Apron"), "")
	require.NoError(t, err)
	material, err := repo.CreateMaterial(ctx, uniqueName("Canvas"), "m", MaterialKindRaw)
	require.NoError(t, err)

	line, err := repo.CreateBOMLine(ctx, BOMLine{ProductID: product.ID, MaterialID: material.ID, QtyPerUnit: 2})
	require.NoError(t, err)

	_, err = repo.CreateBOMLine(ctx, BOMLine{ProductID: product.ID, MaterialID: material.ID, QtyPerUnit: 3})
	require.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, repo.DeleteBOMLine(ctx, line.ID))
	require.ErrorIs(t, repo.DeleteBOMLine(ctx, line.ID), ErrNotFound)
}
