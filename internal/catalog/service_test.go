package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	locations map[int64]Location
	materials map[int64]Material
	products  map[int64]Product
	bom       map[int64]BOMLine
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		locations: make(map[int64]Location),
		materials: make(map[int64]Material),
		products:  make(map[int64]Product),
		bom:       make(map[int64]BOMLine),
	}
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) CreateLocation(ctx context.Context, name string, kind LocationKind) (Location, error) {
	for _, loc := range r.locations {
		if loc.Name == name {
			return Location{}, ErrDuplicate
		}
	}
	loc := Location{ID: r.id(), Name: name, Kind: kind}
	r.locations[loc.ID] = loc
	return loc, nil
}

func (r *memoryRepo) GetLocation(ctx context.Context, id int64) (Location, error) {
	if loc, ok := r.locations[id]; ok {
		return loc, nil
	}
	return Location{}, ErrNotFound
}

func (r *memoryRepo) ListLocations(ctx context.Context) ([]Location, error) {
	out := []Location{}
	for _, loc := range r.locations {
		out = append(out, loc)
	}
	return out, nil
}

func (r *memoryRepo) CreateMaterial(ctx context.Context, name, unit string, kind MaterialKind) (Material, error) {
	m := Material{ID: r.id(), Name: name, Unit: unit, Kind: kind}
	r.materials[m.ID] = m
	return m, nil
}

func (r *memoryRepo) GetMaterial(ctx context.Context, id int64) (Material, error) {
	if m, ok := r.materials[id]; ok {
		return m, nil
	}
	return Material{}, ErrNotFound
}

func (r *memoryRepo) ListMaterials(ctx context.Context) ([]Material, error) {
	out := []Material{}
	for _, m := range r.materials {
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryRepo) CreateProduct(ctx context.Context, name, catalogCode string) (Product, error) {
	p := Product{ID: r.id(), Name: name, CatalogCode: catalogCode}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return Product{}, ErrNotFound
}

func (r *memoryRepo) ListProducts(ctx context.Context) ([]Product, error) {
	out := []Product{}
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) CreateBOMLine(ctx context.Context, line BOMLine) (BOMLine, error) {
	for _, existing := range r.bom {
		if existing.ProductID == line.ProductID && existing.MaterialID == line.MaterialID {
			return BOMLine{}, ErrDuplicate
		}
	}
	line.ID = r.id()
	r.bom[line.ID] = line
	return line, nil
}

func (r *memoryRepo) ListBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	out := []BOMLine{}
	for _, line := range r.bom {
		if line.ProductID == productID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *memoryRepo) DeleteBOMLine(ctx context.Context, id int64) error {
	if _, ok := r.bom[id]; !ok {
		return ErrNotFound
	}
	delete(r.bom, id)
	return nil
}

func TestCreateLocationValidatesKind(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	loc, err := svc.CreateLocation(ctx, CreateLocationRequest{Name: "Home", Kind: "home"})
	require.NoError(t, err)
	require.Equal(t, LocationKindHome, loc.Kind)

	_, err = svc.CreateLocation(ctx, CreateLocationRequest{Name: "Depot", Kind: "warehouse"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateLocationDuplicateName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateLocation(ctx, CreateLocationRequest{Name: "Home", Kind: "home"})
	require.NoError(t, err)
	_, err = svc.CreateLocation(ctx, CreateLocationRequest{Name: "Home", Kind: "marketplace"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestAddBOMLineChecksReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Tote bag"})
	require.NoError(t, err)
	material, err := svc.CreateMaterial(ctx, CreateMaterialRequest{Name: "Linen", Unit: "m", Kind: "raw"})
	require.NoError(t, err)

	line, err := svc.AddBOMLine(ctx, CreateBOMLineRequest{ProductID: product.ID, MaterialID: material.ID, QtyPerUnit: 1.5})
	require.NoError(t, err)
	require.InDelta(t, 1.5, line.QtyPerUnit, 0.0001)

	_, err = svc.AddBOMLine(ctx, CreateBOMLineRequest{ProductID: 999, MaterialID: material.ID, QtyPerUnit: 1})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddBOMLine(ctx, CreateBOMLineRequest{ProductID: product.ID, MaterialID: material.ID, QtyPerUnit: 2})
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.AddBOMLine(ctx, CreateBOMLineRequest{ProductID: product.ID, MaterialID: material.ID, QtyPerUnit: 0})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRemoveBOMLine(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Tote bag"})
	require.NoError(t, err)
	material, err := svc.CreateMaterial(ctx, CreateMaterialRequest{Name: "Linen", Unit: "m", Kind: "raw"})
	require.NoError(t, err)
	line, err := svc.AddBOMLine(ctx, CreateBOMLineRequest{ProductID: product.ID, MaterialID: material.ID, QtyPerUnit: 1})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBOMLine(ctx, line.ID))
	require.ErrorIs(t, svc.RemoveBOMLine(ctx, line.ID), ErrNotFound)

	bom, err := svc.ListBOM(ctx, product.ID)
	require.NoError(t, err)
	require.Empty(t, bom)
}
