package catalog

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	CreateLocation(ctx context.Context, name string, kind LocationKind) (Location, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	CreateMaterial(ctx context.Context, name, unit string, kind MaterialKind) (Material, error)
	GetMaterial(ctx context.Context, id int64) (Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
	CreateProduct(ctx context.Context, name, catalogCode string) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateBOMLine(ctx context.Context, line BOMLine) (BOMLine, error)
	ListBOM(ctx context.Context, productID int64) ([]BOMLine, error)
	DeleteBOMLine(ctx context.Context, id int64) error
}

// Service exposes catalog reference-data operations.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// CreateLocation registers a storage location.
func (s *Service) CreateLocation(ctx context.Context, req CreateLocationRequest) (Location, error) {
	if err := s.validate.Struct(req); err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.CreateLocation(ctx, req.Name, LocationKind(req.Kind))
}

// GetLocation fetches one location.
func (s *Service) GetLocation(ctx context.Context, id int64) (Location, error) {
	return s.repo.GetLocation(ctx, id)
}

// ListLocations lists all locations.
func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.repo.ListLocations(ctx)
}

// CreateMaterial registers a material.
func (s *Service) CreateMaterial(ctx context.Context, req CreateMaterialRequest) (Material, error) {
	if err := s.validate.Struct(req); err != nil {
		return Material{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.CreateMaterial(ctx, req.Name, req.Unit, MaterialKind(req.Kind))
}

// GetMaterial fetches one material.
func (s *Service) GetMaterial(ctx context.Context, id int64) (Material, error) {
	return s.repo.GetMaterial(ctx, id)
}

// ListMaterials lists all materials.
func (s *Service) ListMaterials(ctx context.Context) ([]Material, error) {
	return s.repo.ListMaterials(ctx)
}

// CreateProduct registers a product.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.CreateProduct(ctx, req.Name, req.CatalogCode)
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts lists all products.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// AddBOMLine adds a material requirement to a product. The referenced
// product and material must exist.
func (s *Service) AddBOMLine(ctx context.Context, req CreateBOMLineRequest) (BOMLine, error) {
	if err := s.validate.Struct(req); err != nil {
		return BOMLine{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.repo.GetProduct(ctx, req.ProductID); err != nil {
		return BOMLine{}, err
	}
	if _, err := s.repo.GetMaterial(ctx, req.MaterialID); err != nil {
		return BOMLine{}, err
	}
	return s.repo.CreateBOMLine(ctx, BOMLine{
		ProductID:  req.ProductID,
		MaterialID: req.MaterialID,
		QtyPerUnit: req.QtyPerUnit,
	})
}

// ListBOM lists the bill of materials for a product.
func (s *Service) ListBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	return s.repo.ListBOM(ctx, productID)
}

// RemoveBOMLine deletes one BOM line.
func (s *Service) RemoveBOMLine(ctx context.Context, id int64) error {
	return s.repo.DeleteBOMLine(ctx, id)
}
