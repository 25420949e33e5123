package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/clothes-shop/internal/domain/models"
	"github.com/linemk/clothes-shop/internal/storage"
)

// CatalogService — витрина каталога: только чтение.
type CatalogService interface {
	Products(ctx context.Context, term string, brandID, categoryID *int64, onlyAvailable bool) ([]*models.Product, error)
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
	Brands(ctx context.Context) ([]*models.Brand, error)
	Categories(ctx context.Context) ([]*models.Category, error)
}

type catalogService struct {
	log          *slog.Logger
	productRepo  storage.ProductStorage
	brandRepo    storage.BrandStorage
	categoryRepo storage.CategoryStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage,
	brandRepo storage.BrandStorage, categoryRepo storage.CategoryStorage) CatalogService {
	return &catalogService{
		log:          log,
		productRepo:  productRepo,
		brandRepo:    brandRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *catalogService) Products(ctx context.Context, term string, brandID, categoryID *int64, onlyAvailable bool) ([]*models.Product, error) {
	const op = "service.CatalogService.Products"
	products, err := s.productRepo.SearchProducts(ctx, term, brandID, categoryID, onlyAvailable)
	if err != nil {
		s.log.Error("failed to search products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.ProductByID"
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func (s *catalogService) Brands(ctx context.Context) ([]*models.Brand, error) {
	const op = "service.CatalogService.Brands"
	brands, err := s.brandRepo.ListBrands(ctx)
	if err != nil {
		s.log.Error("failed to list brands", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return brands, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CatalogService.Categories"
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}
