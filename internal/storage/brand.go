package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/clothes-shop/internal/domain/models"
)

// BrandStorage описывает методы для работы с таблицей брендов.
type BrandStorage interface {
	// ListBrands возвращает все бренды, отсортированные по названию.
	ListBrands(ctx context.Context) ([]*models.Brand, error)
}

// brandRepository — конкретная реализация BrandStorage.
type brandRepository struct {
	db *sql.DB
}

// NewBrandRepository создаёт новый репозиторий брендов.
func NewBrandRepository(db *sql.DB) BrandStorage {
	return &brandRepository{db: db}
}

func (r *brandRepository) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	query := `SELECT id, name, description, country, created_at FROM brands ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		b := &models.Brand{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Country, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return brands, nil
}
