package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/linemk/clothes-shop/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage описывает методы для работы с таблицей товаров.
type ProductStorage interface {
	// GetProductByID возвращает товар с именами бренда и категории.
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// LockProductByIDTx блокирует строку товара в рамках транзакции (FOR UPDATE),
	// чтобы конкурентные заказы не потеряли списание остатка.
	LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	// UpdateStockTx записывает новый остаток товара в рамках транзакции.
	UpdateStockTx(ctx context.Context, tx *sql.Tx, id int64, newQuantity int) error
	// ListProducts возвращает все товары, новые первыми.
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// SearchProducts фильтрует по подстроке в названии/описании, бренду и категории.
	SearchProducts(ctx context.Context, term string, brandID, categoryID *int64, onlyAvailable bool) ([]*models.Product, error)
	// CreateProductsTx вставляет пачку товаров одной транзакцией.
	CreateProductsTx(ctx context.Context, tx *sql.Tx, products []*models.Product) error
}

// productRepository — конкретная реализация ProductStorage.
type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.name, p.description, p.price, p.image_url, p.sizes, p.color,
		p.stock_quantity, p.is_available, p.brand_id, p.category_id, b.name, c.name, p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Sizes, &p.Color,
		&p.StockQuantity, &p.IsAvailable, &p.BrandID, &p.CategoryID, &p.BrandName, &p.CategoryName,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON p.brand_id = b.id
		JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1`, productColumns)
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// LockProductByIDTx читает строку товара под блокировкой FOR UPDATE NOWAIT.
// Если строка уже заблокирована другим заказом, возвращается ошибка, а не ожидание.
func (r *productRepository) LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	p := &models.Product{}
	query := `SELECT id, name, price, sizes, stock_quantity, is_available
	          FROM products WHERE id = $1 FOR UPDATE NOWAIT`
	row := tx.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Sizes, &p.StockQuantity, &p.IsAvailable); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("resource is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) UpdateStockTx(ctx context.Context, tx *sql.Tx, id int64, newQuantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2",
		newQuantity, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON p.brand_id = b.id
		JOIN categories c ON p.category_id = c.id
		ORDER BY p.created_at DESC`, productColumns)
	return r.queryProducts(ctx, query)
}

func (r *productRepository) SearchProducts(ctx context.Context, term string, brandID, categoryID *int64, onlyAvailable bool) ([]*models.Product, error) {
	conds := []string{"TRUE"}
	args := []any{}

	if strings.TrimSpace(term) != "" {
		args = append(args, "%"+strings.TrimSpace(term)+"%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	if brandID != nil {
		args = append(args, *brandID)
		conds = append(conds, fmt.Sprintf("p.brand_id = $%d", len(args)))
	}
	if categoryID != nil {
		args = append(args, *categoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if onlyAvailable {
		conds = append(conds, "p.is_available AND p.stock_quantity > 0")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON p.brand_id = b.id
		JOIN categories c ON p.category_id = c.id
		WHERE %s
		ORDER BY p.created_at DESC`, productColumns, strings.Join(conds, " AND "))
	return r.queryProducts(ctx, query, args...)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProductsTx вставляет товары по одному в рамках переданной транзакции:
// либо вся пачка, либо ничего.
func (r *productRepository) CreateProductsTx(ctx context.Context, tx *sql.Tx, products []*models.Product) error {
	query := `INSERT INTO products
		(name, description, price, image_url, sizes, color, stock_quantity, is_available, brand_id, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`
	for _, p := range products {
		_, err := tx.ExecContext(ctx, query,
			p.Name, p.Description, p.Price, p.ImageURL, p.Sizes, p.Color,
			p.StockQuantity, p.IsAvailable, p.BrandID, p.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}
	}
	return nil
}
