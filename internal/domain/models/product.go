package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет товар каталога
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"` // всегда > 0
	ImageURL      string          `json:"image_url,omitempty"`
	Sizes         string          `json:"sizes"` // "S,M,L,XL" или "40,42,44"
	Color         string          `json:"color"`
	StockQuantity int             `json:"stock_quantity"` // не может быть отрицательным
	IsAvailable   bool            `json:"is_available"`
	BrandID       int64           `json:"brand_id"`
	CategoryID    int64           `json:"category_id"`
	BrandName     string          `json:"brand_name"`    // заполняется через JOIN с таблицей brands
	CategoryName  string          `json:"category_name"` // заполняется через JOIN с таблицей categories
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}
