package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы заказа. Переходы между статусами не ограничиваются —
// любой статус может смениться любым другим.
const (
	StatusNew        = "New"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

// Order представляет заказ пользователя
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"` // уникальный, формат ORD-YYYYMMDD-XXXXXXXX
	UserID          int64           `json:"user_id"`
	UserEmail       string          `json:"user_email,omitempty"` // заполняется через JOIN с таблицей users
	OrderDate       time.Time       `json:"order_date"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"` // всегда равна сумме unit_price * quantity по позициям
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Comment         string          `json:"comment,omitempty"`
	RecipientPhone  string          `json:"recipient_phone,omitempty"`
	RecipientName   string          `json:"recipient_name,omitempty"`
	Items           []*OrderItem    `json:"items,omitempty"`
}

// OrderItem представляет позицию заказа. Цена за единицу фиксируется
// в момент оформления и не пересчитывается при изменении цены товара.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"` // всегда >= 1
	UnitPrice decimal.Decimal `json:"unit_price"`
	Size      string          `json:"size,omitempty"`
	// Имя товара и бренда; заполняются через JOIN для отображения
	ProductName string `json:"product_name,omitempty"`
	BrandName   string `json:"brand_name,omitempty"`
}
