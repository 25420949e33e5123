package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/clothes-shop/internal/domain/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNumberTaken возвращается при нарушении уникальности номера заказа,
	// единственная точка проверки уникальности — ограничение в БД.
	ErrOrderNumberTaken = errors.New("order number already taken")
)

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrderTx вставляет шапку заказа и возвращает её id.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error)
	// CreateOrderItemsTx вставляет позиции заказа в рамках той же транзакции.
	CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, items []*models.OrderItem) error
	// GetOrderWithItemsTx читает заказ с позициями под блокировкой для удаления.
	GetOrderWithItemsTx(ctx context.Context, tx *sql.Tx, orderID int64) (*models.Order, error)
	// DeleteOrderTx удаляет заказ вместе с позициями.
	DeleteOrderTx(ctx context.Context, tx *sql.Tx, orderID int64) error
	// UpdateStatus меняет статус заказа.
	UpdateStatus(ctx context.Context, orderID int64, status string) error
	// GetOrderByID возвращает заказ с позициями, товары с брендами подтянуты через JOIN.
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	// GetOrderByNumber возвращает заказ по его номеру.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// GetAllOrders возвращает все заказы, новые первыми.
	GetAllOrders(ctx context.Context) ([]*models.Order, error)
	// GetOrdersByUserID возвращает заказы пользователя, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	var id int64
	query := `INSERT INTO orders
		(order_number, user_id, order_date, status, total_amount, delivery_address, comment, recipient_phone, recipient_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := tx.QueryRowContext(ctx, query,
		order.OrderNumber, order.UserID, order.OrderDate, order.Status, order.TotalAmount,
		order.DeliveryAddress, order.Comment, order.RecipientPhone, order.RecipientName,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return 0, fmt.Errorf("%w: %s", ErrOrderNumberTaken, order.OrderNumber)
		}
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, items []*models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, quantity, unit_price, size)
	          VALUES ($1, $2, $3, $4, $5)`
	for _, item := range items {
		_, err := tx.ExecContext(ctx, query, orderID, item.ProductID, item.Quantity, item.UnitPrice, item.Size)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetOrderWithItemsTx(ctx context.Context, tx *sql.Tx, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	row := tx.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, order_date, status, total_amount,
		       delivery_address, comment, recipient_phone, recipient_name
		FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	if err := scanOrderHeader(row, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, size
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Size); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) DeleteOrderTx(ctx context.Context, tx *sql.Tx, orderID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const orderHeaderQuery = `
	SELECT o.id, o.order_number, o.user_id, o.order_date, o.status, o.total_amount,
	       o.delivery_address, o.comment, o.recipient_phone, o.recipient_name, u.email
	FROM orders o
	JOIN users u ON o.user_id = u.id`

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.getOrder(ctx, orderHeaderQuery+" WHERE o.id = $1", orderID)
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.getOrder(ctx, orderHeaderQuery+" WHERE o.order_number = $1", orderNumber)
}

func (r *orderRepository) getOrder(ctx context.Context, query string, arg any) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx, query, arg)
	if err := scanOrderHeaderWithEmail(row, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	return r.queryOrders(ctx, orderHeaderQuery+" ORDER BY o.order_date DESC")
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	return r.queryOrders(ctx, orderHeaderQuery+" WHERE o.user_id = $1 ORDER BY o.order_date DESC", userID)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := scanOrderHeaderWithEmail(rows, order); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems подтягивает позиции сразу для всех заказов одним запросом,
// с JOIN до товара и его бренда для отображения.
func (r *orderRepository) loadItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.size, p.name, b.name
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN brands b ON p.brand_id = b.id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.Size, &item.ProductName, &item.BrandName); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}

func scanOrderHeader(row *sql.Row, order *models.Order) error {
	return row.Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.OrderDate, &order.Status,
		&order.TotalAmount, &order.DeliveryAddress, &order.Comment, &order.RecipientPhone, &order.RecipientName)
}

func scanOrderHeaderWithEmail(row interface{ Scan(...any) error }, order *models.Order) error {
	return row.Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.OrderDate, &order.Status,
		&order.TotalAmount, &order.DeliveryAddress, &order.Comment, &order.RecipientPhone, &order.RecipientName,
		&order.UserEmail)
}
