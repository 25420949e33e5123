package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/clothes-shop/internal/config"
	"github.com/linemk/clothes-shop/internal/domain/models"
	"github.com/linemk/clothes-shop/internal/lib/ordernum"
	"github.com/linemk/clothes-shop/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CartLine — одна позиция корзины при оформлении заказа.
type CartLine struct {
	ProductID int64
	Quantity  int
	Size      string
}

// DeliveryInfo — данные доставки, все поля необязательные.
type DeliveryInfo struct {
	Address        string
	RecipientName  string
	RecipientPhone string
	Comment        string
}

type OrderService interface {
	// CreateOrder оформляет заказ из корзины и возвращает его номер.
	CreateOrder(ctx context.Context, userID int64, delivery DeliveryInfo, lines []CartLine) (string, error)
	// UpdateStatus меняет статус заказа, допустим любой переход.
	UpdateStatus(ctx context.Context, orderID int64, status string) error
	// DeleteOrder удаляет заказ с позициями и возвращает товар на склад.
	DeleteOrder(ctx context.Context, orderID int64) error
	AllOrders(ctx context.Context) ([]*models.Order, error)
	OrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error)
	OrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	OrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	cfg         config.OrderConfig
}

func NewOrderService(log *slog.Logger, db *sql.DB, productRepo storage.ProductStorage, orderRepo storage.OrderStorage, cfg config.OrderConfig) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		cfg:         cfg,
	}
}

// rollback откатывает транзакцию и логирует сбой самого отката
func (s *orderService) rollback(logger *slog.Logger, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("transaction rollback failed", slog.Any("error", err))
	}
}

// CreateOrder оформляет заказ одной транзакцией: блокирует строки товаров,
// фиксирует цены на момент оформления, пишет шапку, позиции и новые остатки.
// Либо заказ виден целиком, либо не виден вовсе.
func (s *orderService) CreateOrder(ctx context.Context, userID int64, delivery DeliveryInfo, lines []CartLine) (string, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if len(lines) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return "", fmt.Errorf("%s: product %d: %w", op, line.ProductID, ErrInvalidQuantity)
		}
	}

	orderNumber := ordernum.Generate(time.Now())
	logger.Info("starting order transaction", slog.String("orderNumber", orderNumber))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	total := decimal.Zero
	items := make([]*models.OrderItem, 0, len(lines))
	newStock := make(map[int64]int, len(lines))

	for _, line := range lines {
		// Блокируем строку товара, чтобы конкурентное оформление
		// не потеряло списание остатка.
		product, err := s.productRepo.LockProductByIDTx(ctx, tx, line.ProductID)
		if err != nil {
			s.rollback(logger, tx)
			logger.Error("failed to lock product", slog.Int64("productID", line.ProductID), slog.Any("error", err))
			return "", fmt.Errorf("%s: failed to get product %d: %w", op, line.ProductID, err)
		}

		remaining := product.StockQuantity
		if stock, ok := newStock[product.ID]; ok {
			remaining = stock
		}

		if remaining < line.Quantity {
			if s.cfg.OversellPolicy == config.OversellReject {
				s.rollback(logger, tx)
				logger.Warn("insufficient stock",
					slog.Int64("productID", product.ID),
					slog.Int("stock", remaining),
					slog.Int("requested", line.Quantity))
				return "", fmt.Errorf("%s: product %d: %w", op, product.ID, ErrInsufficientStock)
			}
			// политика clamp: списываем всё, что есть
			remaining = 0
		} else {
			remaining -= line.Quantity
		}
		newStock[product.ID] = remaining

		// Цена фиксируется на момент оформления, дальнейшие изменения
		// цены товара на заказ не влияют.
		items = append(items, &models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Size:      line.Size,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		OrderDate:       time.Now(),
		Status:          models.StatusNew,
		TotalAmount:     total,
		DeliveryAddress: delivery.Address,
		Comment:         delivery.Comment,
		RecipientPhone:  delivery.RecipientPhone,
		RecipientName:   delivery.RecipientName,
	}

	orderID, err := s.orderRepo.CreateOrderTx(ctx, tx, order)
	if err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to create order", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := s.orderRepo.CreateOrderItemsTx(ctx, tx, orderID, items); err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to create order items", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create order items: %w", op, err)
	}

	for productID, stock := range newStock {
		if err := s.productRepo.UpdateStockTx(ctx, tx, productID, stock); err != nil {
			s.rollback(logger, tx)
			logger.Error("failed to update stock", slog.Int64("productID", productID), slog.Any("error", err))
			return "", fmt.Errorf("%s: failed to update stock for product %d: %w", op, productID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created", slog.Int64("orderID", orderID), slog.String("total", total.String()))
	return orderNumber, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", status))

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to update status", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("order status updated")
	return nil
}

// DeleteOrder удаляет заказ и возвращает количество каждой позиции
// обратно на склад. Без ограничения возврат может поднять остаток выше
// физического наличия, поэтому потолок настраивается (MaxStockOnRestore).
func (s *orderService) DeleteOrder(ctx context.Context, orderID int64) error {
	const op = "service.OrderService.DeleteOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))
	logger.Info("starting order deletion")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.GetOrderWithItemsTx(ctx, tx, orderID)
	if err != nil {
		s.rollback(logger, tx)
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to load order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to load order: %w", op, err)
	}

	for _, item := range order.Items {
		product, err := s.productRepo.LockProductByIDTx(ctx, tx, item.ProductID)
		if err != nil {
			s.rollback(logger, tx)
			logger.Error("failed to lock product", slog.Int64("productID", item.ProductID), slog.Any("error", err))
			return fmt.Errorf("%s: failed to get product %d: %w", op, item.ProductID, err)
		}

		restored := product.StockQuantity + item.Quantity
		if s.cfg.MaxStockOnRestore > 0 && restored > s.cfg.MaxStockOnRestore {
			restored = s.cfg.MaxStockOnRestore
		}

		if err := s.productRepo.UpdateStockTx(ctx, tx, item.ProductID, restored); err != nil {
			s.rollback(logger, tx)
			logger.Error("failed to restore stock", slog.Int64("productID", item.ProductID), slog.Any("error", err))
			return fmt.Errorf("%s: failed to restore stock for product %d: %w", op, item.ProductID, err)
		}
	}

	if err := s.orderRepo.DeleteOrderTx(ctx, tx, orderID); err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to delete order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order deleted", slog.String("orderNumber", order.OrderNumber))
	return nil
}

func (s *orderService) AllOrders(ctx context.Context) ([]*models.Order, error) {
	const op = "service.OrderService.AllOrders"
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) OrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.OrdersByUser"
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get user orders", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) OrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.OrderByID"
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *orderService) OrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	const op = "service.OrderService.OrderByNumber"
	order, err := s.orderRepo.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}
