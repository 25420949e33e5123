package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/clothes-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/clothes-shop/internal/service"
	"github.com/linemk/clothes-shop/internal/storage"
)

// OrderLineRequest — позиция корзины во входном JSON.
type OrderLineRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Size      string `json:"size"`
}

// CreateOrderRequest представляет входной JSON для оформления заказа.
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string             `json:"delivery_address"`
	RecipientName   string             `json:"recipient_name"`
	RecipientPhone  string             `json:"recipient_phone"`
	Comment         string             `json:"comment"`
}

// CreateOrderResponse — ответ при успешном оформлении.
type CreateOrderResponse struct {
	OrderNumber string `json:"order_number"`
}

// CreateOrderHandler обрабатывает запрос POST /api/orders.
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		lines := make([]service.CartLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, service.CartLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Size:      item.Size,
			})
		}
		delivery := service.DeliveryInfo{
			Address:        req.DeliveryAddress,
			RecipientName:  req.RecipientName,
			RecipientPhone: req.RecipientPhone,
			Comment:        req.Comment,
		}

		orderNumber, err := orderService.CreateOrder(r.Context(), userID, delivery, lines)
		if err != nil {
			logger.Error("failed to create order", slog.Any("error", err))
			switch {
			case errors.Is(err, service.ErrInsufficientStock):
				http.Error(w, "insufficient stock", http.StatusConflict)
			case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidQuantity),
				errors.Is(err, storage.ErrProductNotFound):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "failed to create order", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(CreateOrderResponse{OrderNumber: orderNumber}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// UpdateOrderStatusRequest представляет входной JSON смены статуса.
// Набор статусов проверяется здесь; сам движок любой переход допускает.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=New Processing Shipped Delivered Cancelled"`
}

// UpdateOrderStatusHandler обрабатывает запрос PATCH /api/orders/{id}/status.
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req UpdateOrderStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		if err := orderService.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to update status", slog.Any("error", err))
			http.Error(w, "failed to update status", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, map[string]string{"message": "status updated"})
	}
}

// DeleteOrderHandler обрабатывает запрос DELETE /api/orders/{id}.
func DeleteOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		if err := orderService.DeleteOrder(r.Context(), orderID); err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to delete order", slog.Any("error", err))
			http.Error(w, "failed to delete order", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, map[string]string{"message": "order deleted"})
	}
}

// ListOrdersHandler обрабатывает запрос GET /api/orders — все заказы, новые первыми.
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.AllOrders(r.Context())
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			http.Error(w, "failed to list orders", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, orders)
	}
}

// MyOrdersHandler обрабатывает запрос GET /api/orders/my — заказы текущего пользователя.
func MyOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := orderService.OrdersByUser(r.Context(), userID)
		if err != nil {
			logger.Error("failed to list user orders", slog.Any("error", err))
			http.Error(w, "failed to list orders", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, orders)
	}
}

// GetOrderHandler обрабатывает запрос GET /api/orders/{id}.
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := orderService.OrderByID(r.Context(), orderID)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get order", slog.Any("error", err))
			http.Error(w, "failed to get order", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, order)
	}
}

// GetOrderByNumberHandler обрабатывает запрос GET /api/orders/number/{number}.
func GetOrderByNumberHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderByNumberHandler"
		logger := log.With(slog.String("op", op))

		orderNumber := chi.URLParam(r, "number")
		if orderNumber == "" {
			http.Error(w, "order number is required", http.StatusBadRequest)
			return
		}

		order, err := orderService.OrderByNumber(r.Context(), orderNumber)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get order", slog.Any("error", err))
			http.Error(w, "failed to get order", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, order)
	}
}
