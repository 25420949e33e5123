package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/clothes-shop/internal/service"
	"github.com/linemk/clothes-shop/internal/storage"
)

// ListProductsHandler обрабатывает запрос GET /api/products.
// Параметры: search, brand_id, category_id, available=true.
func ListProductsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		q := r.URL.Query()
		term := q.Get("search")

		var brandID, categoryID *int64
		if raw := q.Get("brand_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "invalid brand_id", http.StatusBadRequest)
				return
			}
			brandID = &id
		}
		if raw := q.Get("category_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "invalid category_id", http.StatusBadRequest)
				return
			}
			categoryID = &id
		}
		onlyAvailable := q.Get("available") == "true"

		products, err := catalogService.Products(r.Context(), term, brandID, categoryID, onlyAvailable)
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			http.Error(w, "failed to list products", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, products)
	}
}

// GetProductHandler обрабатывает запрос GET /api/products/{id}.
func GetProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		product, err := catalogService.ProductByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get product", slog.Any("error", err))
			http.Error(w, "failed to get product", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, product)
	}
}
