package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/clothes-shop/internal/service"
)

// ListBrandsHandler обрабатывает запрос GET /api/brands.
func ListBrandsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListBrandsHandler"
		logger := log.With(slog.String("op", op))

		brands, err := catalogService.Brands(r.Context())
		if err != nil {
			logger.Error("failed to list brands", slog.Any("error", err))
			http.Error(w, "failed to list brands", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, brands)
	}
}

// ListCategoriesHandler обрабатывает запрос GET /api/categories.
func ListCategoriesHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		categories, err := catalogService.Categories(r.Context())
		if err != nil {
			logger.Error("failed to list categories", slog.Any("error", err))
			http.Error(w, "failed to list categories", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, categories)
	}
}
