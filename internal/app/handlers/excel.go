package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/clothes-shop/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// максимальный размер загружаемой книги
const maxImportSize = 16 << 20

// ImportProductsHandler обрабатывает запрос POST /api/products/import:
// принимает книгу xlsx в multipart-поле "file" и возвращает итог импорта.
// Ошибки отдельных строк не считаются ошибкой запроса.
func ImportProductsHandler(log *slog.Logger, excelService service.ExcelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ImportProductsHandler"
		logger := log.With(slog.String("op", op))

		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			logger.Error("invalid multipart form", slog.Any("error", err))
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			logger.Error("file field is missing", slog.Any("error", err))
			http.Error(w, "file field is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		result, err := excelService.ImportProducts(r.Context(), file)
		if err != nil {
			logger.Error("import failed", slog.Any("error", err))
			http.Error(w, "import failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, result)
	}
}

// ExportProductsHandler обрабатывает запрос GET /api/products/export.
func ExportProductsHandler(log *slog.Logger, excelService service.ExcelService) http.HandlerFunc {
	return exportHandler(log, "handlers.ExportProductsHandler", "products.xlsx", func(r *http.Request) ([]byte, error) {
		return excelService.ExportProducts(r.Context())
	})
}

// ExportOrdersHandler обрабатывает запрос GET /api/orders/export.
func ExportOrdersHandler(log *slog.Logger, excelService service.ExcelService) http.HandlerFunc {
	return exportHandler(log, "handlers.ExportOrdersHandler", "orders.xlsx", func(r *http.Request) ([]byte, error) {
		return excelService.ExportOrders(r.Context())
	})
}

func exportHandler(log *slog.Logger, op, filename string, export func(*http.Request) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", op))

		data, err := export(r)
		if err != nil {
			logger.Error("export failed", slog.Any("error", err))
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		if _, err := w.Write(data); err != nil {
			logger.Error("failed to write response", slog.Any("error", err))
		}
	}
}
