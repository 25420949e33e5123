package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/linemk/clothes-shop/internal/config"
	"github.com/linemk/clothes-shop/internal/domain/models"
	"github.com/linemk/clothes-shop/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportResult — итог пакетного импорта: сколько строк легло в базу,
// сколько отбраковано и список ошибок по строкам.
type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

type ExcelService interface {
	// ImportProducts читает книгу xlsx и вставляет валидные строки одной пачкой.
	// Ошибки отдельных строк не прерывают импорт и попадают в результат.
	ImportProducts(ctx context.Context, r io.Reader) (*ImportResult, error)
	// ExportProducts выгружает все товары в книгу xlsx.
	ExportProducts(ctx context.Context) ([]byte, error)
	// ExportOrders выгружает все заказы в книгу xlsx.
	ExportOrders(ctx context.Context) ([]byte, error)
}

type excelService struct {
	log          *slog.Logger
	db           *sql.DB
	productRepo  storage.ProductStorage
	brandRepo    storage.BrandStorage
	categoryRepo storage.CategoryStorage
	orderRepo    storage.OrderStorage
	maxPrice     decimal.Decimal
}

func NewExcelService(log *slog.Logger, db *sql.DB, productRepo storage.ProductStorage,
	brandRepo storage.BrandStorage, categoryRepo storage.CategoryStorage,
	orderRepo storage.OrderStorage, cfg config.CatalogConfig) ExcelService {

	maxPrice, err := decimal.NewFromString(cfg.MaxPrice)
	if err != nil || !maxPrice.IsPositive() {
		log.Warn("invalid catalog.max_price, falling back to default", slog.String("value", cfg.MaxPrice))
		maxPrice = decimal.RequireFromString("999999.99")
	}

	return &excelService{
		log:          log,
		db:           db,
		productRepo:  productRepo,
		brandRepo:    brandRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		maxPrice:     maxPrice,
	}
}

// Позиции колонок фиксированы, заголовочная строка игнорируется.
// Колонка 1 зарезервирована под ID выгрузки и при импорте не читается.
const (
	colName = iota + 2
	colDescription
	colPrice
	colBrand
	colCategory
	colSizes
	colColor
	colStock
	colAvailable
)

// cellAt возвращает значение колонки (нумерация с единицы) или пустую строку:
// excelize обрезает хвостовые пустые ячейки строки.
func cellAt(row []string, col int) string {
	if col <= len(row) {
		return strings.TrimSpace(row[col-1])
	}
	return ""
}

func isAvailableToken(v string) bool {
	return strings.EqualFold(v, "да") || strings.EqualFold(v, "yes")
}

func (s *excelService) ImportProducts(ctx context.Context, r io.Reader) (*ImportResult, error) {
	const op = "service.ExcelService.ImportProducts"
	logger := s.log.With(slog.String("op", op))

	f, err := excelize.OpenReader(r)
	if err != nil {
		logger.Warn("failed to open workbook", slog.Any("error", err))
		return &ImportResult{Errors: []string{"file is not a valid workbook"}}, nil
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &ImportResult{Errors: []string{"file contains no worksheets"}}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		logger.Warn("failed to read worksheet", slog.Any("error", err))
		return &ImportResult{Errors: []string{"file is not a valid workbook"}}, nil
	}

	// Справочники загружаются один раз до цикла, а не на каждую строку
	brands, err := s.brandRepo.ListBrands(ctx)
	if err != nil {
		logger.Error("failed to load brands", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load brands: %w", op, err)
	}
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		logger.Error("failed to load categories", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load categories: %w", op, err)
	}

	brandByName := make(map[string]*models.Brand, len(brands))
	for _, b := range brands {
		brandByName[strings.ToLower(b.Name)] = b
	}
	categoryByName := make(map[string]*models.Category, len(categories))
	for _, c := range categories {
		categoryByName[strings.ToLower(c.Name)] = c
	}

	result := &ImportResult{Errors: []string{}}
	var pending []*models.Product

	// Первая строка — заголовок; каждая строка данных обрабатывается
	// независимо: её ошибка не откатывает остальные
	for i := 1; i < len(rows); i++ {
		rowNum := i + 1
		row := rows[i]
		if len(row) == 0 {
			continue
		}

		priceRaw := cellAt(row, colPrice)
		price, err := decimal.NewFromString(priceRaw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid price %q", rowNum, priceRaw))
			result.Failed++
			continue
		}
		if !price.IsPositive() || price.GreaterThan(s.maxPrice) {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: price must be positive and not exceed %s", rowNum, s.maxPrice))
			result.Failed++
			continue
		}

		stockRaw := cellAt(row, colStock)
		stockQuantity, err := strconv.Atoi(stockRaw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid stock quantity %q", rowNum, stockRaw))
			result.Failed++
			continue
		}
		if stockQuantity < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: stock quantity must not be negative", rowNum))
			result.Failed++
			continue
		}

		// Строки с неизвестным брендом или категорией отбрасываются,
		// товар с "висячей" ссылкой не создаётся
		brandName := cellAt(row, colBrand)
		brand, ok := brandByName[strings.ToLower(brandName)]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: brand %q not found", rowNum, brandName))
			result.Failed++
			continue
		}

		categoryName := cellAt(row, colCategory)
		category, ok := categoryByName[strings.ToLower(categoryName)]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: category %q not found", rowNum, categoryName))
			result.Failed++
			continue
		}

		pending = append(pending, &models.Product{
			Name:          cellAt(row, colName),
			Description:   cellAt(row, colDescription),
			Price:         price,
			Sizes:         cellAt(row, colSizes),
			Color:         cellAt(row, colColor),
			StockQuantity: stockQuantity,
			IsAvailable:   isAvailableToken(cellAt(row, colAvailable)),
			BrandID:       brand.ID,
			CategoryID:    category.ID,
		})
	}

	if len(pending) > 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			logger.Error("failed to begin transaction", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
		}
		if err := s.productRepo.CreateProductsTx(ctx, tx, pending); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to insert products", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to insert products: %w", op, err)
		}
		if err := tx.Commit(); err != nil {
			logger.Error("failed to commit transaction", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
		}
		result.Success = len(pending)
	}

	logger.Info("import finished",
		slog.Int("success", result.Success),
		slog.Int("failed", result.Failed))
	return result, nil
}

var productExportHeaders = []string{
	"ID", "Название", "Описание", "Цена", "Бренд", "Категория",
	"Размеры", "Цвет", "Количество на складе", "Доступен",
}

func (s *excelService) ExportProducts(ctx context.Context) ([]byte, error) {
	const op = "service.ExcelService.ExportProducts"

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}

	rows := make([][]any, 0, len(products))
	for _, p := range products {
		available := "Нет"
		if p.IsAvailable {
			available = "Да"
		}
		rows = append(rows, []any{
			p.ID, p.Name, p.Description, p.Price.InexactFloat64(), p.BrandName, p.CategoryName,
			p.Sizes, p.Color, p.StockQuantity, available,
		})
	}
	return writeWorkbook("Товары", productExportHeaders, rows)
}

var orderExportHeaders = []string{
	"Номер заказа", "Дата", "Пользователь", "Статус", "Сумма", "Адрес доставки",
}

func (s *excelService) ExportOrders(ctx context.Context) ([]byte, error) {
	const op = "service.ExcelService.ExportOrders"

	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}

	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []any{
			o.OrderNumber, o.OrderDate.Format("02.01.2006 15:04"), o.UserEmail,
			o.Status, o.TotalAmount.InexactFloat64(), o.DeliveryAddress,
		})
	}
	return writeWorkbook("Заказы", orderExportHeaders, rows)
}

// writeWorkbook собирает книгу с одним листом: жирная серая строка
// заголовков и по строке на сущность.
func writeWorkbook(sheet string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeaderCell, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, err
	}

	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
