package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/clothes-shop/internal/config"
	"github.com/linemk/clothes-shop/internal/domain/models"
	"github.com/linemk/clothes-shop/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeBrandRepo struct {
	brands []*models.Brand
}

func (f *fakeBrandRepo) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	return f.brands, nil
}

type fakeCategoryRepo struct {
	categories []*models.Category
}

func (f *fakeCategoryRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return f.categories, nil
}

func catalogCfg() config.CatalogConfig {
	return config.CatalogConfig{MaxPrice: "999999.99"}
}

// buildWorkbook собирает книгу в памяти: первая строка — заголовок,
// дальше строки данных начиная с колонки B (колонка A — ID выгрузки).
func buildWorkbook(t *testing.T, dataRows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"ID", "Название", "Описание", "Цена", "Бренд", "Категория", "Размеры", "Цвет", "Количество", "Доступен"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cell, h))
	}
	for rowIdx, row := range dataRows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+2, rowIdx+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExcelService_ImportProducts_MixedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Пачка валидных строк вставляется одной транзакцией
	mock.ExpectBegin()
	mock.ExpectCommit()

	productRepo := newFakeProductRepo()
	brandRepo := &fakeBrandRepo{brands: []*models.Brand{{ID: 1, Name: "Nike"}}}
	categoryRepo := &fakeCategoryRepo{categories: []*models.Category{{ID: 1, Name: "Shoes"}}}

	svc := service.NewExcelService(testLogger(), db, productRepo, brandRepo, categoryRepo, newFakeOrderRepo(), catalogCfg())

	// Строка 2 валидна, строка 3 с мусорной ценой, строка 4 с неизвестным брендом
	workbook := buildWorkbook(t, [][]any{
		{"Air Max", "Кроссовки", "5000.00", "Nike", "Shoes", "41,42", "Белый", "10", "да"},
		{"Jordan", "", "дорого", "Nike", "Shoes", "43", "Красный", "5", "да"},
		{"Superstar", "", "3000.00", "Adidas", "Shoes", "40", "Чёрный", "3", "нет"},
	})

	result, err := svc.ImportProducts(context.Background(), bytes.NewReader(workbook))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "row 3")
	assert.Contains(t, result.Errors[1], "row 4")
	assert.Contains(t, result.Errors[1], "Adidas")

	require.Len(t, productRepo.inserted, 1)
	inserted := productRepo.inserted[0]
	assert.Equal(t, "Air Max", inserted.Name)
	assert.True(t, inserted.Price.Equal(decimal.RequireFromString("5000.00")))
	assert.Equal(t, int64(1), inserted.BrandID)
	assert.Equal(t, int64(1), inserted.CategoryID)
	assert.Equal(t, 10, inserted.StockQuantity)
	assert.True(t, inserted.IsAvailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExcelService_ImportProducts_HeaderOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	productRepo := newFakeProductRepo()
	svc := service.NewExcelService(testLogger(), db, productRepo,
		&fakeBrandRepo{}, &fakeCategoryRepo{}, newFakeOrderRepo(), catalogCfg())

	result, err := svc.ImportProducts(context.Background(), bytes.NewReader(buildWorkbook(t, nil)))
	require.NoError(t, err)

	// Одни заголовки — пустой результат без единого обращения к БД
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	assert.Empty(t, productRepo.inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExcelService_ImportProducts_RejectsNegativeStockAndPrice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	productRepo := newFakeProductRepo()
	brandRepo := &fakeBrandRepo{brands: []*models.Brand{{ID: 1, Name: "Nike"}}}
	categoryRepo := &fakeCategoryRepo{categories: []*models.Category{{ID: 1, Name: "Shoes"}}}

	svc := service.NewExcelService(testLogger(), db, productRepo, brandRepo, categoryRepo, newFakeOrderRepo(), catalogCfg())

	workbook := buildWorkbook(t, [][]any{
		{"A", "", "-10.00", "Nike", "Shoes", "", "", "1", "да"},
		{"B", "", "100.00", "Nike", "Shoes", "", "", "-5", "да"},
		{"C", "", "1000000.00", "Nike", "Shoes", "", "", "1", "да"},
	})

	result, err := svc.ImportProducts(context.Background(), bytes.NewReader(workbook))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 3, result.Failed)
	assert.Empty(t, productRepo.inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExcelService_ImportProducts_BrandNameCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	productRepo := newFakeProductRepo()
	brandRepo := &fakeBrandRepo{brands: []*models.Brand{{ID: 7, Name: "Nike"}}}
	categoryRepo := &fakeCategoryRepo{categories: []*models.Category{{ID: 3, Name: "Shoes"}}}

	svc := service.NewExcelService(testLogger(), db, productRepo, brandRepo, categoryRepo, newFakeOrderRepo(), catalogCfg())

	workbook := buildWorkbook(t, [][]any{
		{"Air Max", "", "100.00", "NIKE", "shoes", "", "", "1", "ДА"},
	})

	result, err := svc.ImportProducts(context.Background(), bytes.NewReader(workbook))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Success)
	require.Len(t, productRepo.inserted, 1)
	assert.Equal(t, int64(7), productRepo.inserted[0].BrandID)
	assert.Equal(t, int64(3), productRepo.inserted[0].CategoryID)
	assert.True(t, productRepo.inserted[0].IsAvailable)
}

func TestExcelService_ImportProducts_MalformedFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := service.NewExcelService(testLogger(), db, newFakeProductRepo(),
		&fakeBrandRepo{}, &fakeCategoryRepo{}, newFakeOrderRepo(), catalogCfg())

	// Мусор вместо xlsx не считается серверной ошибкой
	result, err := svc.ImportProducts(context.Background(), strings.NewReader("definitely not a workbook"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not a valid workbook")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExcelService_ExportProducts(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	productRepo := newFakeProductRepo()
	productRepo.products[1] = &models.Product{
		ID:            1,
		Name:          "Air Max",
		Description:   "Кроссовки",
		Price:         decimal.RequireFromString("5000.00"),
		BrandName:     "Nike",
		CategoryName:  "Shoes",
		Sizes:         "41,42",
		Color:         "Белый",
		StockQuantity: 10,
		IsAvailable:   true,
	}

	svc := service.NewExcelService(testLogger(), db, productRepo,
		&fakeBrandRepo{}, &fakeCategoryRepo{}, newFakeOrderRepo(), catalogCfg())

	data, err := svc.ExportProducts(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Товары")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Название", rows[0][1])
	assert.Equal(t, "Доступен", rows[0][9])
	assert.Equal(t, "Air Max", rows[1][1])
	assert.Equal(t, "Nike", rows[1][4])
	assert.Equal(t, "Да", rows[1][9])
}

func TestExcelService_ExportOrders(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orderRepo := newFakeOrderRepo()
	orderRepo.orders[1] = &models.Order{
		ID:              1,
		OrderNumber:     "ORD-20240315-AB12CD34",
		OrderDate:       time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC),
		UserEmail:       "user@example.com",
		Status:          models.StatusNew,
		TotalAmount:     decimal.RequireFromString("10451.50"),
		DeliveryAddress: "Москва, Тверская 1",
	}

	svc := service.NewExcelService(testLogger(), db, newFakeProductRepo(),
		&fakeBrandRepo{}, &fakeCategoryRepo{}, orderRepo, catalogCfg())

	data, err := svc.ExportOrders(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Заказы")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Номер заказа", rows[0][0])
	assert.Equal(t, "ORD-20240315-AB12CD34", rows[1][0])
	assert.Equal(t, "15.03.2024 12:30", rows[1][1])
	assert.Equal(t, "user@example.com", rows[1][2])
	assert.Equal(t, models.StatusNew, rows[1][3])
}

func TestExcelService_ExportProducts_Empty(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := service.NewExcelService(testLogger(), db, newFakeProductRepo(),
		&fakeBrandRepo{}, &fakeCategoryRepo{}, newFakeOrderRepo(), catalogCfg())

	data, err := svc.ExportProducts(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	// Книга с одними заголовками всё равно валидна
	rows, err := f.GetRows("Товары")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ID", rows[0][0])
}
