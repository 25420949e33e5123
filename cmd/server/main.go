package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/clothes-shop/internal/app"
	"github.com/linemk/clothes-shop/internal/app/handlers"
	"github.com/linemk/clothes-shop/internal/config"
	"github.com/linemk/clothes-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/clothes-shop/internal/lib/logger"
	"github.com/linemk/clothes-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/clothes-shop/internal/service"
	"github.com/linemk/clothes-shop/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	brandRepo := storage.NewBrandRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo,
		time.Duration(cfg.JWT.TokenTTL)*time.Minute, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(application.Logger, productRepo, brandRepo, categoryRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, productRepo, orderRepo, cfg.Order)
	excelService := service.NewExcelService(application.Logger, application.DB,
		productRepo, brandRepo, categoryRepo, orderRepo, cfg.Catalog)

	// эндпоинт для аутентификации
	router.Post("/api/auth", handlers.AuthHandler(application.Logger, authService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret)
		r.Use(jwtMW)

		// каталог
		r.Get("/api/products", handlers.ListProductsHandler(application.Logger, catalogService))
		r.Get("/api/products/export", handlers.ExportProductsHandler(application.Logger, excelService))
		r.Post("/api/products/import", handlers.ImportProductsHandler(application.Logger, excelService))
		r.Get("/api/products/{id}", handlers.GetProductHandler(application.Logger, catalogService))
		r.Get("/api/brands", handlers.ListBrandsHandler(application.Logger, catalogService))
		r.Get("/api/categories", handlers.ListCategoriesHandler(application.Logger, catalogService))

		// заказы
		r.Post("/api/orders", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/my", handlers.MyOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/export", handlers.ExportOrdersHandler(application.Logger, excelService))
		r.Get("/api/orders/number/{number}", handlers.GetOrderByNumberHandler(application.Logger, orderService))
		r.Get("/api/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Patch("/api/orders/{id}/status", handlers.UpdateOrderStatusHandler(application.Logger, orderService))
		r.Delete("/api/orders/{id}", handlers.DeleteOrderHandler(application.Logger, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
