package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/linemk/shop-api/internal/app"
	"github.com/linemk/shop-api/internal/config"
	"github.com/linemk/shop-api/internal/lib/logger"
	"github.com/linemk/shop-api/internal/service"
	"github.com/linemk/shop-api/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// локальный .env не обязателен
	_ = godotenv.Load()

	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения с конфигом и внешними подключениями
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	application.Start(ctx)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	paymentRepo := storage.NewPaymentRepository(application.DB)

	cartService := service.NewCartService(log, application.DB, cartRepo, productRepo)
	services := app.Services{
		Auth: service.NewAuthService(log, userRepo, application.Files,
			time.Duration(cfg.JWT.TokenTTL)*time.Minute,
			time.Duration(cfg.JWT.RefreshTTL)*time.Minute,
		),
		Users:      service.NewUserService(log, userRepo, application.Files),
		Categories: service.NewCategoryService(log, categoryRepo),
		Products: service.NewProductService(log, productRepo, categoryRepo,
			application.Files, application.Cache, cfg.Redis.ProductTTL),
		Cart:   cartService,
		Orders: service.NewOrderService(log, orderRepo, productRepo, userRepo, application.Events),
		Payments: service.NewPaymentService(log, application.DB, paymentRepo, orderRepo, cartRepo,
			application.Payments, application.Cache, application.Events),
		Contact: service.NewContactService(log, application.Mailer,
			cfg.SMTP.StoreName, cfg.SMTP.OwnerEmail, cfg.SMTP.SupportEmail),
	}

	sched, err := app.NewScheduler(log, cfg, cartService)
	if err != nil {
		log.Error("failed to schedule jobs", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to schedule jobs"))
	}
	sched.Start()

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      app.NewRouter(log, cfg, services),
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	// ждём текущую задачу планировщика
	<-sched.Stop().Done()

	// отмена контекста дописывает буфер событий
	cancel()
	application.Close()
	log.Info("server gracefully stopped")
}
