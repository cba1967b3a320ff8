package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/shop-api/internal/config"
	"github.com/linemk/shop-api/internal/filestore"
	"github.com/linemk/shop-api/internal/kafka"
	"github.com/linemk/shop-api/internal/mailer"
	"github.com/linemk/shop-api/internal/payment"
	"github.com/linemk/shop-api/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// App держит внешние подключения процесса
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Cache    redisx.Cache
	Events   kafka.Emitter
	Files    filestore.Store
	Mailer   mailer.Mailer
	Payments payment.Gateway

	rdb      *redis.Client
	producer *kafka.Producer
}

// NewApp создаёт новый экземпляр App
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	// реализуем подключение к БД через DSN
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	files, err := filestore.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL, cfg.Uploads.MaxSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init upload storage: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Cache:  redisx.NopCache{},
		Events: kafka.NopEmitter{},
		Files:  files,
		Mailer: mailer.NewSMTPMailer(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.StoreName,
		),
		Payments: payment.DisabledGateway{},
	}

	if cfg.Redis.Addr != "" {
		app.rdb = redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := app.rdb.Ping(ctx).Err(); err != nil {
			// кэш не обязателен, ошибки кэша сервисы только логируют
			log.Warn("redis is unavailable", slog.String("addr", cfg.Redis.Addr), slog.Any("error", err))
		}
		cancel()
		app.Cache = redisx.NewCache(app.rdb)
	} else {
		log.Info("redis address is empty, cache disabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		app.producer = kafka.NewProducer(log, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Buffer)
		app.Events = kafka.NewEventEmitter(app.producer)
	} else {
		log.Info("kafka brokers are not set, events disabled")
	}

	if cfg.Stripe.SecretKey != "" {
		app.Payments = payment.NewStripeGateway(cfg.Stripe.SecretKey, nil)
	} else {
		log.Warn("STRIPE_SECRET_KEY is not set, payment intents are disabled")
	}

	return app, nil
}

// Start запускает фоновые компоненты, работающие до отмены ctx
func (a *App) Start(ctx context.Context) {
	if a.producer != nil {
		a.producer.Start(ctx)
	}
}

// Close вызывается после отмены контекста Start
func (a *App) Close() {
	if a.producer != nil {
		a.producer.WaitClosed()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.Logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
