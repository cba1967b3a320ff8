package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/shop-api/internal/config"
	"github.com/linemk/shop-api/internal/service"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewScheduler регистрирует фоновые задачи; запуск и остановка на вызывающем
func NewScheduler(log *slog.Logger, cfg *config.Config, carts service.CartService) (*cron.Cron, error) {
	sched := cron.New(cron.WithParser(cronParser))

	_, err := sched.AddFunc(cfg.Jobs.CartCleanupSpec, func() {
		purgeStaleCarts(log, carts, cfg.Jobs.CartTTL)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule cart cleanup %q: %w", cfg.Jobs.CartCleanupSpec, err)
	}
	return sched, nil
}

func purgeStaleCarts(log *slog.Logger, carts service.CartService, ttl time.Duration) {
	const op = "app.purgeStaleCarts"
	logger := log.With(slog.String("op", op))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("cart cleanup panicked", slog.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := carts.PurgeStale(ctx, ttl)
	if err != nil {
		logger.Error("failed to purge stale carts", slog.Any("error", err))
		return
	}
	logger.Info("stale carts purged", slog.Int64("count", n), slog.Duration("ttl", ttl))
}
