package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/kafka"
	"github.com/linemk/shop-api/internal/payment"
	"github.com/linemk/shop-api/internal/redisx"
	"github.com/linemk/shop-api/internal/storage"
)

type PaymentService interface {
	CreateIntent(ctx context.Context, userID int64, in IntentInput) (*payment.Intent, error)
	Confirm(ctx context.Context, userID int64, in ConfirmInput) (*ConfirmResult, error)
}

type IntentInput struct {
	Amount   int64
	Currency string
	OrderID  int64
	Billing  models.BillingDetails
}

type ConfirmInput struct {
	PaymentID string
	Amount    int64
	Currency  string
	Status    string
	OrderID   int64
	Billing   models.BillingDetails
}

// ConfirmResult AlreadyRecorded — платёж с таким PaymentID уже был записан раньше
type ConfirmResult struct {
	Payment         *models.Payment
	AlreadyRecorded bool
}

type paymentService struct {
	log         *slog.Logger
	db          *sql.DB
	paymentRepo storage.PaymentStorage
	orderRepo   storage.OrderStorage
	cartRepo    storage.CartStorage
	gateway     payment.Gateway
	cache       redisx.Cache
	events      kafka.Emitter
}

func NewPaymentService(
	log *slog.Logger,
	db *sql.DB,
	paymentRepo storage.PaymentStorage,
	orderRepo storage.OrderStorage,
	cartRepo storage.CartStorage,
	gateway payment.Gateway,
	cache redisx.Cache,
	events kafka.Emitter,
) PaymentService {
	return &paymentService{
		log:         log,
		db:          db,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		gateway:     gateway,
		cache:       cache,
		events:      events,
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, userID int64, in IntentInput) (*payment.Intent, error) {
	const op = "service.PaymentService.CreateIntent"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("orderID", in.OrderID))

	if in.Billing.Name == "" || in.Billing.Address == "" {
		return nil, validationErrorf("Billing details are incomplete")
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		Amount:   in.Amount,
		Currency: in.Currency,
		OrderID:  in.OrderID,
		Billing:  in.Billing,
	})
	if err != nil {
		logger.Error("failed to create payment intent", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("payment intent created", slog.String("paymentIntentID", intent.ID))
	return intent, nil
}

// Confirm записывает платёж. Запись платежа, отметка оплаты заказа
// и очистка корзины выполняются в одной транзакции.
func (s *paymentService) Confirm(ctx context.Context, userID int64, in ConfirmInput) (*ConfirmResult, error) {
	const op = "service.PaymentService.Confirm"
	logger := s.log.With(slog.String("op", op), slog.String("paymentID", in.PaymentID), slog.Int64("orderID", in.OrderID))

	existing, err := s.recorded(ctx, logger, in.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		logger.Info("payment already recorded")
		return &ConfirmResult{Payment: existing, AlreadyRecorded: true}, nil
	}

	p := &models.Payment{
		UserID:         userID,
		OrderID:        in.OrderID,
		PaymentID:      in.PaymentID,
		Amount:         in.Amount,
		Currency:       in.Currency,
		Status:         models.PaymentStatusFromProcessor(in.Status),
		BillingDetails: in.Billing.WithDefaults(),
	}

	var created *models.Payment
	err = runInTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		// платёж записывается только по собственному заказу
		order, err := s.orderRepo.GetOrderByID(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			logger.Warn("payment for a foreign order", slog.Int64("userID", userID), slog.Int64("ownerID", order.UserID))
			return ErrForbidden
		}

		created, err = s.paymentRepo.CreatePayment(ctx, tx, p)
		if err != nil {
			return err
		}
		if in.Status != models.ProcessorStatusSucceeded {
			return nil
		}

		if err := s.orderRepo.MarkOrderPaid(ctx, tx, in.OrderID, &models.PaymentResult{
			ID:         in.PaymentID,
			Status:     string(models.PaymentStatusCompleted),
			UpdateTime: time.Now(),
		}); err != nil {
			return err
		}
		if err := s.cartRepo.DeleteCartTx(ctx, tx, userID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		// параллельный запрос успел записать тот же платёж
		if errors.Is(err, storage.ErrPaymentExists) {
			existing, getErr := s.paymentRepo.GetPaymentByPaymentID(ctx, in.PaymentID)
			if getErr == nil {
				return &ConfirmResult{Payment: existing, AlreadyRecorded: true}, nil
			}
		}
		logger.Error("failed to confirm payment", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.remember(ctx, logger, created)

	if err := s.events.Emit(ctx, kafka.EventPaymentConfirmed, created.PaymentID, kafka.PaymentConfirmedPayload{
		PaymentID: created.PaymentID,
		OrderID:   created.OrderID,
		UserID:    created.UserID,
		Amount:    created.Amount,
		Currency:  created.Currency,
		Status:    string(created.Status),
	}); err != nil {
		logger.Warn("failed to publish event", slog.String("event", kafka.EventPaymentConfirmed), slog.Any("error", err))
	}

	logger.Info("payment confirmed", slog.String("status", string(created.Status)))
	return &ConfirmResult{Payment: created}, nil
}

// recorded ищет платёж сначала в кэше, затем в БД. nil, nil — платежа нет.
func (s *paymentService) recorded(ctx context.Context, logger *slog.Logger, paymentID string) (*models.Payment, error) {
	if b, err := s.cache.Get(ctx, redisx.PaymentRecordedKey(paymentID)); err == nil {
		var p models.Payment
		if err := json.Unmarshal(b, &p); err == nil {
			return &p, nil
		}
	} else if !errors.Is(err, redisx.ErrCacheMiss) {
		logger.Warn("payment cache read failed", slog.Any("error", err))
	}

	p, err := s.paymentRepo.GetPaymentByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, storage.ErrPaymentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.remember(ctx, logger, p)
	return p, nil
}

func (s *paymentService) remember(ctx context.Context, logger *slog.Logger, p *models.Payment) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, redisx.PaymentRecordedKey(p.PaymentID), b, redisx.TTLPaymentRecorded); err != nil {
		logger.Warn("payment cache write failed", slog.Any("error", err))
	}
}
