package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/storage"
)

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error)
	ClearCart(ctx context.Context, userID int64) error
	PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type cartService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart для пользователя без корзины возвращает пустую корзину
func (s *cartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.GetCart"

	cart, err := s.cartRepo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return models.NewCart(userID, nil), nil
		}
		s.log.Error("failed to get cart", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// AddItem создаёт корзину при необходимости; цена фиксируется при первом добавлении товара
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = runInTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.cartRepo.EnsureCart(ctx, tx, userID); err != nil {
			return err
		}
		return s.cartRepo.AddItem(ctx, tx, userID, productID, quantity, product.Price)
	})
	if err != nil {
		logger.Error("failed to add item to cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("item added to cart", slog.Int("quantity", quantity))
	return s.reload(ctx, op, userID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	const op = "service.CartService.UpdateItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	err := runInTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.cartRepo.TouchCart(ctx, tx, userID); err != nil {
			return err
		}
		return s.cartRepo.UpdateItemQuantity(ctx, tx, userID, productID, quantity)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("cart item updated", slog.Int("quantity", quantity))
	return s.reload(ctx, op, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	err := runInTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.cartRepo.TouchCart(ctx, tx, userID); err != nil {
			return err
		}
		return s.cartRepo.RemoveItem(ctx, tx, userID, productID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("cart item removed")
	return s.reload(ctx, op, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID int64) error {
	const op = "service.CartService.ClearCart"

	if err := s.cartRepo.DeleteCart(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("cart cleared", slog.String("op", op), slog.Int64("userID", userID))
	return nil
}

// PurgeStale удаляет корзины, не менявшиеся дольше olderThan
func (s *cartService) PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	const op = "service.CartService.PurgeStale"

	n, err := s.cartRepo.DeleteStaleCarts(ctx, time.Now().Add(-olderThan))
	if err != nil {
		s.log.Error("failed to purge stale carts", slog.String("op", op), slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *cartService) reload(ctx context.Context, op string, userID int64) (*models.Cart, error) {
	cart, err := s.cartRepo.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to reload cart: %w", op, err)
	}
	return cart, nil
}
