package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("item not found in cart")
)

// CartStorage корзина хранится как строка carts и набор cart_items.
// Методы с tx вызываются сервисом внутри одной транзакции.
type CartStorage interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	EnsureCart(ctx context.Context, tx *sql.Tx, userID int64) error
	TouchCart(ctx context.Context, tx *sql.Tx, userID int64) error
	AddItem(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int, price decimal.Decimal) error
	UpdateItemQuantity(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, tx *sql.Tx, userID, productID int64) error
	DeleteCart(ctx context.Context, userID int64) error
	DeleteCartTx(ctx context.Context, tx *sql.Tx, userID int64) error
	DeleteStaleCarts(ctx context.Context, before time.Time) (int64, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

// GetCart возвращает ErrCartNotFound, если корзина ещё не создавалась
func (r *cartRepository) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM carts WHERE user_id = $1)", userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check cart: %w", err)
	}
	if !exists {
		return nil, ErrCartNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.product_id, ci.quantity, ci.price, ci.added_at, ci.updated_at,
		       p.id, p.name, p.description, p.price, p.category, p.stock, p.images, p.created_by, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var (
			item      models.CartItem
			p         models.Product
			createdBy sql.NullInt64
		)
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price, &item.AddedAt, &item.UpdatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.Images, &createdBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		p.CreatedBy = createdBy.Int64
		item.Product = &p
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models.NewCart(userID, items), nil
}

// EnsureCart создаёт корзину при первом добавлении и обновляет updated_at
func (r *cartRepository) EnsureCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO carts (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()`, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure cart: %w", err)
	}
	return nil
}

// TouchCart обновляет updated_at существующей корзины
func (r *cartRepository) TouchCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	res, err := tx.ExecContext(ctx, "UPDATE carts SET updated_at = NOW() WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

// AddItem увеличивает количество у существующей строки, цена остаётся от первого добавления
func (r *cartRepository) AddItem(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int, price decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		userID, productID, quantity, price)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE user_id = $2 AND product_id = $3",
		quantity, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// RemoveItem отсутствие строки ошибкой не считается
func (r *cartRepository) RemoveItem(ctx context.Context, tx *sql.Tx, userID, productID int64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM carts WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

// DeleteCartTx используется при подтверждении оплаты, пустая корзина не ошибка
func (r *cartRepository) DeleteCartTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM carts WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// DeleteStaleCarts удаляет корзины, не менявшиеся с before, строки уходят каскадом
func (r *cartRepository) DeleteStaleCarts(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM carts WHERE updated_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale carts: %w", err)
	}
	return res.RowsAffected()
}
