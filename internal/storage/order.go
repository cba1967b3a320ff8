package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/shop-api/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// GetOrdersByUserID возвращает заказы пользователя, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	// UpdateOrder сохраняет изменяемые поля заказа целиком.
	UpdateOrder(ctx context.Context, o *models.Order) (*models.Order, error)
	// MarkOrderPaid отмечает заказ оплаченным в рамках транзакции подтверждения платежа.
	MarkOrderPaid(ctx context.Context, tx *sql.Tx, orderID int64, result *models.PaymentResult) error
	DeleteOrder(ctx context.Context, id int64) error
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, items, shipping_address, payment_method, items_price, shipping_price, total_price,
	is_paid, paid_at, payment_result, status, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	var (
		paidAt sql.NullTime
		result []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Items, &o.ShippingAddress, &o.PaymentMethod, &o.ItemsPrice, &o.ShippingPrice,
		&o.TotalPrice, &o.IsPaid, &paidAt, &result, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if result != nil {
		o.PaymentResult = &models.PaymentResult{}
		if err := o.PaymentResult.Scan(result); err != nil {
			return nil, err
		}
	}
	if o.Items == nil {
		o.Items = models.OrderItems{}
	}
	return o, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, items, shipping_address, payment_method, items_price, shipping_price, total_price, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`,
		o.UserID, o.Items, o.ShippingAddress, o.PaymentMethod, o.ItemsPrice, o.ShippingPrice, o.TotalPrice, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows *sql.Rows) ([]*models.Order, error) {
	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE orders SET items = $1, shipping_address = $2, items_price = $3, total_price = $4, status = $5,
		        is_paid = $6, paid_at = $7, payment_result = $8, updated_at = NOW()
		 WHERE id = $9 RETURNING updated_at`,
		o.Items, o.ShippingAddress, o.ItemsPrice, o.TotalPrice, o.Status, o.IsPaid, o.PaidAt, o.PaymentResult, o.ID,
	).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) MarkOrderPaid(ctx context.Context, tx *sql.Tx, orderID int64, result *models.PaymentResult) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET is_paid = TRUE, paid_at = NOW(), payment_result = $1, updated_at = NOW() WHERE id = $2",
		result, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
