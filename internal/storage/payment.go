package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/shop-api/internal/domain/models"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentExists   = errors.New("payment already recorded")
)

type PaymentStorage interface {
	GetPaymentByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error)
	CreatePayment(ctx context.Context, tx *sql.Tx, p *models.Payment) (*models.Payment, error)
}

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentStorage {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetPaymentByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	p := &models.Payment{}
	var orderID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, order_id, payment_id, amount, currency, status, billing_details, created_at
		 FROM payments WHERE payment_id = $1`, paymentID,
	).Scan(&p.ID, &p.UserID, &orderID, &p.PaymentID, &p.Amount, &p.Currency, &p.Status, &p.BillingDetails, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	p.OrderID = orderID.Int64
	return p, nil
}

// CreatePayment: дубль payment_id -> ErrPaymentExists, несуществующий заказ -> ErrOrderNotFound
func (r *paymentRepository) CreatePayment(ctx context.Context, tx *sql.Tx, p *models.Payment) (*models.Payment, error) {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO payments (user_id, order_id, payment_id, amount, currency, status, billing_details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		p.UserID, p.OrderID, p.PaymentID, p.Amount, p.Currency, p.Status, p.BillingDetails,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return nil, ErrPaymentExists
		}
		if isPQCode(err, pqForeignKeyViolation) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return p, nil
}
