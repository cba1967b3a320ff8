package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — плоское перечисление, переходы между значениями не ограничены
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem позиция заказа со снимком имени и цены товара
type OrderItem struct {
	ProductID int64           `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderItems []OrderItem

func (oi OrderItems) Value() (driver.Value, error) {
	if oi == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(oi)
}

func (oi *OrderItems) Scan(src any) error {
	return scanJSON(src, oi)
}

// Total сумма позиций: цена * количество
func (oi OrderItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range oi {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src any) error {
	return scanJSON(src, a)
}

// PaymentResult результат оплаты заказа
type PaymentResult struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	UpdateTime   time.Time `json:"update_time"`
	EmailAddress string    `json:"email_address,omitempty"`
}

// Value: nil-указатель сохраняется как NULL
func (p *PaymentResult) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *PaymentResult) Scan(src any) error {
	return scanJSON(src, p)
}

// Order заказ пользователя
type Order struct {
	ID              int64           `json:"_id"`
	UserID          int64           `json:"user"`
	Items           OrderItems      `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderStats сводка для админки
type OrderStats struct {
	TotalOrders  int             `json:"totalOrders"`
	TotalSales   decimal.Decimal `json:"totalSales"`
	PaidOrders   int             `json:"paidOrders"`
	UnpaidOrders int             `json:"unpaidOrders"`
}

// ComputeOrderStats считает статистику; в продажи попадают только оплаченные заказы
func ComputeOrderStats(orders []*Order) OrderStats {
	stats := OrderStats{TotalOrders: len(orders), TotalSales: decimal.Zero}
	for _, o := range orders {
		if o.IsPaid {
			stats.PaidOrders++
			stats.TotalSales = stats.TotalSales.Add(o.TotalPrice)
		} else {
			stats.UnpaidOrders++
		}
	}
	return stats
}
