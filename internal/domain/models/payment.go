package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// ProcessorStatusSucceeded статус платёжного процессора, при котором заказ считается оплаченным
const ProcessorStatusSucceeded = "succeeded"

var processorStatuses = map[string]PaymentStatus{
	"succeeded":               PaymentStatusCompleted,
	"processing":              PaymentStatusPending,
	"requires_payment_method": PaymentStatusPending,
	"requires_action":         PaymentStatusPending,
	"requires_capture":        PaymentStatusPending,
	"canceled":                PaymentStatusFailed,
}

// PaymentStatusFromProcessor переводит статус процессора в локальный, неизвестные -> pending
func PaymentStatusFromProcessor(status string) PaymentStatus {
	if s, ok := processorStatuses[status]; ok {
		return s
	}
	return PaymentStatusPending
}

type BillingDetails struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

const (
	billingNotProvided    = "Not provided"
	defaultBillingCountry = "IN"
)

// WithDefaults заполняет пустые поля значениями по умолчанию
func (b BillingDetails) WithDefaults() BillingDetails {
	if b.Name == "" {
		b.Name = billingNotProvided
	}
	if b.Address == "" {
		b.Address = billingNotProvided
	}
	if b.City == "" {
		b.City = billingNotProvided
	}
	if b.PostalCode == "" {
		b.PostalCode = billingNotProvided
	}
	if b.Country == "" {
		b.Country = defaultBillingCountry
	}
	return b
}

func (b BillingDetails) Value() (driver.Value, error) {
	return json.Marshal(b)
}

func (b *BillingDetails) Scan(src any) error {
	return scanJSON(src, b)
}

// Payment запись о платеже; PaymentID — идентификатор у процессора, уникален
type Payment struct {
	ID             int64          `json:"_id"`
	UserID         int64          `json:"userId"`
	OrderID        int64          `json:"orderId"`
	PaymentID      string         `json:"paymentId"`
	Amount         int64          `json:"amount"`
	Currency       string         `json:"currency"`
	Status         PaymentStatus  `json:"status"`
	BillingDetails BillingDetails `json:"billingDetails"`
	CreatedAt      time.Time      `json:"createdAt"`
}
