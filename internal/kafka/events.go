package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentConfirmed   = "payment.confirmed"
)

const producerName = "shop-api"

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	ItemsCount int             `json:"items_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type PaymentConfirmedPayload struct {
	PaymentID string `json:"payment_id"`
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

// Emitter публикует доменные события
type Emitter interface {
	Emit(ctx context.Context, eventType, key string, payload any) error
}

type publisher interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

// EventEmitter заворачивает payload в Envelope; ключ партиционирования — id заказа
type EventEmitter struct {
	p publisher
}

func NewEventEmitter(p *Producer) *EventEmitter {
	return &EventEmitter{p: p}
}

func (e *EventEmitter) Emit(_ context.Context, eventType, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producerName,
		Payload:      raw,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return e.p.Publish([]byte(key), b, kafka.Header{Key: "event_type", Value: []byte(eventType)})
}

// NopEmitter — события отключены, брокеры не заданы
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, string, any) error { return nil }
