package redisx

import (
	"fmt"
	"time"
)

const (
	// Карточка товара: product:{id} -> JSON товара
	KeyProduct = "product:%d"

	// Записанный платёж: payment:recorded:{payment_id} -> JSON платежа
	KeyPaymentRecorded = "payment:recorded:%s"
)

var TTLPaymentRecorded = 24 * time.Hour

func ProductKey(id int64) string {
	return fmt.Sprintf(KeyProduct, id)
}

func PaymentRecordedKey(paymentID string) string {
	return fmt.Sprintf(KeyPaymentRecorded, paymentID)
}
