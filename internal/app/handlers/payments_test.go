package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linemk/shop-api/internal/app/handlers"
	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/payment"
	"github.com/linemk/shop-api/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestCreatePaymentIntentHandler(t *testing.T) {
	fakeSvc := &fakePaymentService{intent: &payment.Intent{ID: "pi_1", ClientSecret: "secret"}}
	handler := handlers.CreatePaymentIntentHandler(newTestLogger(), fakeSvc)

	body := `{"amount": 1000, "currency": "inr", "orderId": 3, "billingDetails": {"name": "John", "address": "Main st"}}`
	req := withUser(httptest.NewRequest("POST", "/api/payments/create-payment-intent", bytes.NewBufferString(body)), 1, models.RoleUser)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"clientSecret": "secret", "paymentIntentId": "pi_1"}`, rr.Body.String())
}

func TestCreatePaymentIntentHandler_ProcessorFailure(t *testing.T) {
	handler := handlers.CreatePaymentIntentHandler(newTestLogger(), &fakePaymentService{err: payment.ErrNotConfigured})

	body := `{"amount": 1000, "currency": "inr", "orderId": 3, "billingDetails": {"name": "John", "address": "Main st"}}`
	req := withUser(httptest.NewRequest("POST", "/api/payments/create-payment-intent", bytes.NewBufferString(body)), 1, models.RoleUser)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestConfirmPaymentHandler(t *testing.T) {
	tests := []struct {
		name    string
		already bool
		wantMsg string
	}{
		{"new payment", false, "Payment confirmed successfully"},
		{"repeat", true, "Payment already recorded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeSvc := &fakePaymentService{result: &service.ConfirmResult{
				Payment:         &models.Payment{ID: 12, PaymentID: "pi_1"},
				AlreadyRecorded: tt.already,
			}}
			handler := handlers.ConfirmPaymentHandler(newTestLogger(), fakeSvc)

			body := `{"paymentId": "pi_1", "amount": 1000, "currency": "inr", "status": "succeeded", "orderId": 3}`
			req := withUser(httptest.NewRequest("POST", "/api/payments/confirm-payment", bytes.NewBufferString(body)), 1, models.RoleUser)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, `{"message": "`+tt.wantMsg+`", "payment": 12}`, rr.Body.String())
			assert.Equal(t, "succeeded", fakeSvc.confirm.Status)
		})
	}
}

func TestConfirmPaymentHandler_MissingPaymentID(t *testing.T) {
	handler := handlers.ConfirmPaymentHandler(newTestLogger(), &fakePaymentService{})

	req := withUser(httptest.NewRequest("POST", "/api/payments/confirm-payment",
		bytes.NewBufferString(`{"status": "succeeded", "orderId": 3}`)), 1, models.RoleUser)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	handlers.HealthHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status": "OK"}`, rr.Body.String())
}
