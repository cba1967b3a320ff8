package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
)

type PaymentIntentRequest struct {
	Amount         int64                 `json:"amount" validate:"gt=0"`
	Currency       string                `json:"currency" validate:"required"`
	OrderID        int64                 `json:"orderId" validate:"gt=0"`
	BillingDetails models.BillingDetails `json:"billingDetails"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type ConfirmPaymentRequest struct {
	PaymentID      string                `json:"paymentId" validate:"required"`
	Amount         int64                 `json:"amount"`
	Currency       string                `json:"currency"`
	Status         string                `json:"status" validate:"required"`
	OrderID        int64                 `json:"orderId" validate:"gt=0"`
	BillingDetails models.BillingDetails `json:"billingDetails"`
}

// ConfirmPaymentResponse payment — id записи о платеже
type ConfirmPaymentResponse struct {
	Message string `json:"message"`
	Payment int64  `json:"payment"`
}

// CreatePaymentIntentHandler POST /api/payments/create-payment-intent
func CreatePaymentIntentHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreatePaymentIntentHandler"
		logger := log.With(slog.String("op", op))

		who, ok := requester(r)
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var req PaymentIntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "amount, currency and orderId are required")
			return
		}

		intent, err := paymentService.CreateIntent(r.Context(), who.UserID, service.IntentInput{
			Amount:   req.Amount,
			Currency: req.Currency,
			OrderID:  req.OrderID,
			Billing:  req.BillingDetails,
		})
		if err != nil {
			writeError(w, logger, err, "Failed to create payment intent")
			return
		}
		response.JSON(w, http.StatusOK, PaymentIntentResponse{
			ClientSecret:    intent.ClientSecret,
			PaymentIntentID: intent.ID,
		})
	}
}

// ConfirmPaymentHandler POST /api/payments/confirm-payment
func ConfirmPaymentHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ConfirmPaymentHandler"
		logger := log.With(slog.String("op", op))

		who, ok := requester(r)
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var req ConfirmPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "paymentId, status and orderId are required")
			return
		}

		res, err := paymentService.Confirm(r.Context(), who.UserID, service.ConfirmInput{
			PaymentID: req.PaymentID,
			Amount:    req.Amount,
			Currency:  req.Currency,
			Status:    req.Status,
			OrderID:   req.OrderID,
			Billing:   req.BillingDetails,
		})
		if err != nil {
			writeError(w, logger, err, "Failed to confirm payment")
			return
		}

		msg := "Payment confirmed successfully"
		if res.AlreadyRecorded {
			msg = "Payment already recorded"
		}
		response.JSON(w, http.StatusOK, ConfirmPaymentResponse{Message: msg, Payment: res.Payment.ID})
	}
}
