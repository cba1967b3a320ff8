package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
	"github.com/shopspring/decimal"
)

type OrderItemRequest struct {
	Product  int64 `json:"product" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

type ShippingAddressRequest struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

func (a ShippingAddressRequest) toModel() models.ShippingAddress {
	return models.ShippingAddress{
		Address:    a.Address,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// CreateOrderRequest цены позиций клиент не передаёт, они берутся из каталога
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice"`
}

type MarkPaidRequest struct {
	ID string `json:"id"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type EditOrderRequest struct {
	ShippingAddress *ShippingAddressRequest `json:"shippingAddress"`
	Items           []OrderItemRequest      `json:"items" validate:"omitempty,dive"`
}

type AllOrdersResponse struct {
	Orders []*models.Order   `json:"orders"`
	Stats  models.OrderStats `json:"stats"`
}

func toItemInputs(items []OrderItemRequest) []service.OrderItemInput {
	out := make([]service.OrderItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.OrderItemInput{ProductID: it.Product, Quantity: it.Quantity})
	}
	return out
}

// CreateOrderHandler POST /api/users/orders
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		who, ok := requester(r)
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if len(req.Items) == 0 {
			response.Error(w, http.StatusBadRequest, "No order items")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "validation error")
			return
		}
		if req.ShippingPrice.IsNegative() {
			response.Error(w, http.StatusBadRequest, "Shipping price cannot be negative")
			return
		}

		order, err := orderService.Create(r.Context(), who.UserID, service.CreateOrderInput{
			Items:           toItemInputs(req.Items),
			ShippingAddress: req.ShippingAddress.toModel(),
			PaymentMethod:   req.PaymentMethod,
			ShippingPrice:   req.ShippingPrice,
		})
		if err != nil {
			writeError(w, logger, err, "Failed to create order")
			return
		}
		response.JSON(w, http.StatusCreated, order)
	}
}

func MyOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		who, ok := requester(r)
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		orders, err := orderService.MyOrders(r.Context(), who.UserID)
		if err != nil {
			writeError(w, logger, err, "Failed to fetch orders")
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}
		response.JSON(w, http.StatusOK, orders)
	}
}

// AllOrdersHandler GET /api/users/orders, только для администратора
func AllOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AllOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, stats, err := orderService.AllOrders(r.Context())
		if err != nil {
			writeError(w, logger, err, "Failed to fetch orders")
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}
		response.JSON(w, http.StatusOK, AllOrdersResponse{Orders: orders, Stats: stats})
	}
}

func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		who, ok := requester(r)
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orderService.Get(r.Context(), who, id)
		if err != nil {
			writeError(w, logger, err, "Failed to fetch order")
			return
		}
		response.JSON(w, http.StatusOK, order)
	}
}

// MarkOrderPaidHandler PUT /api/users/orders/{id}; тело с id платежа необязательно
func MarkOrderPaidHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MarkOrderPaidHandler"
		logger := log.With(slog.String("op", op))

		who, ok := requester(r)
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req MarkPaidRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				logger.Error("invalid request: decoding error", slog.Any("error", err))
				response.Error(w, http.StatusBadRequest, "invalid request")
				return
			}
		}

		order, err := orderService.MarkPaid(r.Context(), who, id, req.ID)
		if err != nil {
			writeError(w, logger, err, "Failed to update order")
			return
		}
		response.JSON(w, http.StatusOK, order)
	}
}

func DeleteOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteOrderHandler"
		logger := log.With(slog.String("op", op))

		who, ok := requester(r)
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		if err := orderService.Delete(r.Context(), who, id); err != nil {
			writeError(w, logger, err, "Failed to delete order")
			return
		}
		response.Message(w, http.StatusOK, "Order deleted successfully")
	}
}

// UpdateOrderStatusHandler PUT /api/users/orders/{id}/status, администратор
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}

		order, err := orderService.UpdateStatus(r.Context(), id, req.Status)
		if err != nil {
			writeError(w, logger, err, "Failed to update order status")
			return
		}
		response.JSON(w, http.StatusOK, order)
	}
}

// EditOrderHandler PUT /api/users/orders/{id}/edit, администратор
func EditOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.EditOrderHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req EditOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "validation error")
			return
		}

		in := service.EditOrderInput{Items: toItemInputs(req.Items)}
		if req.ShippingAddress != nil {
			addr := req.ShippingAddress.toModel()
			in.ShippingAddress = &addr
		}

		order, err := orderService.Edit(r.Context(), id, in)
		if err != nil {
			writeError(w, logger, err, "Failed to edit order")
			return
		}
		response.JSON(w, http.StatusOK, order)
	}
}
