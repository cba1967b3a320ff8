package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-api/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
)

// CartItemRequest тело POST /api/users/cart и PUT /api/users/cart/item
type CartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

func decodeCartItem(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (CartItemRequest, bool) {
	var req CartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("invalid request: decoding error", slog.Any("error", err))
		response.Error(w, http.StatusBadRequest, "invalid request")
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		logger.Warn("invalid request: validation error", slog.Any("error", err))
		response.Error(w, http.StatusBadRequest, "productId and a quantity of at least 1 are required")
		return req, false
	}
	return req, true
}

func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		req, ok := decodeCartItem(w, r, logger)
		if !ok {
			return
		}

		cart, err := cartService.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
		if err != nil {
			writeError(w, logger, err, "failed to add item to cart")
			return
		}
		response.JSON(w, http.StatusOK, cart)
	}
}

func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		cart, err := cartService.GetCart(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err, "failed to get cart")
			return
		}
		response.JSON(w, http.StatusOK, cart)
	}
}

func UpdateCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		req, ok := decodeCartItem(w, r, logger)
		if !ok {
			return
		}

		cart, err := cartService.UpdateItem(r.Context(), userID, req.ProductID, req.Quantity)
		if err != nil {
			writeError(w, logger, err, "failed to update cart item")
			return
		}
		response.JSON(w, http.StatusOK, cart)
	}
}

// RemoveCartItemHandler DELETE /api/users/cart/item/{productId}
func RemoveCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		productID, ok := idParam(r, "productId")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid product id")
			return
		}

		cart, err := cartService.RemoveItem(r.Context(), userID, productID)
		if err != nil {
			writeError(w, logger, err, "failed to remove cart item")
			return
		}
		response.JSON(w, http.StatusOK, cart)
	}
}

func ClearCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		if err := cartService.ClearCart(r.Context(), userID); err != nil {
			writeError(w, logger, err, "failed to clear cart")
			return
		}
		response.Message(w, http.StatusOK, "Cart cleared successfully")
	}
}
