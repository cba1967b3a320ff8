package handlers

import (
	"net/http"

	"github.com/linemk/shop-api/internal/lib/api/response"
)

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}
