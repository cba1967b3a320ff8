package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
)

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        string `json:"name" validate:"omitempty,max=50"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	Success  bool             `json:"success"`
	Category *models.Category `json:"category"`
}

func ListCategoriesHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		categories, err := categoryService.List(r.Context())
		if err != nil {
			writeError(w, logger, err, "failed to list categories")
			return
		}
		response.JSON(w, http.StatusOK, categories)
	}
}

func GetCategoryHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid category id")
			return
		}

		category, err := categoryService.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err, "failed to get category")
			return
		}
		response.JSON(w, http.StatusOK, category)
	}
}

func CreateCategoryHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCategoryHandler"
		logger := log.With(slog.String("op", op))

		var req CategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "Category name is required")
			return
		}

		category, err := categoryService.Create(r.Context(), req.Name, req.Description)
		if err != nil {
			writeError(w, logger, err, "failed to create category")
			return
		}
		response.JSON(w, http.StatusCreated, CategoryResponse{Success: true, Category: category})
	}
}

func UpdateCategoryHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid category id")
			return
		}

		var req UpdateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.Error(w, http.StatusBadRequest, "Category name cannot exceed 50 characters")
			return
		}

		category, err := categoryService.Update(r.Context(), id, req.Name, req.Description)
		if err != nil {
			writeError(w, logger, err, "failed to update category")
			return
		}
		response.JSON(w, http.StatusOK, CategoryResponse{Success: true, Category: category})
	}
}

func DeleteCategoryHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid category id")
			return
		}

		if err := categoryService.Delete(r.Context(), id); err != nil {
			writeError(w, logger, err, "failed to delete category")
			return
		}
		response.Message(w, http.StatusOK, "Category deleted successfully")
	}
}
