package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/storage"
)

type CategoryService interface {
	Create(ctx context.Context, name, description string) (*models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, id int64, name, description string) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	log          *slog.Logger
	categoryRepo storage.CategoryStorage
}

func NewCategoryService(log *slog.Logger, categoryRepo storage.CategoryStorage) CategoryService {
	return &categoryService{log: log, categoryRepo: categoryRepo}
}

func (s *categoryService) Create(ctx context.Context, name, description string) (*models.Category, error) {
	const op = "service.CategoryService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("name", name))

	c, err := s.categoryRepo.CreateCategory(ctx, &models.Category{Name: name, Description: description})
	if err != nil {
		if errors.Is(err, storage.ErrCategoryExists) {
			logger.Warn("category already exists")
		} else {
			logger.Error("failed to create category", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("category created", slog.Int64("categoryID", c.ID))
	return c, nil
}

func (s *categoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	const op = "service.CategoryService.Get"

	c, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CategoryService.List"

	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

// Update меняет только непустые поля
func (s *categoryService) Update(ctx context.Context, id int64, name, description string) (*models.Category, error) {
	const op = "service.CategoryService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("categoryID", id))

	c, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if name != "" {
		c.Name = name
	}
	if description != "" {
		c.Description = description
	}

	c, err = s.categoryRepo.UpdateCategory(ctx, c)
	if err != nil {
		logger.Error("failed to update category", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("category updated")
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, id int64) error {
	const op = "service.CategoryService.Delete"

	if err := s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("category deleted", slog.String("op", op), slog.Int64("categoryID", id))
	return nil
}
