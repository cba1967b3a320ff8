package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/filestore"
	"github.com/linemk/shop-api/internal/redisx"
	"github.com/linemk/shop-api/internal/storage"
	"github.com/shopspring/decimal"
)

const MaxProductImages = 5

type ProductService interface {
	Create(ctx context.Context, createdBy int64, in ProductInput, images []Upload) (*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	Update(ctx context.Context, id int64, in ProductUpdate, images []Upload) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
}

// ProductUpdate nil-поля не меняются
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int
}

type productService struct {
	log          *slog.Logger
	productRepo  storage.ProductStorage
	categoryRepo storage.CategoryStorage
	files        filestore.Store
	cache        redisx.Cache
	cacheTTL     time.Duration
}

func NewProductService(
	log *slog.Logger,
	productRepo storage.ProductStorage,
	categoryRepo storage.CategoryStorage,
	files filestore.Store,
	cache redisx.Cache,
	cacheTTL time.Duration,
) ProductService {
	return &productService{
		log:          log,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		files:        files,
		cache:        cache,
		cacheTTL:     cacheTTL,
	}
}

func (s *productService) Create(ctx context.Context, createdBy int64, in ProductInput, images []Upload) (*models.Product, error) {
	const op = "service.ProductService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("name", in.Name))

	if len(images) == 0 {
		return nil, validationErrorf("Please upload at least one image")
	}
	if len(images) > MaxProductImages {
		return nil, validationErrorf("You can upload up to %d images", MaxProductImages)
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Stock:       in.Stock,
		CreatedBy:   createdBy,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, p.Category); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := saveUploads(ctx, logger, s.files, images)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to save images: %w", op, err)
	}
	p.Images = saved

	p, err = s.productRepo.CreateProduct(ctx, p)
	if err != nil {
		removeImages(ctx, logger, s.files, saved)
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", p.ID))
	return p, nil
}

// Get читает карточку из кэша, при промахе из БД с записью в кэш.
// Ошибки кэша не ломают запрос.
func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.ProductService.Get"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))
	key := redisx.ProductKey(id)

	if b, err := s.cache.Get(ctx, key); err == nil {
		var p models.Product
		if err := json.Unmarshal(b, &p); err == nil {
			return &p, nil
		}
		logger.Warn("corrupted product cache entry", slog.Any("error", err))
	} else if !errors.Is(err, redisx.ErrCacheMiss) {
		logger.Warn("product cache read failed", slog.Any("error", err))
	}

	p, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if b, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, key, b, s.cacheTTL); err != nil {
			logger.Warn("product cache write failed", slog.Any("error", err))
		}
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	const op = "service.ProductService.List"

	products, err := s.productRepo.ListProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Update применяет частичное обновление; загруженные файлы заменяют все изображения
func (s *productService) Update(ctx context.Context, id int64, in ProductUpdate, images []Upload) (*models.Product, error) {
	const op = "service.ProductService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if len(images) > MaxProductImages {
		return nil, validationErrorf("You can upload up to %d images", MaxProductImages)
	}

	p, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	categoryChanged := false
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil && *in.Category != p.Category {
		p.Category = *in.Category
		categoryChanged = true
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if categoryChanged {
		if err := s.ensureCategory(ctx, p.Category); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	oldImages := p.Images
	var saved models.Images
	if len(images) > 0 {
		saved, err = saveUploads(ctx, logger, s.files, images)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save images: %w", op, err)
		}
		p.Images = saved
	}

	p, err = s.productRepo.UpdateProduct(ctx, p)
	if err != nil {
		removeImages(ctx, logger, s.files, saved)
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(saved) > 0 {
		removeImages(ctx, logger, s.files, oldImages)
	}

	s.invalidate(ctx, logger, id)
	logger.Info("product updated")
	return p, nil
}

// Delete удаляет товар и его изображения
func (s *productService) Delete(ctx context.Context, id int64) error {
	const op = "service.ProductService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	p, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	removeImages(ctx, logger, s.files, p.Images)

	s.invalidate(ctx, logger, id)
	logger.Info("product deleted")
	return nil
}

func (s *productService) invalidate(ctx context.Context, logger *slog.Logger, id int64) {
	if err := s.cache.Delete(ctx, redisx.ProductKey(id)); err != nil {
		logger.Warn("product cache invalidation failed", slog.Any("error", err))
	}
}

func (s *productService) ensureCategory(ctx context.Context, name string) error {
	if _, err := s.categoryRepo.GetCategoryByName(ctx, name); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return validationErrorf("Category does not exist")
		}
		return err
	}
	return nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return validationErrorf("Product name is required")
	case utf8.RuneCountInString(p.Name) > 100:
		return validationErrorf("Product name cannot exceed 100 characters")
	case p.Description == "":
		return validationErrorf("Product description is required")
	case utf8.RuneCountInString(p.Description) > 1000:
		return validationErrorf("Description cannot exceed 1000 characters")
	case !p.Price.IsPositive():
		return validationErrorf("Price must be greater than 0")
	case p.Category == "":
		return validationErrorf("Category is required")
	case utf8.RuneCountInString(p.Category) > 50:
		return validationErrorf("Category cannot exceed 50 characters")
	case p.Stock < 0:
		return validationErrorf("Stock cannot be negative")
	}
	return nil
}
