package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	Success bool            `json:"success"`
	Product *models.Product `json:"product"`
}

// productForm поля multipart-формы товара; nil — поле не передано
type productForm struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int
}

func optionalValue(r *http.Request, key string) (string, bool) {
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

// parseProductForm разбирает числовые поля; ошибка формата — текст для клиента
func parseProductForm(r *http.Request) (productForm, string) {
	var f productForm
	if v, ok := optionalValue(r, "name"); ok {
		f.Name = &v
	}
	if v, ok := optionalValue(r, "description"); ok {
		f.Description = &v
	}
	if v, ok := optionalValue(r, "category"); ok {
		f.Category = &v
	}
	if v, ok := optionalValue(r, "price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return f, "Price must be a number"
		}
		f.Price = &price
	}
	if v, ok := optionalValue(r, "stock"); ok {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return f, "Stock must be an integer"
		}
		f.Stock = &stock
	}
	return f, ""
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ListProductsHandler GET /api/products?category=&q=
func ListProductsHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := productService.List(r.Context(), models.ProductFilter{
			Category: r.URL.Query().Get("category"),
			Query:    r.URL.Query().Get("q"),
		})
		if err != nil {
			writeError(w, logger, err, "failed to list products")
			return
		}
		response.JSON(w, http.StatusOK, products)
	}
}

func GetProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := productService.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err, "failed to get product")
			return
		}
		response.JSON(w, http.StatusOK, product)
	}
}

// CreateProductHandler POST /api/products, multipart с файлами в поле "images"
func CreateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		if !isMultipart(r) {
			response.Error(w, http.StatusBadRequest, "Missing required parameter - file")
			return
		}
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			logger.Error("invalid request: multipart error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}

		form, msg := parseProductForm(r)
		if msg != "" {
			response.Error(w, http.StatusBadRequest, msg)
			return
		}
		// без поля stock товар создаётся с нулевым остатком
		in := service.ProductInput{
			Name:        deref(form.Name),
			Description: deref(form.Description),
			Price:       deref(form.Price),
			Category:    deref(form.Category),
			Stock:       deref(form.Stock),
		}

		uploads, closeAll, err := openUploads(formFiles(r, "images"))
		if err != nil {
			logger.Error("failed to open uploads", slog.Any("error", err))
			response.Error(w, http.StatusInternalServerError, "failed to read uploaded files")
			return
		}
		defer closeAll()

		product, err := productService.Create(r.Context(), userID, in, uploads)
		if err != nil {
			writeError(w, logger, err, "failed to create product")
			return
		}
		response.JSON(w, http.StatusCreated, ProductResponse{Success: true, Product: product})
	}
}

// UpdateProductHandler PUT /api/products/{id}; новые файлы заменяют все изображения
func UpdateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid product id")
			return
		}
		if !isMultipart(r) {
			response.Error(w, http.StatusBadRequest, "multipart form expected")
			return
		}
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			logger.Error("invalid request: multipart error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}

		form, msg := parseProductForm(r)
		if msg != "" {
			response.Error(w, http.StatusBadRequest, msg)
			return
		}

		uploads, closeAll, err := openUploads(formFiles(r, "images"))
		if err != nil {
			logger.Error("failed to open uploads", slog.Any("error", err))
			response.Error(w, http.StatusInternalServerError, "failed to read uploaded files")
			return
		}
		defer closeAll()

		product, err := productService.Update(r.Context(), id, service.ProductUpdate{
			Name:        form.Name,
			Description: form.Description,
			Price:       form.Price,
			Category:    form.Category,
			Stock:       form.Stock,
		}, uploads)
		if err != nil {
			writeError(w, logger, err, "failed to update product")
			return
		}
		response.JSON(w, http.StatusOK, ProductResponse{Success: true, Product: product})
	}
}

func DeleteProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid product id")
			return
		}

		if err := productService.Delete(r.Context(), id); err != nil {
			writeError(w, logger, err, "failed to delete product")
			return
		}
		response.Message(w, http.StatusOK, "Product deleted successfully")
	}
}
