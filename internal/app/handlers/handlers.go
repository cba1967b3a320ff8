package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/shop-api/internal/filestore"
	"github.com/linemk/shop-api/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
	"github.com/linemk/shop-api/internal/storage"
)

// maxMultipartMemory — сверх этого файлы формы уходят во временный каталог
const maxMultipartMemory = 32 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("strongpassword", strongPassword); err != nil {
		panic(err)
	}
	return v
}

const passwordSpecials = "@$!%*?&"

// strongPassword: не короче 6 символов, есть заглавная буква, цифра и спецсимвол из @$!%*?&,
// других символов нет
func strongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 6 {
		return false
	}
	var upper, digit, special bool
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, c):
			special = true
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return upper && digit && special
}

// errorStatuses сопоставляет ошибки слоёв ниже с ответом клиенту
var errorStatuses = []struct {
	err    error
	status int
	msg    string
}{
	{storage.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{storage.ErrCategoryExists, http.StatusConflict, "Category already exists"},
	{storage.ErrPaymentExists, http.StatusConflict, "Payment already recorded"},
	{storage.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{storage.ErrCategoryNotFound, http.StatusNotFound, "Category not found"},
	{storage.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{storage.ErrCartNotFound, http.StatusNotFound, "Cart not found"},
	{storage.ErrCartItemNotFound, http.StatusNotFound, "Item not found in cart"},
	{storage.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid refresh token"},
	{service.ErrForbidden, http.StatusForbidden, "Not authorized"},
	{service.ErrWrongPassword, http.StatusBadRequest, "Current password is incorrect"},
	{service.ErrAlreadyPaid, http.StatusBadRequest, "Order is already paid"},
	{filestore.ErrNotImage, http.StatusBadRequest, "Only image files are allowed"},
	{filestore.ErrTooLarge, http.StatusBadRequest, "File is too large"},
}

// writeError пишет {"message": ...}; неизвестные ошибки отдаются как 500 с fallback
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		logger.Warn("validation failed", slog.String("reason", vErr.Msg))
		response.Error(w, http.StatusBadRequest, vErr.Msg)
		return
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			logger.Warn("request rejected", slog.Any("error", err))
			response.Error(w, e.status, e.msg)
			return
		}
	}
	logger.Error(fallback, slog.Any("error", err))
	response.Error(w, http.StatusInternalServerError, fallback)
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requester собирает id и роль пользователя из контекста JWT middleware
func requester(r *http.Request) (service.Requester, bool) {
	userID, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		return service.Requester{}, false
	}
	return service.Requester{UserID: userID, IsAdmin: jwtmiddleware.IsAdmin(r.Context())}, true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// openUploads открывает файлы формы; close закрывает все открытые
func openUploads(headers []*multipart.FileHeader) (uploads []service.Upload, closeAll func(), err error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll = func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		uploads = append(uploads, service.Upload{Name: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}

// formFiles возвращает файлы поля field, если запрос multipart
func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}
