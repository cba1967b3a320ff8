package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
)

// RegisterRequest принимается как JSON или как поля multipart-формы
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ContactRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// AuthResponse пользователь и пара токенов
type AuthResponse struct {
	User         models.PublicUser `json:"user"`
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
}

func newAuthResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		User:         res.User.Public(),
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
	}
}

// RegisterHandler обрабатывает POST /api/auth/register, аватар — необязательный файл "avatar"
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		var avatar *service.Upload
		if isMultipart(r) {
			if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
				logger.Error("invalid request: multipart error", slog.Any("error", err))
				response.Error(w, http.StatusBadRequest, "invalid request")
				return
			}
			req = RegisterRequest{
				Name:     r.FormValue("name"),
				Email:    r.FormValue("email"),
				Password: r.FormValue("password"),
			}
			uploads, closeAll, err := openUploads(formFiles(r, "avatar"))
			if err != nil {
				logger.Error("failed to open avatar", slog.Any("error", err))
				response.Error(w, http.StatusInternalServerError, "Error uploading avatar")
				return
			}
			defer closeAll()
			if len(uploads) > 0 {
				avatar = &uploads[0]
			}
		} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "Please provide a name, a valid email and a strong password")
			return
		}

		res, err := authService.Register(r.Context(), service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Avatar:   avatar,
		})
		if err != nil {
			writeError(w, logger, err, "Server error. Please try again later.")
			return
		}

		response.JSON(w, http.StatusCreated, newAuthResponse(res))
	}
}

// LoginHandler обрабатывает POST /api/auth/login
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		res, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err, "Server error. Please try again later.")
			return
		}

		response.JSON(w, http.StatusOK, newAuthResponse(res))
	}
}

// RefreshHandler обменивает refresh-токен на новую пару
func RefreshHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RefreshHandler"
		logger := log.With(slog.String("op", op))

		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.Error(w, http.StatusBadRequest, "Refresh token is required")
			return
		}

		pair, err := authService.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeError(w, logger, err, "Server error. Please try again later.")
			return
		}

		response.JSON(w, http.StatusOK, pair)
	}
}

// LogoutHandler токены не хранятся на сервере, клиент просто забывает их
func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Message(w, http.StatusOK, "Logout successful")
	}
}

// ContactHandler обрабатывает POST /api/auth/contact
func ContactHandler(log *slog.Logger, contactService service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ContactHandler"
		logger := log.With(slog.String("op", op))

		var req ContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			response.Error(w, http.StatusBadRequest, "Email and message are required")
			return
		}

		if err := contactService.Contact(r.Context(), req.Email, req.Message); err != nil {
			writeError(w, logger, err, "Something went wrong. Please try again later.")
			return
		}

		response.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Your message has been sent successfully!",
		})
	}
}
