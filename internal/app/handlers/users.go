package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-api/internal/lib/api/response"
	"github.com/linemk/shop-api/internal/service"
)

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,strongpassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
}

type AdminUpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"omitempty,oneof=user admin"`
}

func publicUsers(users []*models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// readUserForm разбирает JSON или multipart с необязательным файлом "avatar".
// Возвращённый closeAll нужно вызвать после обработки запроса.
func readUserForm(r *http.Request, dst any, fields func(r *http.Request)) (avatar *service.Upload, closeAll func(), err error) {
	closeAll = func() {}
	if !isMultipart(r) {
		return nil, closeAll, json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, closeAll, err
	}
	fields(r)
	uploads, closeAll, err := openUploads(formFiles(r, "avatar"))
	if err != nil {
		return nil, func() {}, err
	}
	if len(uploads) > 0 {
		avatar = &uploads[0]
	}
	return avatar, closeAll, nil
}

// CurrentUserHandler обрабатывает GET /api/users/me и GET /api/users/profile
func CurrentUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CurrentUserHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		user, err := userService.GetUser(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err, "failed to get user")
			return
		}
		response.JSON(w, http.StatusOK, user.Public())
	}
}

// UpdateProfileHandler обрабатывает PUT /api/users/profile
func UpdateProfileHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProfileHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var req UpdateProfileRequest
		avatar, closeAll, err := readUserForm(r, &req, func(r *http.Request) {
			req = UpdateProfileRequest{
				Name:     r.FormValue("name"),
				Email:    r.FormValue("email"),
				Password: r.FormValue("password"),
			}
		})
		defer closeAll()
		if err != nil {
			logger.Error("invalid request", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "validation error")
			return
		}

		user, err := userService.UpdateProfile(r.Context(), userID, service.ProfileInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Avatar:   avatar,
		})
		if err != nil {
			writeError(w, logger, err, "failed to update profile")
			return
		}
		response.JSON(w, http.StatusOK, user.Public())
	}
}

// ChangePasswordHandler обрабатывает PUT /api/users/profile/password
func ChangePasswordHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ChangePasswordHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var req ChangePasswordRequest
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

		if err := userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
			writeError(w, logger, err, "failed to update password")
			return
		}
		response.Message(w, http.StatusOK, "Password updated successfully")
	}
}

// ListUsersHandler GET /api/auth/users, только для администратора
func ListUsersHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListUsersHandler"
		logger := log.With(slog.String("op", op))

		users, err := userService.ListUsers(r.Context())
		if err != nil {
			writeError(w, logger, err, "Server error. Please try again later.")
			return
		}
		response.JSON(w, http.StatusOK, publicUsers(users))
	}
}

func GetUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetUserHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid user id")
			return
		}

		user, err := userService.GetUser(r.Context(), id)
		if err != nil {
			writeError(w, logger, err, "Server error. Please try again later.")
			return
		}
		response.JSON(w, http.StatusOK, user.Public())
	}
}

// AdminUpdateUserHandler PUT /api/auth/users/{id}: имя, email, роль и аватар
func AdminUpdateUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminUpdateUserHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var req AdminUpdateUserRequest
		avatar, closeAll, err := readUserForm(r, &req, func(r *http.Request) {
			req = AdminUpdateUserRequest{
				Name:  r.FormValue("name"),
				Email: r.FormValue("email"),
				Role:  r.FormValue("role"),
			}
		})
		defer closeAll()
		if err != nil {
			logger.Error("invalid request", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "validation error")
			return
		}

		user, err := userService.AdminUpdateUser(r.Context(), id, service.AdminUserInput{
			Name:   req.Name,
			Email:  req.Email,
			Role:   req.Role,
			Avatar: avatar,
		})
		if err != nil {
			writeError(w, logger, err, "Server error. Please try again later.")
			return
		}
		response.JSON(w, http.StatusOK, user.Public())
	}
}

func DeleteUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteUserHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			response.Error(w, http.StatusBadRequest, "invalid user id")
			return
		}

		if err := userService.DeleteUser(r.Context(), id); err != nil {
			writeError(w, logger, err, "Server error. Please try again later.")
			return
		}
		response.Message(w, http.StatusOK, "User deleted successfully")
	}
}
