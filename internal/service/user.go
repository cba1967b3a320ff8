package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/filestore"
	"github.com/linemk/shop-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// UserService профиль пользователя и администрирование пользователей
type UserService interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id int64, in ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, id int64, current, next string) error
	AdminUpdateUser(ctx context.Context, id int64, in AdminUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ProfileInput пустые поля не меняются
type ProfileInput struct {
	Name     string
	Email    string
	Password string
	Avatar   *Upload
}

type AdminUserInput struct {
	Name   string
	Email  string
	Role   string
	Avatar *Upload
}

type userService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	files    filestore.Store
}

func NewUserService(log *slog.Logger, userRepo storage.UserStorage, files filestore.Store) UserService {
	return &userService{
		log:      log,
		userRepo: userRepo,
		files:    files,
	}
}

func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "service.UserService.GetUser"

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			s.log.Error("failed to get user", slog.String("op", op), slog.Int64("userID", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "service.UserService.ListUsers"

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		s.log.Error("failed to list users", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (*models.User, error) {
	const op = "service.UserService.UpdateProfile"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", id))

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Password != "" {
		passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("failed to hash password", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}
		user.PassHash = passHash
	}

	updated, err := s.saveWithAvatar(ctx, logger, user, in.Avatar)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("profile updated")
	return updated, nil
}

func (s *userService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	const op = "service.UserService.ChangePassword"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", id))

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(current)); err != nil {
		logger.Warn("current password mismatch")
		return fmt.Errorf("%s: %w", op, ErrWrongPassword)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}
	user.PassHash = passHash

	if _, err := s.userRepo.UpdateUser(ctx, user); err != nil {
		logger.Error("failed to update password", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("password changed")
	return nil
}

func (s *userService) AdminUpdateUser(ctx context.Context, id int64, in AdminUserInput) (*models.User, error) {
	const op = "service.UserService.AdminUpdateUser"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", id))

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Role != "" {
		user.Role = in.Role
	}

	updated, err := s.saveWithAvatar(ctx, logger, user, in.Avatar)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("user updated by admin", slog.String("role", updated.Role))
	return updated, nil
}

// DeleteUser удаляет пользователя и его аватар
func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	const op = "service.UserService.DeleteUser"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", id))

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		logger.Error("failed to delete user", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	removeImages(ctx, logger, s.files, models.Images{user.Avatar})

	logger.Info("user deleted")
	return nil
}

// saveWithAvatar сохраняет пользователя; новый аватар заменяет старый только после успешной записи
func (s *userService) saveWithAvatar(ctx context.Context, logger *slog.Logger, user *models.User, avatar *Upload) (*models.User, error) {
	old := user.Avatar
	if avatar != nil {
		img, err := s.files.Save(ctx, avatar.Content)
		if err != nil {
			logger.Error("failed to save avatar", slog.Any("error", err))
			return nil, fmt.Errorf("failed to save avatar: %w", err)
		}
		user.Avatar = img
	}

	updated, err := s.userRepo.UpdateUser(ctx, user)
	if err != nil {
		if avatar != nil {
			removeImages(ctx, logger, s.files, models.Images{user.Avatar})
		}
		logger.Error("failed to update user", slog.Any("error", err))
		return nil, err
	}

	if avatar != nil {
		removeImages(ctx, logger, s.files, models.Images{old})
	}
	return updated, nil
}
