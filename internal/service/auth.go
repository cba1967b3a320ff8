package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/filestore"
	security "github.com/linemk/shop-api/internal/jwt-new"
	"github.com/linemk/shop-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Avatar   *Upload
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResult struct {
	User *models.User
	TokenPair
}

type AuthService struct {
	log        *slog.Logger
	userRepo   storage.UserStorage
	files      filestore.Store
	tokenTTL   time.Duration
	refreshTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, files filestore.Store, tokenTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		log:        log,
		userRepo:   userRepo,
		files:      files,
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
	}
}

// Register создаёт пользователя с ролью user. Пароль хэшируется через bcrypt.
// Если аватар загружен, а пользователь не создан, файл удаляется.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	const op = "auth.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", in.Email),
	)
	logger.Info("registering user")

	_, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err == nil {
		logger.Warn("user already exists")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		PassHash: passHash,
		Role:     models.RoleUser,
	}

	if in.Avatar != nil {
		avatar, err := a.files.Save(ctx, in.Avatar.Content)
		if err != nil {
			logger.Error("failed to save avatar", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to save avatar: %w", op, err)
		}
		user.Avatar = avatar
	}

	created, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		if in.Avatar != nil {
			removeImages(ctx, logger, a.files, models.Images{user.Avatar})
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	pair, err := a.issueTokens(ctx, created)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", created.ID))
	return &AuthResult{User: created, TokenPair: *pair}, nil
}

// Login сверяет пароль с хэшем и выдаёт пару токенов.
// Неизвестный email и неверный пароль дают одну и ту же ошибку.
func (a *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// Refresh выдаёт новую пару токенов; роль берётся из БД, а не из старого токена
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "auth.Refresh"
	logger := a.log.With(slog.String("op", op))

	userID, err := security.ParseRefreshToken(refreshToken)
	if err != nil {
		logger.Warn("invalid refresh token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user from refresh token not found", slog.Int64("userID", userID))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

func (a *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	token, err := security.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := security.NewRefreshToken(ctx, user, a.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{Token: token, RefreshToken: refresh}, nil
}
