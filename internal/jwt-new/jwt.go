package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/shop-api/internal/domain/models"
)

var ErrInvalidToken = errors.New("invalid token")

const refreshTokenType = "refresh"

// NewToken генерирует access-токен для указанного пользователя с заданным временем жизни.
// Роль кладётся в токен, чтобы middleware могло проверить права без похода в БД.
func NewToken(ctx context.Context, user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", user.ID),
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}
	return sign(claims, "JWT_SECRET")
}

// NewRefreshToken подписывается отдельным секретом JWT_REFRESH_SECRET
func NewRefreshToken(ctx context.Context, user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", user.ID),
		"typ": refreshTokenType,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	return sign(claims, "JWT_REFRESH_SECRET")
}

// ParseRefreshToken проверяет refresh-токен и возвращает id пользователя
func ParseRefreshToken(tokenStr string) (int64, error) {
	secret := os.Getenv("JWT_REFRESH_SECRET")
	if secret == "" {
		return 0, errors.New("JWT_REFRESH_SECRET environment variable is not set")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != refreshTokenType {
		return 0, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func sign(claims jwt.MapClaims, secretEnv string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secretStr := os.Getenv(secretEnv)
	if secretStr == "" {
		return "", fmt.Errorf("%s environment variable is not set", secretEnv)
	}
	return token.SignedString([]byte(secretStr))
}
