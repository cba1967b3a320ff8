package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Image ссылка на загруженный файл: PublicID нужен для удаления из хранилища
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Value сохраняет изображение в JSONB
func (i Image) Value() (driver.Value, error) {
	return json.Marshal(i)
}

func (i *Image) Scan(src any) error {
	return scanJSON(src, i)
}

// User представляет пользователя магазина
type User struct {
	ID        int64
	Name      string
	Email     string
	PassHash  []byte
	Avatar    Image
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser — представление пользователя без хэша пароля
type PublicUser struct {
	ID        int64     `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    Image     `json:"avatar"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
