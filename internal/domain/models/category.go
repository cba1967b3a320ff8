package models

import "time"

// Category категория товаров, товары ссылаются на неё по имени
type Category struct {
	ID          int64     `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
