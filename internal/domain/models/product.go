package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Images список изображений товара, хранится в JSONB
type Images []Image

func (im Images) Value() (driver.Value, error) {
	if im == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(im)
}

func (im *Images) Scan(src any) error {
	return scanJSON(src, im)
}

// Product товар каталога
type Product struct {
	ID          int64           `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Images      Images          `json:"images"`
	CreatedBy   int64           `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductFilter параметры выборки каталога, пустые поля не фильтруют
type ProductFilter struct {
	Category string
	Query    string
}
