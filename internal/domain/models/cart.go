package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem строка корзины; Price — цена товара на момент первого добавления
type CartItem struct {
	ProductID int64           `json:"product"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *Product        `json:"productDetails,omitempty"`
	AddedAt   time.Time       `json:"addedAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Cart корзина пользователя, итог вычисляется из строк
type Cart struct {
	UserID     int64           `json:"user"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// NewCart собирает корзину и пересчитывает итог
func NewCart(userID int64, items []CartItem) *Cart {
	if items == nil {
		items = []CartItem{}
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return &Cart{UserID: userID, Items: items, TotalPrice: total}
}
