package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// AddResult reports the stored line. StockWarning is set when the cart now holds more
// than the product's current stock; adding is never blocked on stock.
type AddResult struct {
	Item         model.CartItem `json:"item"`
	StockWarning bool           `json:"stock_warning"`
	Available    int            `json:"available"`
}

type CartView struct {
	Items     []model.CartLineView `json:"items"`
	ItemCount int                  `json:"item_count"`
	Subtotal  decimal.Decimal      `json:"subtotal"`
}
