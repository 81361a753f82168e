package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultSize = "M"

type CartItem struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Size      string    `db:"size" json:"size"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartLine is a cart item joined with the live product. Product fields are nil when the
// product row no longer exists.
type CartLine struct {
	CartItem
	ProductName        *string          `db:"product_name" json:"-"`
	ProductDescription *string          `db:"product_description" json:"-"`
	ProductCategory    *string          `db:"product_category" json:"-"`
	ProductBrand       *string          `db:"product_brand" json:"-"`
	ProductPrice       *decimal.Decimal `db:"product_price" json:"-"`
	ProductStock       *int             `db:"product_stock" json:"-"`
	ProductStatus      *ProductStatus   `db:"product_status" json:"-"`
	ProductImageURL    *string          `db:"product_image_url" json:"-"`
	ProductSizes       StringList       `db:"product_sizes" json:"-"`
	ProductAvailSizes  StringList       `db:"product_available_sizes" json:"-"`
}

// CartLineView is what the storefront renders. A missing or deleted product is reported
// with zero stock and InStock=false so the UI can flag it.
type CartLineView struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	UserID         string          `json:"user_id"`
	Size           string          `json:"size"`
	Quantity       int             `json:"quantity"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Brand          string          `json:"brand"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Status         ProductStatus   `json:"status"`
	ImageURL       string          `json:"image_url"`
	InStock        bool            `json:"in_stock"`
	Sizes          StringList      `json:"sizes"`
	AvailableSizes StringList      `json:"available_sizes"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

func (l *CartLine) View() CartLineView {
	v := CartLineView{
		ID:             l.ID,
		ProductID:      l.ProductID,
		UserID:         l.UserID,
		Size:           l.Size,
		Quantity:       l.Quantity,
		Name:           "Unknown Product",
		Category:       "General",
		Brand:          "Generic",
		Price:          decimal.Zero,
		Status:         ProductStatusDeleted,
		Sizes:          DefaultSizes,
		AvailableSizes: DefaultAvailableSizes,
	}
	if v.Size == "" {
		v.Size = DefaultSize
	}
	if l.ProductName != nil {
		v.Name = *l.ProductName
	}
	if l.ProductDescription != nil {
		v.Description = *l.ProductDescription
	}
	if l.ProductCategory != nil && *l.ProductCategory != "" {
		v.Category = *l.ProductCategory
	}
	if l.ProductBrand != nil && *l.ProductBrand != "" {
		v.Brand = *l.ProductBrand
	}
	if l.ProductPrice != nil {
		v.Price = *l.ProductPrice
	}
	if l.ProductStock != nil {
		v.Stock = *l.ProductStock
	}
	if l.ProductStatus != nil {
		v.Status = *l.ProductStatus
	}
	if l.ProductImageURL != nil {
		v.ImageURL = *l.ProductImageURL
	}
	if len(l.ProductSizes) > 0 {
		v.Sizes = l.ProductSizes
	}
	if len(l.ProductAvailSizes) > 0 {
		v.AvailableSizes = l.ProductAvailSizes
	}
	if v.Status == ProductStatusDeleted {
		v.Stock = 0
	}
	v.InStock = v.Status == ProductStatusActive && v.Stock > 0
	v.LineTotal = v.Price.Mul(decimal.NewFromInt(int64(v.Quantity)))
	return v
}
