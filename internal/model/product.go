package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
	ProductStatusDeleted    ProductStatus = "deleted"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusOutOfStock, ProductStatusDeleted:
		return true
	}
	return false
}

// LowStockThreshold is the stock level at or below which the storefront shows "only N left".
const LowStockThreshold = 10

var (
	DefaultSizes          = StringList{"12oz", "16oz", "20oz"}
	DefaultAvailableSizes = StringList{"12oz", "16oz"}
)

type Product struct {
	BaseModel
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description"`
	Category       string          `db:"category" json:"category"`
	Brand          string          `db:"brand" json:"brand"`
	Price          decimal.Decimal `db:"price" json:"price"`
	Stock          int             `db:"stock" json:"stock"`
	Status         ProductStatus   `db:"status" json:"status"`
	ImageURL       string          `db:"image_url" json:"image_url"`
	Sizes          StringList      `db:"sizes" json:"sizes"`
	AvailableSizes StringList      `db:"available_sizes" json:"available_sizes"`
	DeletedAt      *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Available reports whether the product can be purchased right now.
func (p *Product) Available() bool {
	return p.Status == ProductStatusActive && p.Stock > 0
}

func (p *Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= LowStockThreshold
}

// ProductView is the storefront representation with derived flags.
type ProductView struct {
	Product
	IsAvailable bool `json:"available"`
	IsLowStock  bool `json:"low_stock"`
}

func NewProductView(p Product) ProductView {
	return ProductView{Product: p, IsAvailable: p.Available(), IsLowStock: p.LowStock()}
}
