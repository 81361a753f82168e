package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type CreateProductInput struct {
	Name           string              `json:"name" validate:"required,max=200"`
	Description    string              `json:"description"`
	Category       string              `json:"category"`
	Brand          string              `json:"brand"`
	Price          decimal.Decimal     `json:"price"`
	Stock          int                 `json:"stock" validate:"gte=0"`
	Status         model.ProductStatus `json:"status"`
	ImageURL       string              `json:"image_url"`
	Sizes          model.StringList    `json:"sizes"`
	AvailableSizes model.StringList    `json:"available_sizes"`
}

// UpdateProductInput is a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Name           *string              `json:"name" validate:"omitempty,max=200"`
	Description    *string              `json:"description"`
	Category       *string              `json:"category"`
	Brand          *string              `json:"brand"`
	Price          *decimal.Decimal     `json:"price"`
	Stock          *int                 `json:"stock" validate:"omitempty,gte=0"`
	Status         *model.ProductStatus `json:"status"`
	ImageURL       *string              `json:"image_url"`
	Sizes          model.StringList     `json:"sizes"`
	AvailableSizes model.StringList     `json:"available_sizes"`
}

type UploadImageInput struct {
	ProductID   string // optional; when set the product's image_url is updated
	Filename    string
	ContentType string
}
