package dto

import (
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/payment"
)

type PlaceOrderInput struct {
	Shipping       model.ShippingAddress `json:"shipping"`
	ShippingMethod string                `json:"shipping_method"` // option code; empty selects the default
	PaymentMethod  model.PaymentMethod   `json:"payment_method"`
	Card           *payment.Card         `json:"card,omitempty"`
}

type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}
