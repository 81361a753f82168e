package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

// Quote is the monetary snapshot frozen onto an order.
type Quote struct {
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	ShippingMethod string
	Tax            decimal.Decimal
	Total          decimal.Decimal
}

// PriceCart computes subtotal, shipping and tax for the cart. Tax is rounded half-up to cents.
func PriceCart(lines []model.CartLineView, option config.ShippingOption, taxRate decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	shipping := option.Cost.Round(2)

	return Quote{
		Subtotal:       subtotal,
		ShippingCost:   shipping,
		ShippingMethod: option.Name,
		Tax:            tax,
		Total:          subtotal.Add(shipping).Add(tax),
	}
}

// demand is the total quantity requested per product, in first-seen cart order.
type demand struct {
	productID string
	name      string
	quantity  int
	available int
}

func aggregateDemand(lines []model.CartLineView) []demand {
	index := map[string]int{}
	var out []demand
	for _, l := range lines {
		available := l.Stock
		if l.Status != model.ProductStatusActive {
			available = 0
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, demand{productID: l.ProductID, name: l.Name, quantity: l.Quantity, available: available})
	}
	return out
}

// checkStock rejects the cart when any product's summed quantity exceeds its stock. A missing
// or non-active product counts as zero stock.
func checkStock(lines []model.CartLineView) error {
	for _, d := range aggregateDemand(lines) {
		if d.quantity > d.available {
			return &apperr.InsufficientStockError{
				ProductID:   d.productID,
				ProductName: d.name,
				Requested:   d.quantity,
				Available:   d.available,
			}
		}
	}
	return nil
}
