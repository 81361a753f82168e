package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Card holds the raw card fields submitted at checkout. It is never persisted or logged.
type Card struct {
	Number     string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	HolderName string `json:"name"`
	CVC        string `json:"cvc"`
}

type AuthorizeRequest struct {
	Card           Card
	Amount         decimal.Decimal
	Currency       string
	UserID         string
	IdempotencyKey string
}

type Authorization struct {
	Provider  string
	Reference string
	Amount    decimal.Decimal
}

// Authorizer is the payment processor boundary. Authorize returns an
// *apperr.PaymentDeclinedError when the processor refuses the card. Void and Refund are
// idempotent per reference: repeating a call never moves money twice.
type Authorizer interface {
	Name() string
	Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error)
	Void(ctx context.Context, reference string) error
	Refund(ctx context.Context, reference string, amount decimal.Decimal) error
}
