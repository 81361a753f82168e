package cart

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/cart/dto"
)

type UseCase interface {
	GetCart(ctx context.Context, sess *auth.Session) (*dto.CartView, error)
	AddItem(ctx context.Context, sess *auth.Session, input *dto.AddItemInput) (*dto.AddResult, error)
	UpdateQuantity(ctx context.Context, sess *auth.Session, lineID string, quantity int) error
	RemoveItem(ctx context.Context, sess *auth.Session, lineID string) error
	ClearCart(ctx context.Context, sess *auth.Session) error
}

