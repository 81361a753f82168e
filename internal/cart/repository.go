package cart

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]model.CartLine, error)
	// Upsert inserts the line or increments the quantity of the existing
	// (user, product, size) line, and returns the stored row.
	Upsert(ctx context.Context, item *model.CartItem) (*model.CartItem, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (bool, error)
	Remove(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

// ProductFinder looks up the live product when a line is added.
type ProductFinder interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
}
