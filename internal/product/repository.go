package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	// Order line references
	IsReferenced(ctx context.Context, id string) (bool, error)
	DetachOrderItems(ctx context.Context, id string) (int64, error)

	SoftDelete(ctx context.Context, id string, at time.Time) error
	UpdateImage(ctx context.Context, id, imageURL string) error
}
