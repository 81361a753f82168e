package category

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/category/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type UseCase interface {
	// ListCategories returns the categories of active, non-deleted products.
	ListCategories(ctx context.Context, search string) ([]model.CategoryCount, error)
	// AdminCategories counts across any product status, including deleted ones when asked.
	AdminCategories(ctx context.Context, sess *auth.Session, filters *dto.CategoryFilters) ([]model.CategoryCount, error)
}
