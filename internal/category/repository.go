package category

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/category/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type Repository interface {
	Counts(ctx context.Context, filters *dto.CategoryFilters) ([]model.CategoryCount, error)
}
