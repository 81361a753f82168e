package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type UseCase interface {
	ListLowStock(ctx context.Context, threshold, page, pageSize int) ([]model.Product, int, error)
	AdjustInventory(ctx context.Context, sess *auth.Session, input *dto.AdjustInventoryInput) (*model.InventoryMovement, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	PurgeMovements(ctx context.Context, olderThan time.Duration) (int64, error)
}
