package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type Repository interface {
	// Core stock operations. Decrement and Adjust are conditional: ok=false means the
	// product does not exist or the result would go below zero, and nothing was changed.
	// On ok=false, after is the current stock (0 for a missing product).
	Decrement(ctx context.Context, productID string, quantity int) (after int, ok bool, err error)
	Restore(ctx context.Context, productID string, quantity int) (after int, ok bool, err error)
	Adjust(ctx context.Context, productID string, delta int) (after int, ok bool, err error)

	// Movements / Audit
	LogMovement(ctx context.Context, movement *model.InventoryMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	PurgeMovementsBefore(ctx context.Context, before time.Time) (int64, error)

	ListLowStock(ctx context.Context, filters *dto.InventoryFilters) ([]model.Product, int, error)
}
