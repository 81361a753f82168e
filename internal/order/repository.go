package order

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
)

type Repository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItems(ctx context.Context, items []model.OrderItem) error

	// FindByID returns nil, nil when the order does not exist. forUpdate locks the row
	// until the surrounding transaction ends.
	FindByID(ctx context.Context, id string, forUpdate bool) (*model.Order, error)
	// FindByPaymentReference is FindByID keyed by the processor reference.
	FindByPaymentReference(ctx context.Context, reference string, forUpdate bool) (*model.Order, error)
	ItemsByOrders(ctx context.Context, orderIDs []string) (map[string][]model.OrderItem, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (bool, error)

	// Delete removes the order lines and then the order.
	Delete(ctx context.Context, id string) (bool, error)

	Stats(ctx context.Context, lowStockThreshold int) (*model.DashboardStats, error)
}
