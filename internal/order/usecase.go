package order

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
)

type UseCase interface {
	PlaceOrder(ctx context.Context, sess *auth.Session, input *dto.PlaceOrderInput) (*model.Order, error)
	CancelOrder(ctx context.Context, sess *auth.Session, orderID string) (*model.Order, error)

	// History
	ListUserOrders(ctx context.Context, sess *auth.Session) ([]model.Order, error)
	GetOrder(ctx context.Context, sess *auth.Session, orderID string) (*model.Order, error)

	// Admin
	ListOrders(ctx context.Context, sess *auth.Session, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateOrderStatus(ctx context.Context, sess *auth.Session, orderID string, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, sess *auth.Session, orderID string, status model.PaymentStatus) error
	PurgeOrder(ctx context.Context, sess *auth.Session, orderID string) error
	Stats(ctx context.Context, sess *auth.Session) (*model.DashboardStats, error)

	// HandlePaymentEvent applies an asynchronous processor notification.
	HandlePaymentEvent(ctx context.Context, event *dto.PaymentEvent) error
}
