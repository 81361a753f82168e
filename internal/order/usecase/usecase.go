package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/cart"
	"github.com/fekuna/omnipos-storefront-service/internal/inventory"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/payment"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/worker"
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-storefront-service/internal/order")

// CatalogNotifier is told which products changed stock so cached and indexed copies refresh.
type CatalogNotifier interface {
	ProductsChanged(ctx context.Context, ids []string)
}

// StructValidator validates a struct and reports failures under messageID.
type StructValidator interface {
	Struct(i interface{}, messageID string) error
}

type Deps struct {
	Repo       order.Repository
	Carts      cart.Repository
	Inventory  inventory.Repository
	Payments   payment.Repository
	Authorizer payment.Authorizer
	Tx         postgres.Transactor
	Locker     cache.Locker
	Publisher  order.Publisher
	Catalog    CatalogNotifier
	Pool       worker.Submitter
	Validator  StructValidator
	Checkout   config.CheckoutConfig
	Logger     logger.ZapLogger
}

type orderUseCase struct {
	repo       order.Repository
	carts      cart.Repository
	inventory  inventory.Repository
	payments   payment.Repository
	authorizer payment.Authorizer
	tx         postgres.Transactor
	locker     cache.Locker
	publisher  order.Publisher
	catalog    CatalogNotifier
	pool       worker.Submitter
	validate   StructValidator
	checkout   config.CheckoutConfig
	logger     logger.ZapLogger
	now        func() time.Time
}

func NewOrderUseCase(d Deps) order.UseCase {
	if d.Checkout.MaxAttempts <= 0 {
		d.Checkout.MaxAttempts = 3
	}
	if d.Checkout.LockTTL <= 0 {
		d.Checkout.LockTTL = 30 * time.Second
	}
	return &orderUseCase{
		repo:       d.Repo,
		carts:      d.Carts,
		inventory:  d.Inventory,
		payments:   d.Payments,
		authorizer: d.Authorizer,
		tx:         d.Tx,
		locker:     d.Locker,
		publisher:  d.Publisher,
		catalog:    d.Catalog,
		pool:       d.Pool,
		validate:   d.Validator,
		checkout:   d.Checkout,
		logger:     d.Logger,
		now:        time.Now,
	}
}

func (uc *orderUseCase) ListUserOrders(ctx context.Context, sess *auth.Session) ([]model.Order, error) {
	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}
	orders, err := uc.repo.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Persistence("list orders", err)
	}
	if err := uc.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns the order with its lines. Orders of other users are reported as not found.
func (uc *orderUseCase) GetOrder(ctx context.Context, sess *auth.Session, orderID string) (*model.Order, error) {
	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}
	o, err := uc.find(ctx, sess, orderID, false)
	if err != nil {
		return nil, err
	}
	orders := []model.Order{*o}
	if err := uc.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, sess *auth.Session, filters *dto.OrderFilters) ([]model.Order, int, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, 0, err
	}
	orders, total, err := uc.repo.ListAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Persistence("list orders", err)
	}
	if err := uc.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrderStatus is an admin override. It has no stock side effects; cancelling with
// restocking goes through CancelOrder.
func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, sess *auth.Session, orderID string, status model.OrderStatus) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if !status.Valid() {
		return apperr.NewValidation("", map[string]string{"status": "must be one of pending, processing, shipped, delivered, cancelled"})
	}
	if !model.ValidID(orderID) {
		return apperr.NotFound("order", orderID)
	}
	found, err := uc.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return apperr.Persistence("update order status", err)
	}
	if !found {
		return apperr.NotFound("order", orderID)
	}
	uc.logger.Info("order status overridden", zap.String("order_id", orderID), zap.String("status", string(status)), zap.String("by", sess.UserID))
	return nil
}

func (uc *orderUseCase) UpdatePaymentStatus(ctx context.Context, sess *auth.Session, orderID string, status model.PaymentStatus) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if !status.Valid() {
		return apperr.NewValidation("", map[string]string{"payment_status": "must be one of pending, paid, refunded"})
	}
	if !model.ValidID(orderID) {
		return apperr.NotFound("order", orderID)
	}
	found, err := uc.repo.UpdatePaymentStatus(ctx, orderID, status)
	if err != nil {
		return apperr.Persistence("update payment status", err)
	}
	if !found {
		return apperr.NotFound("order", orderID)
	}
	return nil
}

// PurgeOrder permanently removes an order and its lines. Stock is not touched.
func (uc *orderUseCase) PurgeOrder(ctx context.Context, sess *auth.Session, orderID string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if !model.ValidID(orderID) {
		return apperr.NotFound("order", orderID)
	}
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := uc.repo.Delete(ctx, orderID)
		if err != nil {
			return apperr.Persistence("delete order", err)
		}
		if !found {
			return apperr.NotFound("order", orderID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.logger.Info("order purged", zap.String("order_id", orderID), zap.String("by", sess.UserID))
	return nil
}

func (uc *orderUseCase) Stats(ctx context.Context, sess *auth.Session) (*model.DashboardStats, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	stats, err := uc.repo.Stats(ctx, model.LowStockThreshold)
	if err != nil {
		return nil, apperr.Persistence("dashboard stats", err)
	}
	return stats, nil
}

// HandlePaymentEvent maps processor notifications onto the order and payment record.
func (uc *orderUseCase) HandlePaymentEvent(ctx context.Context, event *dto.PaymentEvent) error {
	var (
		orderStatus  model.PaymentStatus
		recordStatus model.PaymentRecordStatus
	)
	switch event.EventType {
	case dto.PaymentCaptured:
		orderStatus, recordStatus = model.PaymentStatusPaid, model.PaymentRecordCaptured
	case dto.PaymentRefunded:
		orderStatus, recordStatus = model.PaymentStatusRefunded, model.PaymentRecordRefunded
	case dto.PaymentFailed:
		orderStatus, recordStatus = model.PaymentStatusPending, model.PaymentRecordFailed
	default:
		return nil
	}
	ref := event.Payload.Reference
	if ref == "" {
		return apperr.NewValidation("", map[string]string{"reference": "is required"})
	}

	return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := uc.repo.FindByPaymentReference(ctx, ref, true)
		if err != nil {
			return apperr.Persistence("find order by payment", err)
		}
		if o == nil {
			return apperr.NotFound("payment", ref)
		}
		if !paymentTransitionAllowed(o, orderStatus) {
			uc.logger.Info("ignored stale payment event",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
				zap.String("order_id", o.ID),
				zap.String("order_status", string(o.Status)),
				zap.String("payment_status", string(o.PaymentStatus)),
			)
			return nil
		}
		if _, err := uc.repo.UpdatePaymentStatus(ctx, o.ID, orderStatus); err != nil {
			return apperr.Persistence("update payment status", err)
		}
		return apperr.Persistence("update payment record", uc.payments.UpdateStatus(ctx, ref, recordStatus))
	})
}

// paymentTransitionAllowed rejects events that would move a payment backwards: refunded is
// final, and a cancelled order only accepts a refund.
func paymentTransitionAllowed(o *model.Order, to model.PaymentStatus) bool {
	if o.PaymentStatus == model.PaymentStatusRefunded || o.Status == model.OrderStatusCancelled {
		return to == model.PaymentStatusRefunded
	}
	return true
}

func (uc *orderUseCase) find(ctx context.Context, sess *auth.Session, orderID string, forUpdate bool) (*model.Order, error) {
	if !model.ValidID(orderID) {
		return nil, apperr.NotFound("order", orderID)
	}
	o, err := uc.repo.FindByID(ctx, orderID, forUpdate)
	if err != nil {
		return nil, apperr.Persistence("find order", err)
	}
	if o == nil || !sess.CanAccess(o.UserID) {
		return nil, apperr.NotFound("order", orderID)
	}
	return o, nil
}

func (uc *orderUseCase) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := uc.repo.ItemsByOrders(ctx, ids)
	if err != nil {
		return apperr.Persistence("load order items", err)
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []model.OrderItem{}
		}
	}
	return nil
}

func (uc *orderUseCase) publish(eventType string, o *model.Order) {
	if uc.publisher == nil {
		return
	}
	event := newEvent(eventType, o, uc.now())
	worker.Go(uc.pool, uc.logger, "publish-"+eventType, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.Error("failed to publish order event",
				zap.String("event_type", eventType),
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
		}
	})
}

func (uc *orderUseCase) notifyCatalog(items []model.OrderItem) {
	if uc.catalog == nil {
		return
	}
	seen := map[string]bool{}
	var ids []string
	for _, it := range items {
		if it.ProductID != nil && !seen[*it.ProductID] {
			seen[*it.ProductID] = true
			ids = append(ids, *it.ProductID)
		}
	}
	if len(ids) == 0 {
		return
	}
	worker.Go(uc.pool, uc.logger, "catalog-refresh", func() {
		uc.catalog.ProductsChanged(context.Background(), ids)
	})
}

func requireAdmin(sess *auth.Session) error {
	if sess == nil {
		return &apperr.UnauthorizedError{Reason: "missing session"}
	}
	if !sess.IsAdmin {
		return &apperr.ForbiddenError{Reason: "admin only"}
	}
	return nil
}
