package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/payment"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
)

const (
	orderNumberConstraint = "orders_order_number_key"
	currency              = "USD"
)

// PlaceOrder turns the session user's cart into an order. Card payments are authorized
// before anything is written; the order, its lines, the stock decrements, the ledger rows,
// the payment record and the cart clear commit together or not at all.
func (uc *orderUseCase) PlaceOrder(ctx context.Context, sess *auth.Session, input *dto.PlaceOrderInput) (o *model.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.PlaceOrder")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}
	span.SetAttributes(attribute.String("user.id", sess.UserID))

	option, err := uc.validateCheckout(input)
	if err != nil {
		return nil, err
	}

	// Guards double submission of the same cart.
	lockKey := "lock:checkout:" + sess.UserID
	lockValue := uuid.New().String()
	acquired, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, uc.checkout.LockTTL)
	if err != nil {
		return nil, apperr.Persistence("acquire checkout lock", err)
	}
	if !acquired {
		return nil, &apperr.ConflictError{Reason: "checkout already in progress"}
	}
	defer func() {
		if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
			uc.logger.Warn("failed to release checkout lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	rows, err := uc.carts.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Persistence("load cart", err)
	}
	if len(rows) == 0 {
		return nil, &apperr.EmptyCartError{}
	}
	lines := make([]model.CartLineView, len(rows))
	for i := range rows {
		lines[i] = rows[i].View()
	}

	if err := checkStock(lines); err != nil {
		return nil, err
	}

	quote := PriceCart(lines, option, uc.checkout.TaxRate)
	span.SetAttributes(attribute.String("order.total", quote.Total.StringFixed(2)))

	var authz *payment.Authorization
	if input.PaymentMethod == model.PaymentMethodCard {
		authz, err = uc.authorizer.Authorize(ctx, payment.AuthorizeRequest{
			Card:           *input.Card,
			Amount:         quote.Total,
			Currency:       currency,
			UserID:         sess.UserID,
			IdempotencyKey: lockValue,
		})
		if err != nil {
			var declined *apperr.PaymentDeclinedError
			if errors.As(err, &declined) {
				uc.logger.Info("payment declined", zap.String("user_id", sess.UserID), zap.String("reason", declined.Reason))
				return nil, declined
			}
			return nil, apperr.Persistence("authorize payment", err)
		}
	}

	o, err = uc.persistOrder(ctx, sess, input, lines, quote, authz)
	if err != nil {
		if authz != nil {
			uc.voidAuthorization(ctx, authz)
		}
		return nil, err
	}

	uc.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", sess.UserID),
		zap.String("total", o.TotalAmount.StringFixed(2)),
	)
	uc.publish(order.EventOrderPlaced, o)
	uc.notifyCatalog(o.Items)
	return o, nil
}

func (uc *orderUseCase) validateCheckout(input *dto.PlaceOrderInput) (config.ShippingOption, error) {
	if input == nil {
		return config.ShippingOption{}, apperr.NewValidation("", map[string]string{"body": "is required"})
	}
	if err := uc.validate.Struct(&input.Shipping, "shipping_incomplete"); err != nil {
		return config.ShippingOption{}, err
	}

	if input.PaymentMethod == "" {
		input.PaymentMethod = model.PaymentMethodCard
	}
	if !input.PaymentMethod.Valid() {
		return config.ShippingOption{}, apperr.NewValidation("", map[string]string{"payment_method": "must be card or cash_on_delivery"})
	}

	option, ok := uc.checkout.Shipping(input.ShippingMethod)
	if !ok {
		return config.ShippingOption{}, apperr.NewValidation("", map[string]string{"shipping_method": "unknown option"})
	}

	if input.PaymentMethod == model.PaymentMethodCard {
		if input.Card == nil {
			return config.ShippingOption{}, apperr.NewValidation("card_invalid", map[string]string{"card": "is required"})
		}
		if err := payment.ValidateCard(*input.Card, uc.now()); err != nil {
			return config.ShippingOption{}, err
		}
	}
	return option, nil
}

// persistOrder writes the order in one transaction, retrying with a fresh order number when
// the number collides.
func (uc *orderUseCase) persistOrder(ctx context.Context, sess *auth.Session, input *dto.PlaceOrderInput, lines []model.CartLineView, quote Quote, authz *payment.Authorization) (*model.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= uc.checkout.MaxAttempts; attempt++ {
		o, err := uc.buildOrder(sess, input, lines, quote, authz)
		if err != nil {
			return nil, apperr.Persistence("generate order number", err)
		}

		err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
			return uc.writeOrder(ctx, o, authz)
		})
		if err == nil {
			return o, nil
		}
		if !postgres.IsUniqueViolation(err) || postgres.ConstraintName(err) != orderNumberConstraint {
			return nil, err
		}
		uc.logger.Warn("order number collision, retrying", zap.String("order_number", o.OrderNumber), zap.Int("attempt", attempt))
		lastErr = err
	}
	return nil, apperr.Persistence(fmt.Sprintf("create order after %d attempts", uc.checkout.MaxAttempts), lastErr)
}

func (uc *orderUseCase) buildOrder(sess *auth.Session, input *dto.PlaceOrderInput, lines []model.CartLineView, quote Quote, authz *payment.Authorization) (*model.Order, error) {
	now := uc.now()
	number, err := NewOrderNumber(now)
	if err != nil {
		return nil, err
	}

	o := &model.Order{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		UserID:          sess.UserID,
		OrderNumber:     number,
		Subtotal:        quote.Subtotal,
		ShippingCost:    quote.ShippingCost,
		TaxAmount:       quote.Tax,
		TotalAmount:     quote.Total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		ShippingMethod:  quote.ShippingMethod,
		ShippingAddress: input.Shipping,
	}
	if authz != nil {
		o.Status = model.OrderStatusProcessing
		o.PaymentStatus = model.PaymentStatusPaid
		o.PaymentReference = &authz.Reference
	}

	o.Items = make([]model.OrderItem, len(lines))
	for i, l := range lines {
		productID := l.ProductID
		o.Items[i] = model.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ProductID:   &productID,
			ProductName: l.Name,
			Brand:       l.Brand,
			Category:    l.Category,
			ImageURL:    l.ImageURL,
			Size:        l.Size,
			Quantity:    l.Quantity,
			UnitPrice:   l.Price,
			TotalPrice:  l.LineTotal,
			CreatedAt:   now,
		}
	}
	return o, nil
}

func (uc *orderUseCase) writeOrder(ctx context.Context, o *model.Order, authz *payment.Authorization) error {
	if err := uc.repo.Create(ctx, o); err != nil {
		return apperr.Persistence("insert order", err)
	}
	if err := uc.repo.CreateItems(ctx, o.Items); err != nil {
		return apperr.Persistence("insert order items", err)
	}

	lines := make([]model.CartLineView, len(o.Items))
	for i, it := range o.Items {
		lines[i] = model.CartLineView{ProductID: *it.ProductID, Name: it.ProductName, Quantity: it.Quantity}
	}
	refType := "order"
	for _, d := range aggregateDemand(lines) {
		after, ok, err := uc.inventory.Decrement(ctx, d.productID, d.quantity)
		if err != nil {
			return apperr.Persistence("decrement stock", err)
		}
		if !ok {
			// Stock moved between the check and the write.
			return &apperr.InsufficientStockError{
				ProductID:   d.productID,
				ProductName: d.name,
				Requested:   d.quantity,
				Available:   after,
			}
		}
		err = uc.inventory.LogMovement(ctx, &model.InventoryMovement{
			ID:             uuid.New().String(),
			ProductID:      d.productID,
			MovementType:   model.MovementSale,
			QuantityChange: -d.quantity,
			QuantityBefore: after + d.quantity,
			QuantityAfter:  after,
			ReferenceType:  &refType,
			ReferenceID:    &o.ID,
			Notes:          o.OrderNumber,
			CreatedBy:      &o.UserID,
			CreatedAt:      o.CreatedAt,
		})
		if err != nil {
			return apperr.Persistence("log inventory movement", err)
		}
	}

	if authz != nil {
		err := uc.payments.Create(ctx, &model.Payment{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			UserID:    o.UserID,
			Provider:  authz.Provider,
			Reference: authz.Reference,
			Amount:    authz.Amount,
			Status:    model.PaymentRecordAuthorized,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.CreatedAt,
		})
		if err != nil {
			return apperr.Persistence("insert payment", err)
		}
	}

	return apperr.Persistence("clear cart", uc.carts.Clear(ctx, o.UserID))
}

func (uc *orderUseCase) voidAuthorization(ctx context.Context, authz *payment.Authorization) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := uc.authorizer.Void(ctx, authz.Reference); err != nil {
		uc.logger.Error("failed to void payment authorization",
			zap.String("reference", authz.Reference),
			zap.Error(err),
		)
		return
	}
	uc.logger.Info("voided payment authorization after failed checkout", zap.String("reference", authz.Reference))
}

func newEvent(eventType string, o *model.Order, at time.Time) *order.Event {
	items := make([]order.OrderItemPayload, len(o.Items))
	for i, it := range o.Items {
		items[i] = order.OrderItemPayload{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity}
	}
	return &order.Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload: order.OrderPayload{
			ID:            o.ID,
			OrderNumber:   o.OrderNumber,
			UserID:        o.UserID,
			Status:        string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
			TotalAmount:   o.TotalAmount,
			Items:         items,
		},
		Timestamp: at,
	}
}
