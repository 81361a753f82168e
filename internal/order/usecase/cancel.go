package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
)

// CancelOrder cancels a processing or shipped order, returns every recorded line quantity
// to stock and refunds a paid card payment. The order row is locked for the duration.
func (uc *orderUseCase) CancelOrder(ctx context.Context, sess *auth.Session, orderID string) (o *model.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.CancelOrder")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("order.id", orderID))

	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = uc.find(ctx, sess, orderID, true)
		if err != nil {
			return err
		}
		if !o.Status.Cancellable() {
			return &apperr.InvalidStateError{Resource: "order", ID: o.ID, Status: string(o.Status), Action: "cancel"}
		}

		items, err := uc.repo.ItemsByOrders(ctx, []string{o.ID})
		if err != nil {
			return apperr.Persistence("load order items", err)
		}
		o.Items = items[o.ID]

		if err := uc.restoreStock(ctx, sess, o); err != nil {
			return err
		}

		if _, err := uc.repo.UpdateStatus(ctx, o.ID, model.OrderStatusCancelled); err != nil {
			return apperr.Persistence("update order status", err)
		}
		o.Status = model.OrderStatusCancelled

		if o.PaymentStatus == model.PaymentStatusPaid && o.PaymentReference != nil {
			if err := uc.refund(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order cancelled",
		zap.String("order_id", o.ID),
		zap.String("by", sess.UserID),
		zap.String("payment_status", string(o.PaymentStatus)),
	)
	uc.publish(order.EventOrderCancelled, o)
	uc.notifyCatalog(o.Items)
	return o, nil
}

// refund writes the refunded state first and calls the processor last, since the processor call
// cannot be rolled back. Processor refunds are idempotent per reference.
func (uc *orderUseCase) refund(ctx context.Context, o *model.Order) error {
	ref := *o.PaymentReference

	record, err := uc.payments.FindByOrder(ctx, o.ID)
	if err != nil {
		return apperr.Persistence("find payment record", err)
	}
	alreadyRefunded := record != nil && record.Reference == ref && record.Status == model.PaymentRecordRefunded

	if _, err := uc.repo.UpdatePaymentStatus(ctx, o.ID, model.PaymentStatusRefunded); err != nil {
		return apperr.Persistence("update payment status", err)
	}
	if !alreadyRefunded {
		if err := uc.payments.UpdateStatus(ctx, ref, model.PaymentRecordRefunded); err != nil {
			return apperr.Persistence("update payment record", err)
		}
		if err := uc.authorizer.Refund(ctx, ref, o.TotalAmount); err != nil {
			return apperr.Persistence("refund payment", err)
		}
	}
	o.PaymentStatus = model.PaymentStatusRefunded
	return nil
}

// restoreStock adds back exactly the recorded quantities. Lines whose product has since been
// deleted are skipped.
func (uc *orderUseCase) restoreStock(ctx context.Context, sess *auth.Session, o *model.Order) error {
	refType := "order"
	for _, it := range o.Items {
		if it.ProductID == nil {
			continue
		}
		after, ok, err := uc.inventory.Restore(ctx, *it.ProductID, it.Quantity)
		if err != nil {
			return apperr.Persistence("restore stock", err)
		}
		if !ok {
			uc.logger.Warn("skip restock of missing product", zap.String("order_id", o.ID), zap.String("product_id", *it.ProductID))
			continue
		}
		err = uc.inventory.LogMovement(ctx, &model.InventoryMovement{
			ID:             uuid.New().String(),
			ProductID:      *it.ProductID,
			MovementType:   model.MovementCancellation,
			QuantityChange: it.Quantity,
			QuantityBefore: after - it.Quantity,
			QuantityAfter:  after,
			ReferenceType:  &refType,
			ReferenceID:    &o.ID,
			Notes:          o.OrderNumber,
			CreatedBy:      &sess.UserID,
			CreatedAt:      uc.now(),
		})
		if err != nil {
			return apperr.Persistence("log inventory movement", err)
		}
	}
	return nil
}
