package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
)

var admin = &auth.Session{UserID: otherID, IsAdmin: true}

func TestOrderHistoryIsScopedToOwner(t *testing.T) {
	f := newFixture()
	placed := placeCardOrder(t, f)

	orders, err := f.uc.ListUserOrders(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 2)

	orders, err = f.uc.ListUserOrders(context.Background(), &auth.Session{UserID: otherID})
	require.NoError(t, err)
	assert.Empty(t, orders)

	got, err := f.uc.GetOrder(context.Background(), customer, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.OrderNumber, got.OrderNumber)

	_, err = f.uc.GetOrder(context.Background(), &auth.Session{UserID: otherID}, placed.ID)
	assert.IsType(t, &apperr.NotFoundError{}, err)

	_, err = f.uc.GetOrder(context.Background(), admin, placed.ID)
	assert.NoError(t, err)
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	f := newFixture()
	placed := placeCardOrder(t, f)
	ctx := context.Background()

	_, _, err := f.uc.ListOrders(ctx, customer, &dto.OrderFilters{})
	assert.IsType(t, &apperr.ForbiddenError{}, err)
	assert.IsType(t, &apperr.ForbiddenError{}, f.uc.UpdateOrderStatus(ctx, customer, placed.ID, model.OrderStatusShipped))
	assert.IsType(t, &apperr.ForbiddenError{}, f.uc.UpdatePaymentStatus(ctx, customer, placed.ID, model.PaymentStatusRefunded))
	assert.IsType(t, &apperr.ForbiddenError{}, f.uc.PurgeOrder(ctx, customer, placed.ID))
	_, err = f.uc.Stats(ctx, customer)
	assert.IsType(t, &apperr.ForbiddenError{}, err)
	_, err = f.uc.Stats(ctx, nil)
	assert.IsType(t, &apperr.UnauthorizedError{}, err)
}

func TestAdminStatusOverrides(t *testing.T) {
	f := newFixture()
	placed := placeCardOrder(t, f)
	ctx := context.Background()

	require.NoError(t, f.uc.UpdateOrderStatus(ctx, admin, placed.ID, model.OrderStatusShipped))
	assert.Equal(t, model.OrderStatusShipped, f.store.orders[placed.ID].Status)
	assert.Equal(t, 3, f.store.stock(prodA), "override has no stock effect")

	assert.IsType(t, &apperr.ValidationError{}, f.uc.UpdateOrderStatus(ctx, admin, placed.ID, "lost"))
	assert.IsType(t, &apperr.NotFoundError{}, f.uc.UpdateOrderStatus(ctx, admin, prodA, model.OrderStatusShipped))

	require.NoError(t, f.uc.UpdatePaymentStatus(ctx, admin, placed.ID, model.PaymentStatusRefunded))
	assert.Equal(t, model.PaymentStatusRefunded, f.store.orders[placed.ID].PaymentStatus)
	assert.IsType(t, &apperr.ValidationError{}, f.uc.UpdatePaymentStatus(ctx, admin, placed.ID, "maybe"))

	orders, total, err := f.uc.ListOrders(ctx, admin, &dto.OrderFilters{Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders[0].Items, 2)

	stats, err := f.uc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 2, stats.LowStockProducts)
}

func TestPurgeOrder(t *testing.T) {
	f := newFixture()
	placed := placeCardOrder(t, f)
	ctx := context.Background()

	require.NoError(t, f.uc.PurgeOrder(ctx, admin, placed.ID))
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.store.items)
	assert.Equal(t, 3, f.store.stock(prodA), "purge does not restock")

	assert.IsType(t, &apperr.NotFoundError{}, f.uc.PurgeOrder(ctx, admin, placed.ID))
}

func TestHandlePaymentEvent(t *testing.T) {
	tests := []struct {
		name       string
		eventType  string
		wantOrder  model.PaymentStatus
		wantRecord model.PaymentRecordStatus
	}{
		{"captured", dto.PaymentCaptured, model.PaymentStatusPaid, model.PaymentRecordCaptured},
		{"refunded", dto.PaymentRefunded, model.PaymentStatusRefunded, model.PaymentRecordRefunded},
		{"failed", dto.PaymentFailed, model.PaymentStatusPending, model.PaymentRecordFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			placed := placeCardOrder(t, f)
			ref := *placed.PaymentReference

			event := &dto.PaymentEvent{EventID: "evt-1", EventType: tt.eventType}
			event.Payload.OrderID = placed.ID
			event.Payload.Reference = ref

			require.NoError(t, f.uc.HandlePaymentEvent(context.Background(), event))
			assert.Equal(t, tt.wantOrder, f.store.orders[placed.ID].PaymentStatus)
			assert.Equal(t, tt.wantRecord, f.store.payments[ref].Status)
		})
	}
}

func TestHandlePaymentEventNeverMovesBackwards(t *testing.T) {
	tests := []struct {
		name       string
		eventType  string
		wantOrder  model.PaymentStatus
		wantRecord model.PaymentRecordStatus
	}{
		{"late capture", dto.PaymentCaptured, model.PaymentStatusRefunded, model.PaymentRecordRefunded},
		{"late failure", dto.PaymentFailed, model.PaymentStatusRefunded, model.PaymentRecordRefunded},
		{"repeated refund", dto.PaymentRefunded, model.PaymentStatusRefunded, model.PaymentRecordRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			placed := placeCardOrder(t, f)
			ref := *placed.PaymentReference
			_, err := f.uc.CancelOrder(context.Background(), customer, placed.ID)
			require.NoError(t, err)

			event := &dto.PaymentEvent{EventID: "evt-late", EventType: tt.eventType}
			event.Payload.Reference = ref
			require.NoError(t, f.uc.HandlePaymentEvent(context.Background(), event))

			stored := f.store.orders[placed.ID]
			assert.Equal(t, model.OrderStatusCancelled, stored.Status)
			assert.Equal(t, tt.wantOrder, stored.PaymentStatus)
			assert.Equal(t, tt.wantRecord, f.store.payments[ref].Status)
		})
	}
}

func TestHandlePaymentEventIgnoresCaptureOnCancelledOrder(t *testing.T) {
	f := newFixture()
	placed := placeCardOrder(t, f)
	ref := *placed.PaymentReference
	// Cancelled by an admin override, payment still marked pending.
	f.store.orders[placed.ID].Status = model.OrderStatusCancelled
	f.store.orders[placed.ID].PaymentStatus = model.PaymentStatusPending

	for _, eventType := range []string{dto.PaymentCaptured, dto.PaymentFailed} {
		event := &dto.PaymentEvent{EventType: eventType}
		event.Payload.Reference = ref
		require.NoError(t, f.uc.HandlePaymentEvent(context.Background(), event))
		assert.Equal(t, model.PaymentStatusPending, f.store.orders[placed.ID].PaymentStatus, eventType)
		assert.Equal(t, model.PaymentRecordAuthorized, f.store.payments[ref].Status, eventType)
	}
}

func TestHandlePaymentEventEdgeCases(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	unknown := &dto.PaymentEvent{EventType: dto.PaymentCaptured}
	unknown.Payload.Reference = "pi_missing"
	assert.IsType(t, &apperr.NotFoundError{}, f.uc.HandlePaymentEvent(ctx, unknown))

	noRef := &dto.PaymentEvent{EventType: dto.PaymentCaptured}
	assert.IsType(t, &apperr.ValidationError{}, f.uc.HandlePaymentEvent(ctx, noRef))

	assert.NoError(t, f.uc.HandlePaymentEvent(ctx, &dto.PaymentEvent{EventType: "PaymentDisputed"}))
}
