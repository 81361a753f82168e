package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/cart/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

const (
	productA = "3b0b8d62-1f7e-4d1e-9c55-0000000000a1"
	productB = "3b0b8d62-1f7e-4d1e-9c55-0000000000b2"
	ghost    = "3b0b8d62-1f7e-4d1e-9c55-0000000000ff"
)

type fakeRepo struct {
	items []model.CartItem
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string) ([]model.CartLine, error) {
	var out []model.CartLine
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, model.CartLine{CartItem: it})
		}
	}
	return out, nil
}

func (r *fakeRepo) Upsert(_ context.Context, item *model.CartItem) (*model.CartItem, error) {
	for i := range r.items {
		it := &r.items[i]
		if it.UserID == item.UserID && it.ProductID == item.ProductID && it.Size == item.Size {
			it.Quantity += item.Quantity
			cp := *it
			return &cp, nil
		}
	}
	r.items = append(r.items, *item)
	return item, nil
}

func (r *fakeRepo) SetQuantity(_ context.Context, userID, lineID string, qty int) (bool, error) {
	for i := range r.items {
		if r.items[i].ID == lineID && r.items[i].UserID == userID {
			r.items[i].Quantity = qty
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) Remove(_ context.Context, userID, lineID string) error {
	kept := r.items[:0]
	for _, it := range r.items {
		if !(it.ID == lineID && it.UserID == userID) {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

func (r *fakeRepo) Clear(_ context.Context, userID string) error {
	kept := r.items[:0]
	for _, it := range r.items {
		if it.UserID != userID {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

type fakeProducts map[string]*model.Product

func (f fakeProducts) FindByID(_ context.Context, id string) (*model.Product, error) {
	return f[id], nil
}

var (
	alice = &auth.Session{UserID: "alice"}
	bob   = &auth.Session{UserID: "bob"}
)

func newTestUseCase() (*cartUseCase, *fakeRepo) {
	repo := &fakeRepo{}
	products := fakeProducts{
		productA: {BaseModel: model.BaseModel{ID: productA}, Name: "Drip", Price: decimal.RequireFromString("10.00"), Stock: 4, Status: model.ProductStatusActive},
		productB: {BaseModel: model.BaseModel{ID: productB}, Name: "Old", Status: model.ProductStatusDeleted},
	}
	uc := NewCartUseCase(repo, products, logger.NewNop()).(*cartUseCase)
	uc.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	return uc, repo
}

func TestAddItemMergesSameLine(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()

	_, err := uc.AddItem(ctx, alice, &dto.AddItemInput{ProductID: productA, Size: "16oz", Quantity: 2})
	require.NoError(t, err)
	res, err := uc.AddItem(ctx, alice, &dto.AddItemInput{ProductID: productA, Size: "16oz", Quantity: 3})
	require.NoError(t, err)

	require.Len(t, repo.items, 1)
	assert.Equal(t, 5, repo.items[0].Quantity)
	assert.Equal(t, 5, res.Item.Quantity)
	assert.True(t, res.StockWarning, "5 in cart against stock 4")
	assert.Equal(t, 4, res.Available)
}

func TestAddItemDefaultsAndValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   dto.AddItemInput
		wantErr interface{}
	}{
		{"zero quantity", dto.AddItemInput{ProductID: productA, Quantity: 0}, &apperr.ValidationError{}},
		{"negative quantity", dto.AddItemInput{ProductID: productA, Quantity: -1}, &apperr.ValidationError{}},
		{"unknown product", dto.AddItemInput{ProductID: ghost, Quantity: 1}, &apperr.NotFoundError{}},
		{"malformed id", dto.AddItemInput{ProductID: "nope", Quantity: 1}, &apperr.NotFoundError{}},
		{"deleted product", dto.AddItemInput{ProductID: productB, Quantity: 1}, &apperr.NotFoundError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo := newTestUseCase()
			_, err := uc.AddItem(context.Background(), alice, &tt.input)
			require.Error(t, err)
			assert.IsType(t, tt.wantErr, err)
			assert.Empty(t, repo.items)
		})
	}

	uc, repo := newTestUseCase()
	res, err := uc.AddItem(context.Background(), alice, &dto.AddItemInput{ProductID: productA, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSize, repo.items[0].Size)
	assert.False(t, res.StockWarning)

	_, err = uc.AddItem(context.Background(), nil, &dto.AddItemInput{ProductID: productA, Quantity: 1})
	assert.IsType(t, &apperr.UnauthorizedError{}, err)
}

func TestGetCartKeepsMissingProducts(t *testing.T) {
	uc, repo := newTestUseCase()
	repo.items = []model.CartItem{{ID: "l1", UserID: "alice", ProductID: ghost, Quantity: 2}}

	view, err := uc.GetCart(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	line := view.Items[0]
	assert.Equal(t, "Unknown Product", line.Name)
	assert.Equal(t, 0, line.Stock)
	assert.False(t, line.InStock)
	assert.Equal(t, model.DefaultSize, line.Size)
	assert.Equal(t, model.DefaultSizes, line.Sizes)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, view.Subtotal.IsZero())
}

func TestUpdateQuantity(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()
	res, err := uc.AddItem(ctx, alice, &dto.AddItemInput{ProductID: productA, Quantity: 1})
	require.NoError(t, err)
	lineID := res.Item.ID

	require.NoError(t, uc.UpdateQuantity(ctx, alice, lineID, 3))
	assert.Equal(t, 3, repo.items[0].Quantity)

	err = uc.UpdateQuantity(ctx, bob, lineID, 9)
	assert.IsType(t, &apperr.NotFoundError{}, err, "another user's line is invisible")
	assert.Equal(t, 3, repo.items[0].Quantity)

	require.NoError(t, uc.UpdateQuantity(ctx, alice, lineID, 0))
	assert.Empty(t, repo.items)
}

func TestRemoveAndClearAreScopedToUser(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()
	a, err := uc.AddItem(ctx, alice, &dto.AddItemInput{ProductID: productA, Quantity: 1})
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, bob, &dto.AddItemInput{ProductID: productA, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, uc.RemoveItem(ctx, bob, a.Item.ID))
	assert.Len(t, repo.items, 2)

	require.NoError(t, uc.ClearCart(ctx, alice))
	require.Len(t, repo.items, 1)
	assert.Equal(t, "bob", repo.items[0].UserID)
}
