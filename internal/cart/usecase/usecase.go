package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/cart"
	"github.com/fekuna/omnipos-storefront-service/internal/cart/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type cartUseCase struct {
	repo     cart.Repository
	products cart.ProductFinder
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewCartUseCase(repo cart.Repository, products cart.ProductFinder, log logger.ZapLogger) cart.UseCase {
	return &cartUseCase{
		repo:     repo,
		products: products,
		logger:   log,
		now:      time.Now,
	}
}

func (uc *cartUseCase) GetCart(ctx context.Context, sess *auth.Session) (*dto.CartView, error) {
	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}

	lines, err := uc.repo.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Persistence("load cart", err)
	}

	view := &dto.CartView{Items: make([]model.CartLineView, 0, len(lines)), Subtotal: decimal.Zero}
	for i := range lines {
		v := lines[i].View()
		view.Items = append(view.Items, v)
		view.ItemCount += v.Quantity
		view.Subtotal = view.Subtotal.Add(v.LineTotal)
	}
	return view, nil
}

func (uc *cartUseCase) AddItem(ctx context.Context, sess *auth.Session, input *dto.AddItemInput) (*dto.AddResult, error) {
	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}
	if input.Quantity < 1 {
		return nil, apperr.NewValidation("", map[string]string{"quantity": "must be at least 1"})
	}
	size := strings.TrimSpace(input.Size)
	if size == "" {
		size = model.DefaultSize
	}

	if !model.ValidID(input.ProductID) {
		return nil, apperr.NotFound("product", input.ProductID)
	}
	p, err := uc.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, apperr.Persistence("find product", err)
	}
	if p == nil || p.Status == model.ProductStatusDeleted {
		return nil, apperr.NotFound("product", input.ProductID)
	}

	now := uc.now()
	stored, err := uc.repo.Upsert(ctx, &model.CartItem{
		ID:        uuid.New().String(),
		UserID:    sess.UserID,
		ProductID: input.ProductID,
		Size:      size,
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, apperr.Persistence("add cart item", err)
	}

	res := &dto.AddResult{Item: *stored, Available: p.Stock}
	if stored.Quantity > p.Stock {
		res.StockWarning = true
		uc.logger.Debug("cart quantity exceeds stock",
			zap.String("user_id", sess.UserID),
			zap.String("product_id", p.ID),
			zap.Int("quantity", stored.Quantity),
			zap.Int("stock", p.Stock),
		)
	}
	return res, nil
}

// UpdateQuantity sets a line's quantity. Anything below 1 removes the line.
func (uc *cartUseCase) UpdateQuantity(ctx context.Context, sess *auth.Session, lineID string, quantity int) error {
	if sess == nil {
		return &apperr.UnauthorizedError{Reason: "missing session"}
	}
	if quantity < 1 {
		return uc.RemoveItem(ctx, sess, lineID)
	}
	if !model.ValidID(lineID) {
		return apperr.NotFound("cart item", lineID)
	}

	found, err := uc.repo.SetQuantity(ctx, sess.UserID, lineID, quantity)
	if err != nil {
		return apperr.Persistence("update cart item", err)
	}
	if !found {
		return apperr.NotFound("cart item", lineID)
	}
	return nil
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, sess *auth.Session, lineID string) error {
	if sess == nil {
		return &apperr.UnauthorizedError{Reason: "missing session"}
	}
	if !model.ValidID(lineID) {
		return nil
	}
	return apperr.Persistence("remove cart item", uc.repo.Remove(ctx, sess.UserID, lineID))
}

func (uc *cartUseCase) ClearCart(ctx context.Context, sess *auth.Session) error {
	if sess == nil {
		return &apperr.UnauthorizedError{Reason: "missing session"}
	}
	return apperr.Persistence("clear cart", uc.repo.Clear(ctx, sess.UserID))
}
