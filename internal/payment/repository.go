package payment

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByOrder(ctx context.Context, orderID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, reference string, status model.PaymentRecordStatus) error
}
