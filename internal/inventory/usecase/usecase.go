package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/inventory"
	"github.com/fekuna/omnipos-storefront-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 3
	lockBackoff  = 100 * time.Millisecond
)

type inventoryUseCase struct {
	repo   inventory.Repository
	tx     postgres.Transactor
	locker cache.Locker
	logger logger.ZapLogger
	now    func() time.Time
}

func NewInventoryUseCase(repo inventory.Repository, tx postgres.Transactor, locker cache.Locker, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		tx:     tx,
		locker: locker,
		logger: log,
		now:    time.Now,
	}
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, threshold, page, pageSize int) ([]model.Product, int, error) {
	if threshold <= 0 {
		threshold = model.LowStockThreshold
	}
	items, total, err := uc.repo.ListLowStock(ctx, &dto.InventoryFilters{
		Threshold: threshold,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, 0, apperr.Persistence("list low stock", err)
	}
	return items, total, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	items, total, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Persistence("list inventory movements", err)
	}
	return items, total, nil
}

// AdjustInventory applies a manual stock correction and records it in the ledger. The
// result may never go below zero.
func (uc *inventoryUseCase) AdjustInventory(ctx context.Context, sess *auth.Session, input *dto.AdjustInventoryInput) (*model.InventoryMovement, error) {
	if sess == nil || !sess.IsAdmin {
		return nil, &apperr.ForbiddenError{Reason: "admin only"}
	}
	if input.ProductID == "" || input.QuantityChange == 0 {
		return nil, apperr.NewValidation("", map[string]string{"quantity_change": "must be non-zero"})
	}

	// Serialize admin edits per product so before/after in the ledger line up.
	lockKey := fmt.Sprintf("lock:inventory:%s", input.ProductID)
	lockValue := uuid.New().String()
	acquired := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire lock redis error", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(lockBackoff)
	}
	if !acquired {
		return nil, &apperr.ConflictError{Reason: "inventory is being updated, try again"}
	}
	defer func() {
		if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
			uc.logger.Warn("failed to release inventory lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	var movement *model.InventoryMovement
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		after, ok, err := uc.repo.Adjust(ctx, input.ProductID, input.QuantityChange)
		if err != nil {
			return apperr.Persistence("adjust stock", err)
		}
		if !ok {
			return &apperr.InvalidStateError{
				Resource: "product",
				ID:       input.ProductID,
				Status:   "missing or insufficient stock",
				Action:   "adjust",
			}
		}

		refType := "manual"
		movement = &model.InventoryMovement{
			ID:             uuid.New().String(),
			ProductID:      input.ProductID,
			MovementType:   model.MovementAdjustment,
			QuantityChange: input.QuantityChange,
			QuantityBefore: after - input.QuantityChange,
			QuantityAfter:  after,
			ReferenceType:  &refType,
			Notes:          input.Reason,
			CreatedBy:      &sess.UserID,
			CreatedAt:      uc.now(),
		}
		if input.ReferenceID != "" {
			movement.ReferenceID = &input.ReferenceID
		}
		return apperr.Persistence("log inventory movement", uc.repo.LogMovement(ctx, movement))
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("inventory adjusted",
		zap.String("product_id", input.ProductID),
		zap.Int("change", input.QuantityChange),
		zap.Int("after", movement.QuantityAfter),
	)
	return movement, nil
}

// PurgeMovements deletes ledger rows older than the retention window.
func (uc *inventoryUseCase) PurgeMovements(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := uc.repo.PurgeMovementsBefore(ctx, uc.now().Add(-olderThan))
	if err != nil {
		return 0, apperr.Persistence("purge inventory movements", err)
	}
	return n, nil
}
