package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/category"
	"github.com/fekuna/omnipos-storefront-service/internal/category/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

// The prefix sits under the product list namespace so catalog writes, which
// clear "products:list:*", also drop these facets.
const (
	cacheKeyPrefix = "products:list:categories:"
	cacheTTL       = 5 * time.Minute
)

var adminStatuses = map[string]bool{
	"": true, "all": true, "active": true, "inactive": true, "out_of_stock": true, "deleted": true,
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type categoryUseCase struct {
	repo   category.Repository
	cache  Cache
	logger logger.ZapLogger
}

// NewCategoryUseCase accepts a nil cache, in which case every call hits the repository.
func NewCategoryUseCase(repo category.Repository, cache Cache, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, search string) ([]model.CategoryCount, error) {
	f := &dto.CategoryFilters{Search: search, Status: "active"}

	key := cacheKey(f)
	if uc.cache != nil {
		if raw, ok, err := uc.cache.Get(ctx, key); err != nil {
			uc.logger.Warn("category cache read failed", zap.Error(err))
		} else if ok {
			var hit []model.CategoryCount
			if err := json.Unmarshal(raw, &hit); err == nil {
				return hit, nil
			}
		}
	}

	counts, err := uc.repo.Counts(ctx, f)
	if err != nil {
		return nil, apperr.Persistence("count categories", err)
	}

	if uc.cache != nil {
		if data, err := json.Marshal(counts); err == nil {
			if err := uc.cache.Set(ctx, key, data, cacheTTL); err != nil {
				uc.logger.Warn("category cache write failed", zap.Error(err))
			}
		}
	}
	return counts, nil
}

func (uc *categoryUseCase) AdminCategories(ctx context.Context, sess *auth.Session, f *dto.CategoryFilters) ([]model.CategoryCount, error) {
	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}
	if !sess.IsAdmin {
		return nil, &apperr.ForbiddenError{Reason: "admin only"}
	}
	if !adminStatuses[f.Status] {
		return nil, apperr.NewValidation("", map[string]string{"status": "unknown product status"})
	}
	counts, err := uc.repo.Counts(ctx, f)
	if err != nil {
		return nil, apperr.Persistence("count categories", err)
	}
	return counts, nil
}

func cacheKey(f *dto.CategoryFilters) string {
	data, _ := json.Marshal(f)
	return fmt.Sprintf("%s%x", cacheKeyPrefix, md5.Sum(data))
}
