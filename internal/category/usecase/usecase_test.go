package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/category/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type fakeRepo struct {
	counts []model.CategoryCount
	err    error
	calls  []dto.CategoryFilters
}

func (r *fakeRepo) Counts(_ context.Context, f *dto.CategoryFilters) ([]model.CategoryCount, error) {
	r.calls = append(r.calls, *f)
	return r.counts, r.err
}

type fakeCache struct {
	data    map[string][]byte
	readErr error
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

var sample = []model.CategoryCount{
	{Name: "shoes", Products: 4, InStock: 3},
	{Name: "tees", Products: 2, InStock: 0},
}

func TestListCategoriesCachesResult(t *testing.T) {
	repo := &fakeRepo{counts: sample}
	cache := &fakeCache{data: map[string][]byte{}}
	uc := NewCategoryUseCase(repo, cache, logger.NewNop())

	first, err := uc.ListCategories(context.Background(), "")
	require.NoError(t, err)
	second, err := uc.ListCategories(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, sample, first)
	assert.Equal(t, first, second)
	require.Len(t, repo.calls, 1)
	assert.Equal(t, "active", repo.calls[0].Status)

	require.Len(t, cache.data, 1)
	for key := range cache.data {
		assert.True(t, strings.HasPrefix(key, "products:list:"), key)
	}
}

func TestListCategoriesWithoutCache(t *testing.T) {
	tests := []struct {
		name  string
		cache Cache
	}{
		{"nil cache", nil},
		{"failing cache", &fakeCache{data: map[string][]byte{}, readErr: errors.New("redis down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{counts: sample}
			uc := NewCategoryUseCase(repo, tt.cache, logger.NewNop())
			got, err := uc.ListCategories(context.Background(), "sh")
			require.NoError(t, err)
			assert.Equal(t, sample, got)
			assert.Equal(t, "sh", repo.calls[0].Search)
		})
	}
}

func TestListCategoriesRepositoryError(t *testing.T) {
	uc := NewCategoryUseCase(&fakeRepo{err: errors.New("db gone")}, nil, logger.NewNop())
	_, err := uc.ListCategories(context.Background(), "")
	var pe *apperr.PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestAdminCategories(t *testing.T) {
	tests := []struct {
		name    string
		sess    *auth.Session
		status  string
		wantErr interface{}
	}{
		{"no session", nil, "", &apperr.UnauthorizedError{}},
		{"customer", &auth.Session{UserID: "u1"}, "", &apperr.ForbiddenError{}},
		{"unknown status", &auth.Session{UserID: "a1", IsAdmin: true}, "archived", &apperr.ValidationError{}},
		{"all statuses", &auth.Session{UserID: "a1", IsAdmin: true}, "all", nil},
		{"deleted only", &auth.Session{UserID: "a1", IsAdmin: true}, "deleted", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{counts: sample}
			uc := NewCategoryUseCase(repo, nil, logger.NewNop())
			got, err := uc.AdminCategories(context.Background(), tt.sess, &dto.CategoryFilters{Status: tt.status})
			switch want := tt.wantErr.(type) {
			case *apperr.UnauthorizedError:
				assert.ErrorAs(t, err, &want)
				assert.Empty(t, repo.calls)
			case *apperr.ForbiddenError:
				assert.ErrorAs(t, err, &want)
				assert.Empty(t, repo.calls)
			case *apperr.ValidationError:
				assert.ErrorAs(t, err, &want)
				assert.Empty(t, repo.calls)
			default:
				require.NoError(t, err)
				assert.Equal(t, sample, got)
				assert.Equal(t, tt.status, repo.calls[0].Status)
			}
		})
	}
}
