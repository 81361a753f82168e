package usecase

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/product/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/search"
	"github.com/fekuna/omnipos-storefront-service/pkg/worker"
)

type fakeRepo struct {
	products   map[string]*model.Product
	referenced map[string]bool
	deleteErr  error
	findAll    int
	detached   []string
}

func newFakeRepo(products ...model.Product) *fakeRepo {
	r := &fakeRepo{products: map[string]*model.Product{}, referenced: map[string]bool{}}
	for i := range products {
		p := products[i]
		r.products[p.ID] = &p
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) FindAll(_ context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	r.findAll++
	var out []model.Product
	for _, p := range r.products {
		if f.Status != "" && f.Status != "all" && string(p.Status) != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.products, id)
	return nil
}

func (r *fakeRepo) IsReferenced(_ context.Context, id string) (bool, error) {
	return r.referenced[id], nil
}

func (r *fakeRepo) DetachOrderItems(_ context.Context, id string) (int64, error) {
	r.detached = append(r.detached, id)
	return 1, nil
}

func (r *fakeRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	p := r.products[id]
	p.Status = model.ProductStatusDeleted
	p.DeletedAt = &at
	return nil
}

func (r *fakeRepo) UpdateImage(_ context.Context, id, url string) error {
	r.products[id].ImageURL = url
	return nil
}

type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type fakeCache struct {
	data        map[string][]byte
	invalidated int
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) DeletePattern(_ context.Context, _ string) error {
	c.invalidated++
	c.data = map[string][]byte{}
	return nil
}

type fakeIndex struct {
	indexed map[string]bool
	deleted map[string]bool
	fail    bool
}

func (i *fakeIndex) CreateIndex(context.Context, string, string) error { return nil }

func (i *fakeIndex) Index(_ context.Context, _, id string, _ interface{}) error {
	i.indexed[id] = true
	return nil
}

func (i *fakeIndex) Search(context.Context, string, map[string]interface{}) (*search.SearchResult, error) {
	if i.fail {
		return nil, assert.AnError
	}
	res := &search.SearchResult{}
	res.Hits.Total.Value = 0
	return res, nil
}

func (i *fakeIndex) Delete(_ context.Context, _, id string) error {
	i.deleted[id] = true
	return nil
}

type fakeMovements struct {
	logged []model.InventoryMovement
}

func (m *fakeMovements) LogMovement(_ context.Context, mv *model.InventoryMovement) error {
	m.logged = append(m.logged, *mv)
	return nil
}

type fakeBlob struct {
	bucket, object string
}

func (b *fakeBlob) Put(_ context.Context, bucket, object, _ string, r io.Reader) (string, error) {
	b.bucket, b.object = bucket, object
	_, _ = io.ReadAll(r)
	return "http://cdn.test/" + bucket + "/" + object, nil
}

type fixture struct {
	uc        *productUseCase
	repo      *fakeRepo
	cache     *fakeCache
	index     *fakeIndex
	movements *fakeMovements
	blob      *fakeBlob
}

func newFixture(products ...model.Product) *fixture {
	f := &fixture{
		repo:      newFakeRepo(products...),
		cache:     &fakeCache{data: map[string][]byte{}},
		index:     &fakeIndex{indexed: map[string]bool{}, deleted: map[string]bool{}},
		movements: &fakeMovements{},
		blob:      &fakeBlob{},
	}
	f.uc = NewProductUseCase(Deps{
		Repo:      f.repo,
		Tx:        passTx{},
		Movements: f.movements,
		Cache:     f.cache,
		Index:     f.index,
		Blob:      f.blob,
		Pool:      worker.Inline{},
		Logger:    logger.NewNop(),
	}).(*productUseCase)
	f.uc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return f
}

const (
	idA    = "6f1c2b1e-0000-4000-8000-00000000000a"
	idB    = "6f1c2b1e-0000-4000-8000-00000000000b"
	idC    = "6f1c2b1e-0000-4000-8000-00000000000c"
	idGone = "6f1c2b1e-0000-4000-8000-00000000000d"
)

var (
	admin    = &auth.Session{UserID: "admin-1", IsAdmin: true}
	customer = &auth.Session{UserID: "user-1"}
)

func newProduct(id string, stock int, status model.ProductStatus) model.Product {
	return model.Product{
		BaseModel: model.BaseModel{ID: id},
		Name:      "Cold Brew " + id,
		Price:     decimal.RequireFromString("10.00"),
		Stock:     stock,
		Status:    status,
	}
}

func TestListActiveUsesCacheAndFlags(t *testing.T) {
	f := newFixture(
		newProduct(idA, 5, model.ProductStatusActive),
		newProduct(idB, 0, model.ProductStatusActive),
		newProduct(idC, 50, model.ProductStatusInactive),
	)
	ctx := context.Background()

	items, total, err := f.uc.ListActive(ctx, &dto.ProductFilters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	flags := map[string][2]bool{}
	for _, v := range items {
		flags[v.ID] = [2]bool{v.IsAvailable, v.IsLowStock}
	}
	assert.Equal(t, [2]bool{true, true}, flags[idA])
	assert.Equal(t, [2]bool{false, false}, flags[idB])

	_, _, err = f.uc.ListActive(ctx, &dto.ProductFilters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.findAll, "second call should be served from cache")

	f.uc.ProductsChanged(ctx, []string{idA})
	assert.Equal(t, 1, f.cache.invalidated)
	assert.True(t, f.index.indexed[idA])
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	f := newFixture(newProduct(idA, 5, model.ProductStatusActive), newProduct(idB, 5, model.ProductStatusActive))
	f.repo.products[idA].Name = "Espresso"
	f.index.fail = true

	items, total, err := f.uc.Search(context.Background(), "espresso", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, idA, items[0].ID)
}

func TestGetProductHidesDeleted(t *testing.T) {
	f := newFixture(newProduct(idGone, 0, model.ProductStatusDeleted))

	_, err := f.uc.GetProduct(context.Background(), idGone)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = f.uc.GetProduct(context.Background(), "missing")
	require.ErrorAs(t, err, &nf)
}

func TestCreateProductDefaultsAndAuthz(t *testing.T) {
	f := newFixture()
	input := &dto.CreateProductInput{Name: " Latte ", Price: decimal.RequireFromString("4.5"), Stock: 3}

	_, err := f.uc.CreateProduct(context.Background(), customer, input)
	require.IsType(t, &apperr.ForbiddenError{}, err)

	p, err := f.uc.CreateProduct(context.Background(), admin, input)
	require.NoError(t, err)
	assert.Equal(t, "Latte", p.Name)
	assert.Equal(t, model.ProductStatusActive, p.Status)
	assert.Equal(t, model.DefaultSizes, p.Sizes)
	assert.True(t, f.index.indexed[p.ID])

	_, err = f.uc.CreateProduct(context.Background(), admin, &dto.CreateProductInput{Name: "Bad", Price: decimal.NewFromInt(-1)})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "price")
}

func TestUpdateProductLogsStockMovement(t *testing.T) {
	f := newFixture(newProduct(idA, 5, model.ProductStatusActive))
	stock := 12
	status := model.ProductStatusOutOfStock

	p, err := f.uc.UpdateProduct(context.Background(), admin, idA, &dto.UpdateProductInput{Stock: &stock, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 12, p.Stock)
	assert.Equal(t, model.ProductStatusOutOfStock, p.Status)

	require.Len(t, f.movements.logged, 1)
	assert.Equal(t, 7, f.movements.logged[0].QuantityChange)
	assert.Equal(t, 5, f.movements.logged[0].QuantityBefore)

	// status alone does not touch the ledger
	active := model.ProductStatusActive
	_, err = f.uc.UpdateProduct(context.Background(), admin, idA, &dto.UpdateProductInput{Status: &active})
	require.NoError(t, err)
	assert.Len(t, f.movements.logged, 1)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(newProduct(idA, 1, model.ProductStatusActive), newProduct(idB, 1, model.ProductStatusActive))
	f.repo.referenced[idA] = true

	err := f.uc.DeleteProduct(context.Background(), admin, idA)
	require.IsType(t, &apperr.ConflictError{}, err)
	assert.Contains(t, f.repo.products, idA)

	require.NoError(t, f.uc.DeleteProduct(context.Background(), admin, idB))
	assert.NotContains(t, f.repo.products, idB)
	assert.True(t, f.index.deleted[idB])
}

func TestForceDeleteFallsBackToSoftDelete(t *testing.T) {
	f := newFixture(newProduct(idA, 1, model.ProductStatusActive))
	f.repo.deleteErr = &pgconn.PgError{Code: "23503"}

	res, err := f.uc.ForceDeleteProduct(context.Background(), admin, idA)
	require.NoError(t, err)
	assert.True(t, res.SoftDeleted)
	assert.Equal(t, []string{idA}, f.repo.detached)
	assert.Equal(t, model.ProductStatusDeleted, f.repo.products[idA].Status)
	assert.NotNil(t, f.repo.products[idA].DeletedAt)
}

func TestForceDeleteRemovesProduct(t *testing.T) {
	f := newFixture(newProduct(idA, 1, model.ProductStatusActive))

	res, err := f.uc.ForceDeleteProduct(context.Background(), admin, idA)
	require.NoError(t, err)
	assert.False(t, res.SoftDeleted)
	assert.NotContains(t, f.repo.products, idA)
}

func TestUploadImage(t *testing.T) {
	f := newFixture(newProduct(idA, 1, model.ProductStatusActive))

	url, err := f.uc.UploadImage(context.Background(), admin, &dto.UploadImageInput{
		ProductID: idA,
		Filename:  "photo.PNG",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "product-images", f.blob.bucket)
	assert.Equal(t, "admin-1/1792411200000.png", f.blob.object)
	assert.Equal(t, url, f.repo.products[idA].ImageURL)

	_, err = f.uc.UploadImage(context.Background(), admin, &dto.UploadImageInput{Filename: "noext"}, strings.NewReader(""))
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}
