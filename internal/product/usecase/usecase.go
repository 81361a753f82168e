package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/product"
	"github.com/fekuna/omnipos-storefront-service/internal/product/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/blob"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/search"
	"github.com/fekuna/omnipos-storefront-service/pkg/worker"
)

const (
	indexName     = "products"
	imageBucket   = "product-images"
	listCacheTTL  = 5 * time.Minute
	listKeyPrefix = "products:list:"
	reindexBatch  = 200
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"description": { "type": "text" },
			"category": { "type": "keyword" },
			"brand": { "type": "keyword" },
			"status": { "type": "keyword" },
			"price": { "type": "double" },
			"stock": { "type": "integer" },
			"created_at": { "type": "date" }
		}
	}
}`

// ListCache is the subset of the redis client used for list caching.
type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResult, error)
	Delete(ctx context.Context, index, id string) error
}

type MovementLogger interface {
	LogMovement(ctx context.Context, movement *model.InventoryMovement) error
}

type Deps struct {
	Repo      product.Repository
	Tx        postgres.Transactor
	Movements MovementLogger
	Cache     ListCache
	Index     SearchIndex // nil disables search indexing
	Blob      blob.Store
	Pool      worker.Submitter
	Logger    logger.ZapLogger
}

type productUseCase struct {
	repo      product.Repository
	tx        postgres.Transactor
	movements MovementLogger
	cache     ListCache
	es        SearchIndex
	blob      blob.Store
	pool      worker.Submitter
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewProductUseCase(d Deps) product.UseCase {
	return &productUseCase{
		repo:      d.Repo,
		tx:        d.Tx,
		movements: d.Movements,
		cache:     d.Cache,
		es:        d.Index,
		blob:      d.Blob,
		pool:      d.Pool,
		logger:    d.Logger,
		now:       time.Now,
	}
}

type cachedList struct {
	Products []model.ProductView
	Count    int
}

func (uc *productUseCase) ListActive(ctx context.Context, filters *dto.ProductFilters) ([]model.ProductView, int, error) {
	f := *filters
	f.Status = string(model.ProductStatusActive)
	f.IncludeDeleted = false

	cacheKey, err := uc.generateCacheKey(&f)
	if err == nil {
		if raw, ok, err := uc.cache.Get(ctx, cacheKey); err != nil {
			uc.logger.Warn("product list cache read failed", zap.Error(err))
		} else if ok {
			var hit cachedList
			if err := json.Unmarshal(raw, &hit); err == nil {
				return hit.Products, hit.Count, nil
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, &f)
	if err != nil {
		return nil, 0, apperr.Persistence("list products", err)
	}
	views := toViews(products)

	if cacheKey != "" {
		if data, err := json.Marshal(cachedList{Products: views, Count: count}); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, listCacheTTL); err != nil {
				uc.logger.Warn("product list cache write failed", zap.Error(err))
			}
		}
	}

	return views, count, nil
}

func (uc *productUseCase) Search(ctx context.Context, query string, page, pageSize int) ([]model.ProductView, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return uc.ListActive(ctx, &dto.ProductFilters{Page: page, PageSize: pageSize})
	}
	page = max(page, 1)

	if uc.es != nil {
		q := map[string]interface{}{
			"query": map[string]interface{}{
				"bool": map[string]interface{}{
					"must": []map[string]interface{}{
						{
							"multi_match": map[string]interface{}{
								"query":     query,
								"fields":    []string{"name^3", "brand^2", "category", "description"},
								"fuzziness": "AUTO",
							},
						},
					},
					"filter": []map[string]interface{}{
						{"term": map[string]interface{}{"status": model.ProductStatusActive}},
					},
				},
			},
			"from": (page - 1) * pageSize,
		}
		if pageSize > 0 {
			q["size"] = pageSize
		}

		res, err := uc.es.Search(ctx, indexName, q)
		if err == nil {
			var products []model.Product
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					products = append(products, p)
				}
			}
			return toViews(products), res.Hits.Total.Value, nil
		}
		// If ES fails, fall through to DB
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	return uc.ListActive(ctx, &dto.ProductFilters{Search: query, Page: page, PageSize: pageSize})
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.ProductView, error) {
	p, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.DeletedAt != nil || p.Status == model.ProductStatusDeleted {
		return nil, apperr.NotFound("product", id)
	}
	v := model.NewProductView(*p)
	return &v, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, sess *auth.Session, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, 0, err
	}
	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Persistence("list products", err)
	}
	return products, count, nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, sess *auth.Session, input *dto.CreateProductInput) (*model.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.ProductStatusActive
	}
	if err := validateProduct(input.Price, input.Stock, status); err != nil {
		return nil, err
	}

	now := uc.now()
	p := &model.Product{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Category:       input.Category,
		Brand:          input.Brand,
		Price:          input.Price.Round(2),
		Stock:          input.Stock,
		Status:         status,
		ImageURL:       input.ImageURL,
		Sizes:          orDefault(input.Sizes, model.DefaultSizes),
		AvailableSizes: orDefault(input.AvailableSizes, model.DefaultAvailableSizes),
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, apperr.Persistence("create product", err)
	}

	uc.logger.Info("product created", zap.String("product_id", p.ID), zap.String("by", sess.UserID))
	uc.afterChange(p.ID)
	return p, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, sess *auth.Session, id string, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	var p *model.Product
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = uc.find(ctx, id)
		if err != nil {
			return err
		}
		stockBefore := p.Stock

		if input.Name != nil {
			p.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			p.Description = *input.Description
		}
		if input.Category != nil {
			p.Category = *input.Category
		}
		if input.Brand != nil {
			p.Brand = *input.Brand
		}
		if input.Price != nil {
			p.Price = input.Price.Round(2)
		}
		if input.Stock != nil {
			p.Stock = *input.Stock
		}
		if input.Status != nil {
			p.Status = *input.Status
		}
		if input.ImageURL != nil {
			p.ImageURL = *input.ImageURL
		}
		if input.Sizes != nil {
			p.Sizes = input.Sizes
		}
		if input.AvailableSizes != nil {
			p.AvailableSizes = input.AvailableSizes
		}
		if err := validateProduct(p.Price, p.Stock, p.Status); err != nil {
			return err
		}

		p.UpdatedAt = uc.now()
		if err := uc.repo.Update(ctx, p); err != nil {
			return apperr.Persistence("update product", err)
		}

		if p.Stock != stockBefore {
			refType := "product_update"
			err := uc.movements.LogMovement(ctx, &model.InventoryMovement{
				ID:             uuid.New().String(),
				ProductID:      p.ID,
				MovementType:   model.MovementAdjustment,
				QuantityChange: p.Stock - stockBefore,
				QuantityBefore: stockBefore,
				QuantityAfter:  p.Stock,
				ReferenceType:  &refType,
				ReferenceID:    &p.ID,
				Notes:          "stock set from product editor",
				CreatedBy:      &sess.UserID,
				CreatedAt:      p.UpdatedAt,
			})
			if err != nil {
				return apperr.Persistence("log inventory movement", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterChange(p.ID)
	return p, nil
}

// DeleteProduct hard-deletes a product that no order line references.
func (uc *productUseCase) DeleteProduct(ctx context.Context, sess *auth.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if _, err := uc.find(ctx, id); err != nil {
		return err
	}

	referenced, err := uc.repo.IsReferenced(ctx, id)
	if err != nil {
		return apperr.Persistence("check product references", err)
	}
	if referenced {
		return &apperr.ConflictError{Reason: "product exists in orders, use force delete instead"}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return &apperr.ConflictError{Reason: "product exists in orders, use force delete instead"}
		}
		return apperr.Persistence("delete product", err)
	}

	uc.afterDelete(id)
	return nil
}

// ForceDeleteProduct detaches historical order lines and deletes the product. If the row is
// still referenced it falls back to a soft delete.
func (uc *productUseCase) ForceDeleteProduct(ctx context.Context, sess *auth.Session, id string) (*dto.DeleteResult, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if _, err := uc.find(ctx, id); err != nil {
		return nil, err
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		detached, err := uc.repo.DetachOrderItems(ctx, id)
		if err != nil {
			return err
		}
		if detached > 0 {
			uc.logger.Info("detached order lines from product", zap.String("product_id", id), zap.Int64("lines", detached))
		}
		return uc.repo.Delete(ctx, id)
	})
	if err != nil {
		if !postgres.IsForeignKeyViolation(err) {
			return nil, apperr.Persistence("force delete product", err)
		}
		uc.logger.Warn("force delete blocked by foreign key, soft deleting", zap.String("product_id", id))
		if err := uc.softDelete(ctx, id); err != nil {
			return nil, err
		}
		return &dto.DeleteResult{SoftDeleted: true, Message: "Product marked as deleted (soft delete)"}, nil
	}

	uc.afterDelete(id)
	return &dto.DeleteResult{Message: "Product force deleted successfully"}, nil
}

func (uc *productUseCase) SoftDeleteProduct(ctx context.Context, sess *auth.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if _, err := uc.find(ctx, id); err != nil {
		return err
	}
	return uc.softDelete(ctx, id)
}

func (uc *productUseCase) softDelete(ctx context.Context, id string) error {
	if err := uc.repo.SoftDelete(ctx, id, uc.now()); err != nil {
		return apperr.Persistence("soft delete product", err)
	}
	uc.afterDelete(id)
	return nil
}

// UploadImage stores the file under <user>/<unix-ms>.<ext> in the product image bucket.
func (uc *productUseCase) UploadImage(ctx context.Context, sess *auth.Session, input *dto.UploadImageInput, r io.Reader) (string, error) {
	if err := requireAdmin(sess); err != nil {
		return "", err
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(input.Filename)), ".")
	if ext == "" {
		return "", apperr.NewValidation("", map[string]string{"file": "must have an extension"})
	}
	if input.ProductID != "" {
		if _, err := uc.find(ctx, input.ProductID); err != nil {
			return "", err
		}
	}

	object := fmt.Sprintf("%s/%d.%s", sess.UserID, uc.now().UnixMilli(), ext)
	url, err := uc.blob.Put(ctx, imageBucket, object, input.ContentType, r)
	if err != nil {
		return "", apperr.Persistence("upload product image", err)
	}

	if input.ProductID != "" {
		if err := uc.repo.UpdateImage(ctx, input.ProductID, url); err != nil {
			return "", apperr.Persistence("update product image", err)
		}
		uc.afterChange(input.ProductID)
	}
	return url, nil
}

func (uc *productUseCase) ProductsChanged(_ context.Context, ids []string) {
	for _, id := range ids {
		uc.syncToElastic(id)
	}
	uc.invalidateListCache()
}

// Reindex pushes every non-deleted product into the search index.
func (uc *productUseCase) Reindex(ctx context.Context) (int, error) {
	if uc.es == nil {
		return 0, nil
	}
	_ = uc.es.CreateIndex(ctx, indexName, indexMapping)

	indexed := 0
	for page := 1; ; page++ {
		products, _, err := uc.repo.FindAll(ctx, &dto.ProductFilters{Page: page, PageSize: reindexBatch, SortBy: "created_at", SortOrder: "asc"})
		if err != nil {
			return indexed, apperr.Persistence("list products", err)
		}
		for i := range products {
			if err := uc.es.Index(ctx, indexName, products[i].ID, &products[i]); err != nil {
				return indexed, err
			}
			indexed++
		}
		if len(products) < reindexBatch {
			return indexed, nil
		}
	}
}

func (uc *productUseCase) find(ctx context.Context, id string) (*model.Product, error) {
	if !model.ValidID(id) {
		return nil, apperr.NotFound("product", id)
	}
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("find product", err)
	}
	if p == nil {
		return nil, apperr.NotFound("product", id)
	}
	return p, nil
}

func (uc *productUseCase) afterChange(id string) {
	uc.invalidateListCache()
	uc.syncToElastic(id)
}

func (uc *productUseCase) afterDelete(id string) {
	uc.invalidateListCache()
	if uc.es == nil {
		return
	}
	worker.Go(uc.pool, uc.logger, "es-delete-product", func() {
		if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
			uc.logger.Error("failed to delete product from ES", zap.Error(err))
		}
	})
}

func (uc *productUseCase) syncToElastic(id string) {
	if uc.es == nil {
		return
	}
	worker.Go(uc.pool, uc.logger, "es-index-product", func() {
		ctx := context.Background()
		p, err := uc.repo.FindByID(ctx, id)
		if err != nil || p == nil {
			uc.logger.Warn("skip indexing product", zap.String("product_id", id), zap.Error(err))
			return
		}
		_ = uc.es.CreateIndex(ctx, indexName, indexMapping)
		if p.Status == model.ProductStatusDeleted {
			_ = uc.es.Delete(ctx, indexName, p.ID)
			return
		}
		if err := uc.es.Index(ctx, indexName, p.ID, p); err != nil {
			uc.logger.Error("failed to index product", zap.Error(err))
		}
	})
}

func (uc *productUseCase) invalidateListCache() {
	worker.Go(uc.pool, uc.logger, "invalidate-product-cache", func() {
		if err := uc.cache.DeletePattern(context.Background(), listKeyPrefix+"*"); err != nil {
			uc.logger.Warn("failed to invalidate product cache", zap.Error(err))
		}
	})
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%x", listKeyPrefix, md5.Sum(data)), nil
}

func requireAdmin(sess *auth.Session) error {
	if sess == nil {
		return &apperr.UnauthorizedError{Reason: "missing session"}
	}
	if !sess.IsAdmin {
		return &apperr.ForbiddenError{Reason: "admin only"}
	}
	return nil
}

func validateProduct(price decimal.Decimal, stock int, status model.ProductStatus) error {
	fields := map[string]string{}
	if price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if stock < 0 {
		fields["stock"] = "must not be negative"
	}
	if !status.Valid() {
		fields["status"] = "must be one of active, inactive, out_of_stock, deleted"
	}
	if len(fields) > 0 {
		return apperr.NewValidation("", fields)
	}
	return nil
}

func orDefault(list, def model.StringList) model.StringList {
	if len(list) == 0 {
		return append(model.StringList(nil), def...)
	}
	return list
}

func toViews(products []model.Product) []model.ProductView {
	views := make([]model.ProductView, len(products))
	for i, p := range products {
		views[i] = model.NewProductView(p)
	}
	return views
}
