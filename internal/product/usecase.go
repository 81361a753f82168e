package product

import (
	"context"
	"io"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/product/dto"
)

type UseCase interface {
	// Storefront
	ListActive(ctx context.Context, filters *dto.ProductFilters) ([]model.ProductView, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]model.ProductView, int, error)
	GetProduct(ctx context.Context, id string) (*model.ProductView, error)

	// Admin
	ListProducts(ctx context.Context, sess *auth.Session, filters *dto.ProductFilters) ([]model.Product, int, error)
	CreateProduct(ctx context.Context, sess *auth.Session, input *dto.CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, sess *auth.Session, id string, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, sess *auth.Session, id string) error
	ForceDeleteProduct(ctx context.Context, sess *auth.Session, id string) (*dto.DeleteResult, error)
	SoftDeleteProduct(ctx context.Context, sess *auth.Session, id string) error
	UploadImage(ctx context.Context, sess *auth.Session, input *dto.UploadImageInput, r io.Reader) (string, error)

	// ProductsChanged refreshes derived copies (list cache, search index) after stock or
	// catalog changes made outside this package.
	ProductsChanged(ctx context.Context, ids []string)
	Reindex(ctx context.Context) (int, error)
}
