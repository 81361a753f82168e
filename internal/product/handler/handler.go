package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/internal/product"
	"github.com/fekuna/omnipos-storefront-service/internal/product/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterPublic mounts the storefront catalog routes.
func (h *ProductHandler) RegisterPublic(g *echo.Group) {
	g.GET("/products", h.ListActive)
	g.GET("/products/search", h.Search)
	g.GET("/products/:id", h.GetProduct)
}

// RegisterAdmin mounts the back office routes. The group must require an admin session.
func (h *ProductHandler) RegisterAdmin(g *echo.Group) {
	g.GET("/products", h.ListProducts)
	g.POST("/products", h.CreateProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
	g.DELETE("/products/:id/force", h.ForceDeleteProduct)
	g.POST("/products/:id/soft-delete", h.SoftDeleteProduct)
	g.POST("/products/images", h.UploadImage)
}

func filtersFromQuery(c echo.Context) *dto.ProductFilters {
	page, pageSize := httpresp.ParsePagination(c)
	return &dto.ProductFilters{
		Search:    c.QueryParam("search"),
		Category:  c.QueryParam("category"),
		Status:    c.QueryParam("status"),
		SortBy:    c.QueryParam("sort"),
		SortOrder: c.QueryParam("order"),
		Page:      page,
		PageSize:  pageSize,
	}
}

func (h *ProductHandler) ListActive(c echo.Context) error {
	f := filtersFromQuery(c)
	items, total, err := h.uc.ListActive(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return httpresp.Paged(c, items, total, f.Page, f.PageSize)
}

func (h *ProductHandler) Search(c echo.Context) error {
	page, pageSize := httpresp.ParsePagination(c)
	items, total, err := h.uc.Search(c.Request().Context(), c.QueryParam("q"), page, pageSize)
	if err != nil {
		return err
	}
	return httpresp.Paged(c, items, total, page, pageSize)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return httpresp.OK(c, p)
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	f := filtersFromQuery(c)
	f.IncludeDeleted = c.QueryParam("include_deleted") == "true"
	items, total, err := h.uc.ListProducts(c.Request().Context(), auth.GetSession(c), f)
	if err != nil {
		return err
	}
	return httpresp.Paged(c, items, total, f.Page, f.PageSize)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var input dto.CreateProductInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), auth.GetSession(c), &input)
	if err != nil {
		return err
	}
	return httpresp.Created(c, p)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var input dto.UpdateProductInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	p, err := h.uc.UpdateProduct(c.Request().Context(), auth.GetSession(c), c.Param("id"), &input)
	if err != nil {
		return err
	}
	return httpresp.OK(c, p)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.uc.DeleteProduct(c.Request().Context(), auth.GetSession(c), c.Param("id")); err != nil {
		return err
	}
	return httpresp.OK(c, dto.DeleteResult{Message: "Product deleted successfully"})
}

func (h *ProductHandler) ForceDeleteProduct(c echo.Context) error {
	res, err := h.uc.ForceDeleteProduct(c.Request().Context(), auth.GetSession(c), c.Param("id"))
	if err != nil {
		return err
	}
	return httpresp.OK(c, res)
}

func (h *ProductHandler) SoftDeleteProduct(c echo.Context) error {
	if err := h.uc.SoftDeleteProduct(c.Request().Context(), auth.GetSession(c), c.Param("id")); err != nil {
		return err
	}
	return httpresp.OK(c, dto.DeleteResult{SoftDeleted: true, Message: "Product marked as deleted (soft delete)"})
}

func (h *ProductHandler) UploadImage(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.NewValidation("", map[string]string{"file": "required"})
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Persistence("open upload", err)
	}
	defer f.Close()

	url, err := h.uc.UploadImage(c.Request().Context(), auth.GetSession(c), &dto.UploadImageInput{
		ProductID:   c.FormValue("product_id"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
	}, f)
	if err != nil {
		return err
	}
	return httpresp.Created(c, echo.Map{"url": url})
}
