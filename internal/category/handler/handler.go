package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/category"
	"github.com/fekuna/omnipos-storefront-service/internal/category/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) RegisterPublic(g *echo.Group) {
	g.GET("/categories", h.ListCategories)
}

func (h *CategoryHandler) RegisterAdmin(g *echo.Group) {
	g.GET("/categories", h.AdminCategories)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	counts, err := h.uc.ListCategories(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return httpresp.OK(c, counts)
}

func (h *CategoryHandler) AdminCategories(c echo.Context) error {
	counts, err := h.uc.AdminCategories(c.Request().Context(), auth.GetSession(c), &dto.CategoryFilters{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return httpresp.OK(c, counts)
}
