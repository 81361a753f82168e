package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/internal/inventory"
	"github.com/fekuna/omnipos-storefront-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterAdmin mounts the admin inventory routes. The group is expected to require an admin session.
func (h *InventoryHandler) RegisterAdmin(g *echo.Group) {
	g.GET("/inventory/low-stock", h.ListLowStock)
	g.GET("/inventory/movements", h.ListMovements)
	g.POST("/inventory/adjust", h.AdjustInventory)
}

func (h *InventoryHandler) ListLowStock(c echo.Context) error {
	page, pageSize := httpresp.ParsePagination(c)
	threshold, _ := strconv.Atoi(c.QueryParam("threshold"))

	items, total, err := h.uc.ListLowStock(c.Request().Context(), threshold, page, pageSize)
	if err != nil {
		return err
	}
	return httpresp.Paged(c, items, total, page, pageSize)
}

func (h *InventoryHandler) ListMovements(c echo.Context) error {
	page, pageSize := httpresp.ParsePagination(c)
	filters := &dto.MovementFilters{
		ProductID:    c.QueryParam("product_id"),
		MovementType: c.QueryParam("movement_type"),
		ReferenceID:  c.QueryParam("reference_id"),
		Page:         page,
		PageSize:     pageSize,
	}
	if v := c.QueryParam("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperr.NewValidation("", map[string]string{"start_date": "must be RFC3339"})
		}
		filters.StartDate = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperr.NewValidation("", map[string]string{"end_date": "must be RFC3339"})
		}
		filters.EndDate = &t
	}

	items, total, err := h.uc.ListMovements(c.Request().Context(), filters)
	if err != nil {
		return err
	}
	return httpresp.Paged(c, items, total, page, pageSize)
}

func (h *InventoryHandler) AdjustInventory(c echo.Context) error {
	var input dto.AdjustInventoryInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	movement, err := h.uc.AdjustInventory(c.Request().Context(), auth.GetSession(c), &input)
	if err != nil {
		return err
	}
	return httpresp.OK(c, movement)
}
