package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/cart"
	"github.com/fekuna/omnipos-storefront-service/internal/cart/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type CartHandler struct {
	uc     cart.UseCase
	logger logger.ZapLogger
}

func NewCartHandler(uc cart.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the cart routes on an authenticated group.
func (h *CartHandler) Register(g *echo.Group) {
	g.GET("/cart", h.GetCart)
	g.POST("/cart/items", h.AddItem)
	g.PATCH("/cart/items/:id", h.UpdateQuantity)
	g.DELETE("/cart/items/:id", h.RemoveItem)
	g.DELETE("/cart", h.ClearCart)
}

func (h *CartHandler) GetCart(c echo.Context) error {
	view, err := h.uc.GetCart(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return err
	}
	return httpresp.OK(c, view)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var input dto.AddItemInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	res, err := h.uc.AddItem(c.Request().Context(), auth.GetSession(c), &input)
	if err != nil {
		return err
	}
	return httpresp.Created(c, res)
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	var input dto.UpdateQuantityInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	if err := h.uc.UpdateQuantity(c.Request().Context(), auth.GetSession(c), c.Param("id"), input.Quantity); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	if err := h.uc.RemoveItem(c.Request().Context(), auth.GetSession(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	if err := h.uc.ClearCart(c.Request().Context(), auth.GetSession(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
