package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the customer order routes on an authenticated group.
func (h *OrderHandler) Register(g *echo.Group) {
	g.POST("/orders", h.PlaceOrder)
	g.GET("/orders", h.ListUserOrders)
	g.GET("/orders/:id", h.GetOrder)
	g.POST("/orders/:id/cancel", h.CancelOrder)
}

// RegisterAdmin mounts the back office routes. The group must require an admin session.
func (h *OrderHandler) RegisterAdmin(g *echo.Group) {
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:id", h.GetOrder)
	g.POST("/orders/:id/cancel", h.CancelOrder)
	g.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	g.PATCH("/orders/:id/payment-status", h.UpdatePaymentStatus)
	g.DELETE("/orders/:id", h.PurgeOrder)
	g.GET("/stats", h.Stats)
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	var input dto.PlaceOrderInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}

	o, err := h.uc.PlaceOrder(c.Request().Context(), auth.GetSession(c), &input)
	if err != nil {
		return err
	}
	return httpresp.Created(c, o)
}

func (h *OrderHandler) ListUserOrders(c echo.Context) error {
	orders, err := h.uc.ListUserOrders(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return err
	}
	return httpresp.OK(c, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	o, err := h.uc.GetOrder(c.Request().Context(), auth.GetSession(c), c.Param("id"))
	if err != nil {
		return err
	}
	return httpresp.OK(c, o)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	o, err := h.uc.CancelOrder(c.Request().Context(), auth.GetSession(c), c.Param("id"))
	if err != nil {
		return err
	}
	return httpresp.OK(c, o)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	page, pageSize := httpresp.ParsePagination(c)
	orders, total, err := h.uc.ListOrders(c.Request().Context(), auth.GetSession(c), &dto.OrderFilters{
		Status:   c.QueryParam("status"),
		Search:   c.QueryParam("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}
	return httpresp.Paged(c, orders, total, page, pageSize)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	var input dto.UpdateStatusInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	if err := c.Validate(&input); err != nil {
		return err
	}
	if err := h.uc.UpdateOrderStatus(c.Request().Context(), auth.GetSession(c), c.Param("id"), model.OrderStatus(input.Status)); err != nil {
		return err
	}
	return httpresp.OK(c, echo.Map{"id": c.Param("id"), "status": input.Status})
}

func (h *OrderHandler) UpdatePaymentStatus(c echo.Context) error {
	var input dto.UpdateStatusInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	if err := c.Validate(&input); err != nil {
		return err
	}
	if err := h.uc.UpdatePaymentStatus(c.Request().Context(), auth.GetSession(c), c.Param("id"), model.PaymentStatus(input.Status)); err != nil {
		return err
	}
	return httpresp.OK(c, echo.Map{"id": c.Param("id"), "payment_status": input.Status})
}

func (h *OrderHandler) PurgeOrder(c echo.Context) error {
	if err := h.uc.PurgeOrder(c.Request().Context(), auth.GetSession(c), c.Param("id")); err != nil {
		return err
	}
	return httpresp.OK(c, echo.Map{"id": c.Param("id"), "deleted": true})
}

func (h *OrderHandler) Stats(c echo.Context) error {
	stats, err := h.uc.Stats(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return err
	}
	return httpresp.OK(c, stats)
}
