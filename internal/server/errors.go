package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/pkg/i18n"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// mapped is the transport view of an application error.
type mapped struct {
	status    int
	code      string
	messageID string
	data      map[string]interface{}
	details   interface{}
}

func mapError(err error) mapped {
	var (
		validation *apperr.ValidationError
		emptyCart  *apperr.EmptyCartError
		stock      *apperr.InsufficientStockError
		declined   *apperr.PaymentDeclinedError
		notFound   *apperr.NotFoundError
		conflict   *apperr.ConflictError
		state      *apperr.InvalidStateError
		unauth     *apperr.UnauthorizedError
		forbidden  *apperr.ForbiddenError
		httpErr    *echo.HTTPError
	)

	switch {
	case errors.As(err, &validation):
		return mapped{status: http.StatusBadRequest, code: "validation_error", messageID: validation.MessageID, details: validation.Fields}
	case errors.As(err, &emptyCart):
		return mapped{status: http.StatusBadRequest, code: "empty_cart", messageID: "empty_cart"}
	case errors.As(err, &stock):
		return mapped{
			status:    http.StatusConflict,
			code:      "insufficient_stock",
			messageID: "insufficient_stock",
			data:      map[string]interface{}{"Product": stock.ProductName, "Requested": stock.Requested, "Available": stock.Available},
			details:   map[string]interface{}{"productId": stock.ProductID, "requested": stock.Requested, "available": stock.Available},
		}
	case errors.As(err, &declined):
		m := mapped{status: http.StatusPaymentRequired, code: "payment_declined", messageID: "payment_declined", details: map[string]interface{}{"reason": declined.Reason}}
		if declined.RequiresAction {
			m.code, m.messageID = "payment_requires_action", "payment_requires_action"
		}
		return m
	case errors.As(err, &notFound):
		return mapped{status: http.StatusNotFound, code: "not_found", messageID: "not_found", data: map[string]interface{}{"Resource": notFound.Resource}}
	case errors.As(err, &conflict):
		return mapped{status: http.StatusConflict, code: "conflict", messageID: "conflict", details: map[string]interface{}{"reason": conflict.Reason}}
	case errors.As(err, &state):
		return mapped{status: http.StatusConflict, code: "invalid_state", messageID: "invalid_state", details: map[string]interface{}{"status": state.Status, "action": state.Action}}
	case errors.As(err, &unauth):
		return mapped{status: http.StatusUnauthorized, code: "unauthorized", messageID: "unauthorized"}
	case errors.As(err, &forbidden):
		return mapped{status: http.StatusForbidden, code: "forbidden", messageID: "forbidden"}
	case errors.As(err, &httpErr):
		switch httpErr.Code {
		case http.StatusNotFound:
			return mapped{status: http.StatusNotFound, code: "not_found", messageID: "not_found", data: map[string]interface{}{"Resource": "Route"}}
		case http.StatusUnauthorized:
			return mapped{status: http.StatusUnauthorized, code: "unauthorized", messageID: "unauthorized"}
		case http.StatusRequestEntityTooLarge, http.StatusBadRequest, http.StatusUnsupportedMediaType:
			return mapped{status: httpErr.Code, code: "validation_error", messageID: "validation_failed"}
		}
		return mapped{status: httpErr.Code, code: "http_error", messageID: "internal"}
	}
	return mapped{status: http.StatusInternalServerError, code: "internal", messageID: "internal"}
}

// ErrorHandler renders every error as {"error": {...}} with a localized message. Causes of
// persistence failures are logged, never returned.
func ErrorHandler(log logger.ZapLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		m := mapError(err)
		if m.status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		body := errorResponse{Error: errorBody{
			Code:    m.code,
			Message: i18n.T(m.messageID, m.data, c.Request().Header.Get("Accept-Language")),
			Details: m.details,
		}}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(m.status)
		} else {
			werr = c.JSON(m.status, body)
		}
		if werr != nil {
			log.Warn("failed to write error response", zap.Error(werr))
		}
	}
}
