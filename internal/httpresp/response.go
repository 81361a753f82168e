// Package httpresp holds the JSON envelope and query helpers shared by the echo handlers.
package httpresp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListResponse struct {
	Data     interface{} `json:"data"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, echo.Map{"data": data})
}

func Paged(c echo.Context, data interface{}, total, page, pageSize int) error {
	return c.JSON(http.StatusOK, ListResponse{Data: data, Total: total, Page: page, PageSize: pageSize})
}

// ParsePagination accepts page and pageSize (or the perPage alias) with sane bounds.
func ParsePagination(c echo.Context) (int, int) {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	raw := c.QueryParam("pageSize")
	if raw == "" {
		raw = c.QueryParam("perPage")
	}
	pageSize := defaultPageSize
	if ps, err := strconv.Atoi(raw); err == nil && ps > 0 {
		pageSize = min(ps, maxPageSize)
	}
	return page, pageSize
}
