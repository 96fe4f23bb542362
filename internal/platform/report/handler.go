package report

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wardbook/wardbook/pkg/apperr"
)

type Handler struct {
	builder *Builder
}

func NewHandler(builder *Builder) *Handler {
	return &Handler{builder: builder}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports/worklist.xlsx", h.Worklist)
}

func (h *Handler) Worklist(c echo.Context) error {
	data, err := h.builder.Worklist(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}

	filename := "worklist-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
