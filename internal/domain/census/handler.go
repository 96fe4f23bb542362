package census

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wardbook/wardbook/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/census/locations", h.LocationCensus)
	api.GET("/census/pending", h.Pending)
	api.GET("/patients/:regno/tasks", h.PatientWorklist)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

func (h *Handler) LocationCensus(c echo.Context) error {
	counts, err := h.svc.LocationCensus(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, counts)
}

// Pending returns the category counts, and the outstanding rows themselves
// when ?detail=true.
func (h *Handler) Pending(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.svc.PendingSummary(ctx)
	if err != nil {
		return httpError(err)
	}
	if c.QueryParam("detail") != "true" {
		return c.JSON(http.StatusOK, summary)
	}

	items, err := h.svc.PendingItems(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary": summary,
		"items":   items,
	})
}

func (h *Handler) PatientWorklist(c echo.Context) error {
	items, err := h.svc.PatientWorklist(c.Request().Context(), c.Param("regno"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}
