package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wardbook/wardbook/pkg/apperr"
	"github.com/wardbook/wardbook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:regno", h.GetPatient)
	api.PUT("/patients/:regno", h.UpdatePatient)
	api.POST("/patients/:regno/discharge", h.Discharge)
	api.POST("/patients/:regno/readmit", h.Readmit)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("regno"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)

	var filter ListFilter
	filter.Location = c.QueryParam("location")
	switch c.QueryParam("discharged") {
	case "true":
		t := true
		filter.Discharged = &t
	case "false":
		f := false
		filter.Discharged = &f
	}

	items, total, err := h.svc.ListPatients(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdatePatient(c.Request().Context(), c.Param("regno"), &p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Discharge(c echo.Context) error {
	return h.setDischarged(c, true)
}

func (h *Handler) Readmit(c echo.Context) error {
	return h.setDischarged(c, false)
}

func (h *Handler) setDischarged(c echo.Context, discharged bool) error {
	regno := c.Param("regno")
	if err := h.svc.SetDischarged(c.Request().Context(), regno, discharged); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"registration_number": regno,
		"is_discharged":       discharged,
	})
}
