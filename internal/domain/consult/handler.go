package consult

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
	api.POST("/patients/:regno/consults", h.AddCurrent)
	api.POST("/patients/:regno/consults/archive", h.AddArchive)
	api.GET("/patients/:regno/consults", h.List)
	api.PUT("/consults", h.Update)
	api.PUT("/consults/status", h.AdvanceStatus)
	api.DELETE("/consults", h.Delete)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

type affectedResponse struct {
	Affected int64 `json:"affected"`
}

type addRequest struct {
	Consult string `json:"consult"`
}

func (h *Handler) add(c echo.Context, scope Scope) error {
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	con, created, err := h.svc.AddConsult(c.Request().Context(), scope, c.Param("regno"), req.Consult)
	if err != nil {
		return httpError(err)
	}
	if !created {
		return c.JSON(http.StatusOK, map[string]string{
			"outcome": "already exists",
		})
	}
	return c.JSON(http.StatusCreated, con)
}

func (h *Handler) AddCurrent(c echo.Context) error { return h.add(c, ScopeCurrent) }

func (h *Handler) AddArchive(c echo.Context) error { return h.add(c, ScopeArchive) }

func (h *Handler) List(c echo.Context) error {
	scope := ScopeCurrent
	if c.QueryParam("scope") == string(ScopeArchive) {
		scope = ScopeArchive
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), scope, c.Param("regno"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateRequest struct {
	Scope     Scope      `json:"scope"`
	Key       NaturalKey `json:"key"`
	NewText   string     `json:"new_text"`
	NewStatus string     `json:"new_status,omitempty"`
}

func (h *Handler) Update(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Scope == "" {
		req.Scope = ScopeCurrent
	}
	n, err := h.svc.UpdateConsult(c.Request().Context(), req.Scope, req.Key, req.NewText, req.NewStatus)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, affectedResponse{Affected: n})
}

type statusRequest struct {
	Key       NaturalKey `json:"key"`
	NewStatus string     `json:"new_status"`
}

func (h *Handler) AdvanceStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.AdvanceStatus(c.Request().Context(), req.Key, req.NewStatus)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, affectedResponse{Affected: n})
}

type deleteRequest struct {
	Scope Scope      `json:"scope"`
	Key   NaturalKey `json:"key"`
}

func (h *Handler) Delete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Scope == "" {
		req.Scope = ScopeCurrent
	}
	n, err := h.svc.DeleteConsult(c.Request().Context(), req.Scope, req.Key)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, affectedResponse{Affected: n})
}
