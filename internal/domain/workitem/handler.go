package workitem

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
	api.POST("/patients/:regno/workitems", h.AddCurrent)
	api.POST("/patients/:regno/workitems/archive", h.AddArchive)
	api.GET("/patients/:regno/workitems", h.List)
	api.PUT("/workitems", h.Edit)
	api.PUT("/workitems/status", h.AdvanceStatus)
	api.DELETE("/workitems", h.Delete)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

// affectedResponse reports how many rows a targeted mutation touched. Zero is
// a success; callers that need "nothing matched" check the count.
type affectedResponse struct {
	Affected int64 `json:"affected"`
}

func scopeParam(c echo.Context) Scope {
	if c.QueryParam("scope") == string(ScopeArchive) {
		return ScopeArchive
	}
	return ScopeCurrent
}

func (h *Handler) add(c echo.Context, scope Scope) error {
	var payload Payload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.AddItem(c.Request().Context(), scope, c.Param("regno"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) AddCurrent(c echo.Context) error { return h.add(c, ScopeCurrent) }

func (h *Handler) AddArchive(c echo.Context) error { return h.add(c, ScopeArchive) }

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), scopeParam(c), c.Param("regno"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type editRequest struct {
	Scope      Scope      `json:"scope"`
	Key        NaturalKey `json:"key"`
	NewSubtype string     `json:"new_subtype"`
	NewStatus  string     `json:"new_status,omitempty"`
}

func (h *Handler) Edit(c echo.Context) error {
	var req editRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Scope == "" {
		req.Scope = ScopeCurrent
	}
	n, err := h.svc.EditSubtype(c.Request().Context(), req.Scope, req.Key, req.NewSubtype, req.NewStatus)
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
	n, err := h.svc.DeleteItem(c.Request().Context(), req.Scope, req.Key)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, affectedResponse{Affected: n})
}
