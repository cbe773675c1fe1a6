package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/fillipgms/admin-playfiver-sub001/api/middleware"
	"github.com/fillipgms/admin-playfiver-sub001/internal/dto"
	"github.com/fillipgms/admin-playfiver-sub001/internal/listquery"
	"github.com/fillipgms/admin-playfiver-sub001/internal/service"

	"github.com/labstack/echo/v4"
)

type ListHandler struct {
	Service *service.ListService
}

func NewListHandler(svc *service.ListService) *ListHandler {
	return &ListHandler{Service: svc}
}

func (h *ListHandler) Dashboard(c echo.Context) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	metrics, err := h.Service.Dashboard(c.Request().Context(), session)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, metrics)
}

// List proxies one list view. The request's query string is the view state,
// namespaced keys included.
func (h *ListHandler) List(c echo.Context) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	result, err := h.Service.Fetch(c.Request().Context(), session, c.Param("view"), c.QueryParams())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// MutateQuery applies a filter change and returns the query string the
// client should navigate to. No platform call is made.
func (h *ListHandler) MutateQuery(c echo.Context) error {
	var req dto.ListQueryRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	current, err := url.ParseQuery(strings.TrimPrefix(req.Query, "?"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	next, view, err := h.Service.Mutate(c.Param("view"), current, listquery.PatchFrom(req.Patch), req.Clear)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ListQueryResponse{
		Query:            next.Encode(),
		Page:             listquery.CurrentPage(next, view),
		Filters:          view.Values(next),
		HasActiveFilters: listquery.HasActiveFilters(next, view),
	})
}
