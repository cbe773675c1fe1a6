package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
	"github.com/fillipgms/admin-playfiver-sub001/internal/listquery"
	"github.com/fillipgms/admin-playfiver-sub001/internal/remote"

	"github.com/sirupsen/logrus"
)

// ListService backs the dashboard's list views and landing metrics.
type ListService struct {
	api    PlatformAPI
	logger *logrus.Logger
}

func NewListService(api PlatformAPI, logger *logrus.Logger) *ListService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ListService{api: api, logger: logger}
}

type ListResult struct {
	View             string               `json:"view" yaml:"view"`
	Query            string               `json:"query" yaml:"query"`
	Items            []json.RawMessage    `json:"items" yaml:"-"`
	Pagination       listquery.Pagination `json:"pagination" yaml:"pagination"`
	Filters          map[string]string    `json:"filters" yaml:"filters"`
	HasActiveFilters bool                 `json:"has_active_filters" yaml:"has_active_filters"`
}

// Fetch loads the page of viewName selected by query.
func (s *ListService) Fetch(ctx context.Context, session *entity.Session, viewName string, query url.Values) (*ListResult, error) {
	view, ok := listquery.Lookup(viewName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, viewName)
	}

	page, err := s.api.List(ctx, tokenOf(session), view.Resource, view.RemoteParams(query))
	if err != nil {
		return nil, s.platformError(err)
	}
	s.logger.WithFields(logrus.Fields{
		"view":  view.Name,
		"page":  page.CurrentPage,
		"items": len(page.Data),
	}).Debug("list fetched")

	items := page.Data
	if items == nil {
		items = []json.RawMessage{}
	}
	return &ListResult{
		View:             view.Name,
		Query:            query.Encode(),
		Items:            items,
		Pagination:       listquery.PaginationFromPage(page),
		Filters:          view.Values(query),
		HasActiveFilters: listquery.HasActiveFilters(query, view),
	}, nil
}

// Mutate applies a filter patch, or clears the view's filters, and returns
// the new query parameters.
func (s *ListService) Mutate(viewName string, query url.Values, patch listquery.Patch, clear bool) (url.Values, listquery.View, error) {
	view, ok := listquery.Lookup(viewName)
	if !ok {
		return nil, listquery.View{}, fmt.Errorf("%w: %s", ErrUnknownView, viewName)
	}
	if clear {
		return listquery.Clear(query, view), view, nil
	}
	if err := checkPatch(view, patch); err != nil {
		return nil, view, err
	}
	return listquery.Apply(query, view, patch), view, nil
}

// checkPatch rejects keys the view has no filter for, so a typo is reported
// instead of leaving the query untouched.
func checkPatch(view listquery.View, patch listquery.Patch) error {
	fields := map[string]string{}
	for name := range patch {
		if !view.Accepts(name) {
			fields[name] = "is not a filter of " + view.Name
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *ListService) Dashboard(ctx context.Context, session *entity.Session) (*remote.DashboardMetrics, error) {
	metrics, err := s.api.Dashboard(ctx, tokenOf(session))
	if err != nil {
		return nil, s.platformError(err)
	}
	return metrics, nil
}

func (s *ListService) platformError(err error) error {
	switch {
	case errors.Is(err, remote.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	case errors.Is(err, remote.ErrUnexpectedResponse):
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	case remote.IsUnauthorized(err):
		return fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}
	return err
}
