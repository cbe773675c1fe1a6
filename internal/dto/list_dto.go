package dto

import (
	"github.com/fillipgms/admin-playfiver-sub001/internal/listquery"
)

// ListQueryRequest mutates a view's query string. Query is the current
// query string without the leading '?'.
type ListQueryRequest struct {
	Query string                           `json:"query"`
	Patch map[string]listquery.FilterValue `json:"patch"`
	Clear bool                             `json:"clear"`
}

type ListQueryResponse struct {
	Query            string            `json:"query"`
	Page             int               `json:"page"`
	Filters          map[string]string `json:"filters"`
	HasActiveFilters bool              `json:"has_active_filters"`
}
