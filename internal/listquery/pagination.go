package listquery

import "github.com/fillipgms/admin-playfiver-sub001/internal/remote"

// Pagination is what a list view needs to draw its pager. HasNextPage and
// HasPrevPage echo the platform's next/prev links rather than page
// arithmetic, since the two disagree on some boundary pages.
type Pagination struct {
	CurrentPage int  `json:"current_page" yaml:"current_page"`
	LastPage    int  `json:"last_page" yaml:"last_page"`
	Total       int  `json:"total" yaml:"total"`
	HasNextPage bool `json:"has_next_page" yaml:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page" yaml:"has_prev_page"`
}

func PaginationFromPage(page *remote.Page) Pagination {
	if page == nil {
		return Pagination{CurrentPage: 1, LastPage: 1}
	}
	return Pagination{
		CurrentPage: page.CurrentPage,
		LastPage:    page.LastPage,
		Total:       page.Total,
		HasNextPage: present(page.NextPageURL),
		HasPrevPage: present(page.PrevPageURL),
	}
}

func present(link *string) bool {
	return link != nil && *link != ""
}
