package pagination

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/underwriter/pkg/query"
)

// PageRequest is a 1-based page window with optional free-text search and
// ordering (for example "-CreatedAt,Name").
type PageRequest struct {
	Page     int
	PageSize int
	Search   *string
	Sort     []query.SortField
}

// Normalize forces Page to at least 1 and clamps PageSize to cfg.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	r.PageSize = cfg.Clamp(r.PageSize)
}

func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery reads page, page_size, search and sort. Unparseable
// numbers fall back to the defaults.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	req := PageRequest{Sort: query.ParseSortFields(values.Get("sort"))}
	req.Page, _ = strconv.Atoi(values.Get("page"))
	req.PageSize, _ = strconv.Atoi(values.Get("page_size"))

	if s := values.Get("search"); s != "" {
		req.Search = &s
	}

	req.Normalize(cfg)
	return req
}

// PageResult is one page of T plus the totals needed to walk the rest.
type PageResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPageResult never returns a nil Data slice and reports at least one page.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	if data == nil {
		data = []T{}
	}

	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
