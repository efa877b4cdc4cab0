package services

import (
	"strconv"
	"strings"
)

// Pagination describes one page of a result set.
type Pagination struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Offset returns the number of rows preceding the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// paginate resolves the requested page against the total row count. A page
// that is not an integer selects the first page and one outside the valid
// range selects the last. An empty result still has a single page.
func paginate(total int64, perPage int, requested string) Pagination {
	if perPage <= 0 {
		perPage = 1
	}

	totalPages := 1
	if total > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	page := 1
	if value := strings.TrimSpace(requested); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			page = n
			if page < 1 || page > totalPages {
				page = totalPages
			}
		}
	}

	return Pagination{
		Page:        page,
		PerPage:     perPage,
		Total:       int(total),
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
