package domain

// PageRequest 1-based page request
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Normalize page >= 1 and pageSize clamped to [min, max]
func (p PageRequest) Normalize(min, max int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < min {
		p.PageSize = min
	}
	if max > 0 && p.PageSize > max {
		p.PageSize = max
	}
	return p
}

// Offset rows to skip
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Page paginated result
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
}

// NewPage build a page, totalPages = ceil(total / pageSize)
func NewPage[T any](data []T, req PageRequest, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if req.PageSize > 0 {
		pages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	return Page[T]{
		Data:        data,
		CurrentPage: req.Page,
		PageSize:    req.PageSize,
		TotalPages:  pages,
		TotalCount:  total,
	}
}
