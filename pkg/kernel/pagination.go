package kernel

// PaginationOptions carries page-based pagination parameters.
type PaginationOptions struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize clamps pagination parameters to sane defaults.
func (p PaginationOptions) Normalize() PaginationOptions {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset returns the row offset for the current page.
func (p PaginationOptions) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageInfo describes the page a Paginated result represents.
type PageInfo struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
}

// Paginated wraps a page of items with its page metadata.
type Paginated[T any] struct {
	Items []T      `json:"items"`
	Page  PageInfo `json:"page"`
}

// NewPaginated builds a Paginated result from a page of items and its counts.
func NewPaginated[T any](items []T, page, pageSize, total int) Paginated[T] {
	return Paginated[T]{
		Items: items,
		Page: PageInfo{
			Number: page,
			Size:   pageSize,
			Total:  total,
		},
	}
}
