package pagination

// Page is one page of a list endpoint response.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// Meta carries the pagination fields of a page without its items.
type Meta struct {
	Page     int
	PageSize int
	Total    int
}

// Meta returns the pagination fields of p.
func (p *Page[T]) Meta() Meta {
	return Meta{Page: p.Page, PageSize: p.PageSize, Total: p.Total}
}

// TotalPages returns ceil(Total / PageSize), the last valid page number.
func (m Meta) TotalPages() int {
	if m.PageSize <= 0 || m.Total <= 0 {
		return 0
	}
	return (m.Total-1)/m.PageSize + 1
}

// HasNext reports whether a page follows m.Page.
func (m Meta) HasNext() bool {
	return m.Page+1 <= m.TotalPages()
}
