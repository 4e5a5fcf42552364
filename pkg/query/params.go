// Package query maps list view state to and from URL query strings.
//
// A Schema describes one list endpoint: its filter fields, the sort enum and
// the paging bounds. Decode never fails: malformed or out-of-range input is
// degraded to defaults so that a broken link still renders a usable page.
// Encode is canonical: empty and default-valued fields are omitted and the
// remaining pairs are sorted, so two equivalent states always share one URL.
package query

import (
	"maps"
	"strconv"
)

// Reserved parameter names shared by every list endpoint.
const (
	ParamPage     = "page"
	ParamPageSize = "page_size"
	ParamSortBy   = "sort_by"
)

// Paging defaults used when a Schema leaves them unset.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultSort     = "time"
)

// Params is the decoded state of one list view.
type Params struct {
	Page     int
	PageSize int
	SortBy   string

	// Filters holds canonical string forms keyed by field name.
	// Numeric fields are stored the way strconv formats them.
	Filters map[string]string
}

// Get returns a filter value and whether it is set.
func (p Params) Get(name string) (string, bool) {
	v, ok := p.Filters[name]
	return v, ok && v != ""
}

// Int returns an integer filter value.
func (p Params) Int(name string) (int, bool) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float returns a float filter value.
func (p Params) Float(name string) (float64, bool) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := p
	out.Filters = maps.Clone(p.Filters)
	if out.Filters == nil {
		out.Filters = map[string]string{}
	}
	return out
}

// With returns a copy with one filter set. An empty value clears the filter.
func (p Params) With(name, value string) Params {
	out := p.Clone()
	if value == "" {
		delete(out.Filters, name)
	} else {
		out.Filters[name] = value
	}
	return out
}

// WithPage returns a copy pointing at another page.
func (p Params) WithPage(page int) Params {
	out := p.Clone()
	out.Page = page
	return out
}

// Equal reports whether two Params hold identical values.
// Use Schema.Equivalent to compare un-normalized input.
func (p Params) Equal(o Params) bool {
	if p.Page != o.Page || p.PageSize != o.PageSize || p.SortBy != o.SortBy {
		return false
	}
	if len(p.Filters) != len(o.Filters) {
		return false
	}
	for k, v := range p.Filters {
		if ov, ok := o.Filters[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
