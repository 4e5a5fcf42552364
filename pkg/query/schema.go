package query

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// FieldKind is the value type of a filter field.
type FieldKind int

const (
	// KindString is a free-form string filter.
	KindString FieldKind = iota

	// KindInt is an integer filter (e.g. experience_min).
	KindInt

	// KindFloat is a decimal filter (e.g. salary_min).
	KindFloat
)

// Field describes one optional filter.
type Field struct {
	Name string
	Kind FieldKind

	// Debounced marks free-text fields whose changes are delayed by the
	// list orchestrator before they reach the cache.
	Debounced bool
}

// Schema describes the query parameters accepted by one list endpoint.
type Schema struct {
	// Endpoint is the API path (e.g. "/api/v1/jobs").
	Endpoint string

	Fields []Field

	// SortOptions is the sort_by enum. Empty means the endpoint is unsorted
	// and sort_by is never read or written.
	SortOptions []string
	DefaultSort string

	DefaultPageSize int
	MaxPageSize     int
}

// Field returns the named field definition.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) defaultPageSize() int {
	if s.DefaultPageSize > 0 {
		return min(s.DefaultPageSize, s.maxPageSize())
	}
	return min(DefaultPageSize, s.maxPageSize())
}

func (s Schema) maxPageSize() int {
	if s.MaxPageSize > 0 {
		return s.MaxPageSize
	}
	return MaxPageSize
}

func (s Schema) defaultSort() string {
	if len(s.SortOptions) == 0 {
		return ""
	}
	if s.DefaultSort != "" && slices.Contains(s.SortOptions, s.DefaultSort) {
		return s.DefaultSort
	}
	if slices.Contains(s.SortOptions, DefaultSort) {
		return DefaultSort
	}
	return s.SortOptions[0]
}

// Defaults returns page 1 with every optional field cleared.
func (s Schema) Defaults() Params {
	return Params{
		Page:     DefaultPage,
		PageSize: s.defaultPageSize(),
		SortBy:   s.defaultSort(),
		Filters:  map[string]string{},
	}
}

// Decode parses a raw query string. It never fails: malformed numbers are
// dropped, unknown sort keys and invalid paging values fall back to their
// defaults and page_size is capped at the schema maximum.
func (s Schema) Decode(raw string) Params {
	raw = strings.TrimPrefix(raw, "?")
	values, err := url.ParseQuery(raw)
	if err != nil {
		// ParseQuery keeps every pair it could parse alongside the first error.
		values = lenientParse(raw, values)
	}

	p := s.Defaults()
	if n, ok := positiveInt(values.Get(ParamPage)); ok {
		p.Page = n
	}
	if n, ok := positiveInt(values.Get(ParamPageSize)); ok {
		p.PageSize = min(n, s.maxPageSize())
	}
	if sort := strings.TrimSpace(values.Get(ParamSortBy)); sort != "" && slices.Contains(s.SortOptions, sort) {
		p.SortBy = sort
	}

	for _, f := range s.Fields {
		if v, ok := canonical(f.Kind, values.Get(f.Name)); ok {
			p.Filters[f.Name] = v
		}
	}
	return p
}

// Encode renders Params as a canonical query string with a leading "?".
// Empty and default-valued fields are omitted; "" is returned when nothing
// remains.
func (s Schema) Encode(p Params) string {
	p = s.Normalize(p)
	values := url.Values{}
	defaults := s.Defaults()

	if p.Page != defaults.Page {
		values.Set(ParamPage, strconv.Itoa(p.Page))
	}
	if p.PageSize != defaults.PageSize {
		values.Set(ParamPageSize, strconv.Itoa(p.PageSize))
	}
	if p.SortBy != defaults.SortBy {
		values.Set(ParamSortBy, p.SortBy)
	}
	for name, v := range p.Filters {
		values.Set(name, v)
	}

	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// Normalize applies defaults and canonical forms: it is what Decode would
// produce for the encoded form of p.
func (s Schema) Normalize(p Params) Params {
	out := s.Defaults()
	if p.Page > 0 {
		out.Page = p.Page
	}
	if p.PageSize > 0 {
		out.PageSize = min(p.PageSize, s.maxPageSize())
	}
	if p.SortBy != "" && slices.Contains(s.SortOptions, p.SortBy) {
		out.SortBy = p.SortBy
	}
	for _, f := range s.Fields {
		if v, ok := canonical(f.Kind, p.Filters[f.Name]); ok {
			out.Filters[f.Name] = v
		}
	}
	return out
}

// Equivalent reports whether a and b encode to the same canonical URL.
func (s Schema) Equivalent(a, b Params) bool {
	return s.Encode(a) == s.Encode(b)
}

// Values returns the full request query for the backend, including paging
// defaults that Encode leaves out of shareable URLs.
func (s Schema) Values(p Params) url.Values {
	p = s.Normalize(p)
	values := url.Values{}
	values.Set(ParamPage, strconv.Itoa(p.Page))
	values.Set(ParamPageSize, strconv.Itoa(p.PageSize))
	if p.SortBy != "" {
		values.Set(ParamSortBy, p.SortBy)
	}
	for name, v := range p.Filters {
		values.Set(name, v)
	}
	return values
}

func canonical(kind FieldKind, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	switch kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", false
		}
		return strconv.Itoa(n), true
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	default:
		return raw, true
	}
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// lenientParse recovers pairs with bad escapes by keeping the raw text.
func lenientParse(raw string, parsed url.Values) url.Values {
	if parsed == nil {
		parsed = url.Values{}
	}
	for _, pair := range strings.Split(raw, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key == "" || parsed.Has(key) {
			continue
		}
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		parsed.Set(key, value)
	}
	return parsed
}
