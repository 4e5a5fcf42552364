package listing

import "github.com/pirate-pro/get-resume-direction/pkg/query"

// API endpoints.
const (
	EndpointJobs         = "/api/v1/jobs"
	EndpointCampusEvents = "/api/v1/campus-events"
	EndpointOrders       = "/api/v1/orders"
	EndpointStats        = "/api/v1/stats/basic"
)

// Sort orders accepted by the list endpoints.
const (
	SortTime      = "time"
	SortSalary    = "salary"
	SortRelevance = "relevance"
	SortRecent    = "recent"
)

// JobsSchema describes the jobs list query.
func JobsSchema(pageSize, maxPageSize int) query.Schema {
	return query.Schema{
		Endpoint: EndpointJobs,
		Fields: []query.Field{
			{Name: "keyword", Kind: query.KindString, Debounced: true},
			{Name: "province", Kind: query.KindString},
			{Name: "city", Kind: query.KindString},
			{Name: "district", Kind: query.KindString},
			{Name: "category", Kind: query.KindString},
			{Name: "education", Kind: query.KindString},
			{Name: "experience_min", Kind: query.KindInt},
			{Name: "salary_min", Kind: query.KindFloat},
			{Name: "salary_max", Kind: query.KindFloat},
			{Name: "industry", Kind: query.KindString},
			{Name: "source", Kind: query.KindString},
		},
		SortOptions:     []string{SortTime, SortSalary, SortRelevance},
		DefaultSort:     SortTime,
		DefaultPageSize: pageSize,
		MaxPageSize:     maxPageSize,
	}
}

// CampusEventsSchema describes the campus events list query.
func CampusEventsSchema(pageSize, maxPageSize int) query.Schema {
	return query.Schema{
		Endpoint: EndpointCampusEvents,
		Fields: []query.Field{
			{Name: "keyword", Kind: query.KindString, Debounced: true},
			{Name: "city", Kind: query.KindString},
			{Name: "school", Kind: query.KindString},
			{Name: "company", Kind: query.KindString},
			{Name: "event_type", Kind: query.KindString},
			{Name: "source", Kind: query.KindString},
		},
		SortOptions:     []string{SortTime, SortRecent},
		DefaultSort:     SortTime,
		DefaultPageSize: pageSize,
		MaxPageSize:     maxPageSize,
	}
}

// OrdersSchema describes the order list query. Orders are unsorted and
// filtered by phone number only.
func OrdersSchema(pageSize, maxPageSize int) query.Schema {
	return query.Schema{
		Endpoint: EndpointOrders,
		Fields: []query.Field{
			{Name: "phone", Kind: query.KindString, Debounced: true},
		},
		DefaultPageSize: pageSize,
		MaxPageSize:     maxPageSize,
	}
}
