package listing

import "time"

// Job is one row of the jobs list.
type Job struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	CompanyName          string     `json:"company_name"`
	City                 string     `json:"city,omitempty"`
	SalaryMin            *float64   `json:"salary_min,omitempty"`
	SalaryMax            *float64   `json:"salary_max,omitempty"`
	SalaryCurrency       string     `json:"salary_currency,omitempty"`
	SalaryPeriod         string     `json:"salary_period,omitempty"`
	EducationRequirement string     `json:"education_requirement,omitempty"`
	PublishedAt          *time.Time `json:"published_at,omitempty"`
	SourceCode           string     `json:"source_code"`
}

// JobDetail is the full job record.
type JobDetail struct {
	Job
	SourceURL        string   `json:"source_url"`
	JobCategory      string   `json:"job_category,omitempty"`
	Seniority        string   `json:"seniority,omitempty"`
	Responsibilities string   `json:"responsibilities,omitempty"`
	Qualifications   string   `json:"qualifications,omitempty"`
	Tags             []string `json:"tags"`
	Benefits         []string `json:"benefits"`
}

// CampusEvent is one row of the campus events list.
type CampusEvent struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	CompanyName string     `json:"company_name,omitempty"`
	SchoolName  string     `json:"school_name,omitempty"`
	City        string     `json:"city,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EventType   string     `json:"event_type"`
	EventStatus string     `json:"event_status"`
	SourceCode  string     `json:"source_code"`
	SourceURL   string     `json:"source_url"`
}

// CampusEventDetail is the full campus event record.
type CampusEventDetail struct {
	CampusEvent
	Province        string     `json:"province,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	Description     string     `json:"description,omitempty"`
	Tags            []string   `json:"tags"`
	RegistrationURL string     `json:"registration_url,omitempty"`
}

// Order is one row of the order list.
type Order struct {
	ID                int64     `json:"id"`
	OrderNo           string    `json:"order_no"`
	UserName          string    `json:"user_name"`
	Phone             string    `json:"phone"`
	Status            string    `json:"status"`
	DeliveryType      string    `json:"delivery_type"`
	TargetJobID       *int64    `json:"target_job_id,omitempty"`
	TargetEventID     *int64    `json:"target_event_id,omitempty"`
	TargetCompanyName string    `json:"target_company_name,omitempty"`
	AmountCents       *int64    `json:"amount_cents,omitempty"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}

// OrderDetail is the full order record.
type OrderDetail struct {
	Order
	WechatID        string `json:"wechat_id,omitempty"`
	SchoolName      string `json:"school_name,omitempty"`
	Major           string `json:"major,omitempty"`
	GraduationYear  *int   `json:"graduation_year,omitempty"`
	ResumeURL       string `json:"resume_url,omitempty"`
	TargetSourceURL string `json:"target_source_url,omitempty"`
	Quantity        int    `json:"quantity"`
	Note            string `json:"note,omitempty"`
}

// CreateOrderRequest is the body of an order submission.
type CreateOrderRequest struct {
	UserName       string `json:"user_name"`
	Phone          string `json:"phone"`
	WechatID       string `json:"wechat_id,omitempty"`
	SchoolName     string `json:"school_name,omitempty"`
	Major          string `json:"major,omitempty"`
	GraduationYear *int   `json:"graduation_year,omitempty"`
	ResumeURL      string `json:"resume_url,omitempty"`

	TargetJobID       *int64 `json:"target_job_id,omitempty"`
	TargetEventID     *int64 `json:"target_event_id,omitempty"`
	TargetCompanyName string `json:"target_company_name,omitempty"`
	TargetSourceURL   string `json:"target_source_url,omitempty"`

	DeliveryType string `json:"delivery_type,omitempty"`
	Quantity     int    `json:"quantity,omitempty"`
	Note         string `json:"note,omitempty"`
	AmountCents  *int64 `json:"amount_cents,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// CreatedOrder is returned by a successful order submission.
type CreatedOrder struct {
	ID        int64     `json:"id"`
	OrderNo   string    `json:"order_no"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CountBySource is the number of jobs one source contributed.
type CountBySource struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// CountByCity is the number of jobs in one city. City is empty when the
// server reports jobs without a location.
type CountByCity struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// CountByCategory is the number of jobs in one category.
type CountByCategory struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// BasicStats summarizes the jobs the aggregator holds.
type BasicStats struct {
	BySource   []CountBySource   `json:"by_source"`
	ByCity     []CountByCity     `json:"by_city"`
	ByCategory []CountByCategory `json:"by_category"`
}
