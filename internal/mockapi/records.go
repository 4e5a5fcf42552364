package mockapi

import (
	"fmt"
	"time"
)

// job is the backend's job row.
type job struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	CompanyName          string     `json:"company_name"`
	Province             string     `json:"-"`
	City                 string     `json:"city,omitempty"`
	Category             string     `json:"job_category,omitempty"`
	SalaryMin            *float64   `json:"salary_min,omitempty"`
	SalaryMax            *float64   `json:"salary_max,omitempty"`
	SalaryCurrency       string     `json:"salary_currency,omitempty"`
	SalaryPeriod         string     `json:"salary_period,omitempty"`
	EducationRequirement string     `json:"education_requirement,omitempty"`
	ExperienceMin        int        `json:"-"`
	PublishedAt          *time.Time `json:"published_at,omitempty"`
	SourceCode           string     `json:"source_code"`
	SourceURL            string     `json:"source_url"`
	Responsibilities     string     `json:"responsibilities,omitempty"`
	Tags                 []string   `json:"tags"`
}

// listItem drops the detail-only fields.
func (j job) listItem() map[string]any {
	item := map[string]any{
		"id":           j.ID,
		"title":        j.Title,
		"company_name": j.CompanyName,
		"city":         j.City,
		"source_code":  j.SourceCode,
	}
	if j.SalaryMin != nil {
		item["salary_min"] = *j.SalaryMin
	}
	if j.SalaryMax != nil {
		item["salary_max"] = *j.SalaryMax
	}
	if j.SalaryCurrency != "" {
		item["salary_currency"] = j.SalaryCurrency
		item["salary_period"] = j.SalaryPeriod
	}
	if j.EducationRequirement != "" {
		item["education_requirement"] = j.EducationRequirement
	}
	if j.PublishedAt != nil {
		item["published_at"] = j.PublishedAt
	}
	return item
}

// campusEvent is the backend's campus event row.
type campusEvent struct {
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
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags"`
	createdAt   time.Time
}

// order is the backend's service order row.
type order struct {
	ID                int64     `json:"id"`
	OrderNo           string    `json:"order_no"`
	UserName          string    `json:"user_name"`
	Phone             string    `json:"phone"`
	WechatID          *string   `json:"wechat_id,omitempty"`
	SchoolName        *string   `json:"school_name,omitempty"`
	Major             *string   `json:"major,omitempty"`
	GraduationYear    *int      `json:"graduation_year,omitempty"`
	ResumeURL         *string   `json:"resume_url,omitempty"`
	Status            string    `json:"status"`
	DeliveryType      string    `json:"delivery_type"`
	TargetJobID       *int64    `json:"target_job_id,omitempty"`
	TargetEventID     *int64    `json:"target_event_id,omitempty"`
	TargetCompanyName *string   `json:"target_company_name,omitempty"`
	TargetSourceURL   *string   `json:"target_source_url,omitempty"`
	Quantity          int       `json:"quantity"`
	Note              *string   `json:"note,omitempty"`
	AmountCents       *int64    `json:"amount_cents,omitempty"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}

// createOrderRequest mirrors the backend's request validation.
type createOrderRequest struct {
	UserName          string  `json:"user_name" binding:"required,min=1,max=64"`
	Phone             string  `json:"phone" binding:"required,min=6,max=32"`
	WechatID          *string `json:"wechat_id" binding:"omitempty,max=64"`
	SchoolName        *string `json:"school_name" binding:"omitempty,max=255"`
	Major             *string `json:"major" binding:"omitempty,max=128"`
	GraduationYear    *int    `json:"graduation_year"`
	ResumeURL         *string `json:"resume_url" binding:"omitempty,max=1024"`
	TargetJobID       *int64  `json:"target_job_id"`
	TargetEventID     *int64  `json:"target_event_id"`
	TargetCompanyName *string `json:"target_company_name" binding:"omitempty,max=255"`
	TargetSourceURL   *string `json:"target_source_url" binding:"omitempty,max=1024"`
	DeliveryType      string  `json:"delivery_type"`
	Quantity          *int    `json:"quantity" binding:"omitempty,min=1,max=20"`
	Note              *string `json:"note"`
	AmountCents       *int64  `json:"amount_cents" binding:"omitempty,min=0"`
	Currency          string  `json:"currency" binding:"omitempty,max=8"`
}

var (
	seedCities    = []string{"Shenzhen", "Beijing", "Shanghai", "Hangzhou"}
	seedProvinces = map[string]string{"Shenzhen": "Guangdong", "Beijing": "Beijing", "Shanghai": "Shanghai", "Hangzhou": "Zhejiang"}
	seedTitles    = []string{"Go Engineer", "Backend Developer", "Data Analyst", "Product Manager", "QA Engineer"}
	seedCategory  = []string{"engineering", "engineering", "data", "product", ""}
	seedCompanies = []string{"Tencent", "ByteDance", "Alibaba", "Meituan", "DJI"}
	seedSources   = []string{"zhaopin_public", "job51_public", "iguopin_jobs"}
	seedEducation = []string{"bachelor", "master", "college"}
	seedSchools   = []string{"Tsinghua University", "Fudan University", "Zhejiang University", "Shenzhen University"}
	seedEvents    = []string{"campus_talk", "job_fair", "online_talk"}
)

// seedJobs generates n deterministic jobs, newest first by ID.
func seedJobs(n int, now time.Time) []job {
	jobs := make([]job, 0, n)
	for i := 1; i <= n; i++ {
		city := seedCities[i%len(seedCities)]
		published := now.Add(-time.Duration(i) * time.Hour)
		salaryMin := float64(8000 + (i%10)*1000)
		salaryMax := salaryMin + 6000
		jobs = append(jobs, job{
			ID:                   int64(i),
			Title:                fmt.Sprintf("%s %d", seedTitles[i%len(seedTitles)], i),
			CompanyName:          seedCompanies[i%len(seedCompanies)],
			Province:             seedProvinces[city],
			City:                 city,
			Category:             seedCategory[i%len(seedTitles)],
			SalaryMin:            &salaryMin,
			SalaryMax:            &salaryMax,
			SalaryCurrency:       "CNY",
			SalaryPeriod:         "month",
			EducationRequirement: seedEducation[i%len(seedEducation)],
			ExperienceMin:        i % 6,
			PublishedAt:          &published,
			SourceCode:           seedSources[i%len(seedSources)],
			SourceURL:            fmt.Sprintf("https://jobs.example.com/%d", i),
			Responsibilities:     "Build and operate services.",
			Tags:                 []string{"full-time"},
		})
	}
	return jobs
}

// seedCampusEvents generates n deterministic campus events.
func seedCampusEvents(n int, now time.Time) []campusEvent {
	events := make([]campusEvent, 0, n)
	for i := 1; i <= n; i++ {
		starts := now.Add(time.Duration(i) * 24 * time.Hour)
		events = append(events, campusEvent{
			ID:          int64(i),
			Title:       fmt.Sprintf("%s campus session %d", seedCompanies[i%len(seedCompanies)], i),
			CompanyName: seedCompanies[i%len(seedCompanies)],
			SchoolName:  seedSchools[i%len(seedSchools)],
			City:        seedCities[i%len(seedCities)],
			Venue:       fmt.Sprintf("Hall %d", i%7+1),
			StartsAt:    &starts,
			EventType:   seedEvents[i%len(seedEvents)],
			EventStatus: "scheduled",
			SourceCode:  "iguopin_campus",
			SourceURL:   fmt.Sprintf("https://campus.example.com/%d", i),
			Tags:        []string{},
			createdAt:   now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return events
}
