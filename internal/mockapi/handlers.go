package mockapi

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type pageQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	SortBy   string `form:"sort_by,default=time"`
}

type jobQuery struct {
	pageQuery
	Keyword       string   `form:"keyword"`
	Province      string   `form:"province"`
	City          string   `form:"city"`
	District      string   `form:"district"`
	Category      string   `form:"category"`
	Education     string   `form:"education"`
	ExperienceMin *int     `form:"experience_min"`
	SalaryMin     *float64 `form:"salary_min"`
	SalaryMax     *float64 `form:"salary_max"`
	Industry      string   `form:"industry"`
	Source        string   `form:"source"`
}

type campusEventQuery struct {
	pageQuery
	Keyword   string `form:"keyword"`
	City      string `form:"city"`
	School    string `form:"school"`
	Company   string `form:"company"`
	EventType string `form:"event_type"`
	Source    string `form:"source"`
}

type orderQuery struct {
	pageQuery
	Phone string `form:"phone"`
}

func page[T any](rows []T, q pageQuery) gin.H {
	// Pages past the end are empty; the check keeps huge page numbers
	// from overflowing the offset.
	start := len(rows)
	if q.Page-1 <= len(rows)/q.PageSize {
		start = min((q.Page-1)*q.PageSize, len(rows))
	}
	end := min(start+q.PageSize, len(rows))
	items := rows[start:end]
	if items == nil {
		items = []T{}
	}
	return gin.H{
		"items":     items,
		"page":      q.Page,
		"page_size": q.PageSize,
		"total":     len(rows),
	}
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (s *Server) listJobs(c *gin.Context) {
	var q jobQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, http.StatusUnprocessableEntity, CodeValidation, err.Error())
		return
	}

	s.mu.RLock()
	var rows []job
	for _, j := range s.jobs {
		switch {
		case q.Keyword != "" && !contains(j.Title, q.Keyword) && !contains(j.CompanyName, q.Keyword):
		case q.Province != "" && j.Province != q.Province:
		case q.City != "" && j.City != q.City:
		case q.Category != "" && j.Category != q.Category:
		case q.Education != "" && j.EducationRequirement != q.Education:
		case q.ExperienceMin != nil && j.ExperienceMin < *q.ExperienceMin:
		case q.SalaryMin != nil && (j.SalaryMax == nil || *j.SalaryMax < *q.SalaryMin):
		case q.SalaryMax != nil && (j.SalaryMin == nil || *j.SalaryMin > *q.SalaryMax):
		case q.Source != "" && j.SourceCode != q.Source:
		default:
			rows = append(rows, j)
		}
	}
	s.mu.RUnlock()

	if q.SortBy == "salary" {
		slices.SortStableFunc(rows, func(a, b job) int {
			return -compareFloat(a.SalaryMax, b.SalaryMax)
		})
	} else {
		slices.SortStableFunc(rows, func(a, b job) int {
			return b.PublishedAt.Compare(*a.PublishedAt)
		})
	}

	items := make([]map[string]any, len(rows))
	for i, j := range rows {
		items[i] = j.listItem()
	}
	s.ok(c, page(items, q.pageQuery), "ok")
}

func (s *Server) jobDetail(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.ID == id {
			s.ok(c, j, "ok")
			return
		}
	}
	s.fail(c, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Job not found: %d", id))
}

func (s *Server) listCampusEvents(c *gin.Context) {
	var q campusEventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, http.StatusUnprocessableEntity, CodeValidation, err.Error())
		return
	}

	s.mu.RLock()
	var rows []campusEvent
	for _, e := range s.events {
		switch {
		case q.Keyword != "" && !contains(e.Title, q.Keyword):
		case q.City != "" && e.City != q.City:
		case q.School != "" && !contains(e.SchoolName, q.School):
		case q.Company != "" && !contains(e.CompanyName, q.Company):
		case q.EventType != "" && e.EventType != q.EventType:
		case q.Source != "" && e.SourceCode != q.Source:
		default:
			rows = append(rows, e)
		}
	}
	s.mu.RUnlock()

	if q.SortBy == "recent" {
		slices.SortStableFunc(rows, func(a, b campusEvent) int {
			return b.createdAt.Compare(a.createdAt)
		})
	} else {
		slices.SortStableFunc(rows, func(a, b campusEvent) int {
			return a.StartsAt.Compare(*b.StartsAt)
		})
	}
	s.ok(c, page(rows, q.pageQuery), "ok")
}

func (s *Server) campusEventDetail(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			s.ok(c, e, "ok")
			return
		}
	}
	s.fail(c, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Campus event not found: %d", id))
}

func (s *Server) listOrders(c *gin.Context) {
	var q orderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, http.StatusUnprocessableEntity, CodeValidation, err.Error())
		return
	}

	s.mu.RLock()
	var rows []order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if q.Phone == "" || s.orders[i].Phone == q.Phone {
			rows = append(rows, s.orders[i])
		}
	}
	s.mu.RUnlock()

	s.ok(c, page(rows, q.pageQuery), "ok")
}

func (s *Server) orderDetail(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			s.ok(c, o, "ok")
			return
		}
	}
	s.fail(c, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Order not found: %d", id))
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusUnprocessableEntity, CodeValidation, err.Error())
		return
	}

	if req.TargetJobID == nil && req.TargetEventID == nil && (req.TargetCompanyName == nil || *req.TargetCompanyName == "") {
		s.fail(c, http.StatusBadRequest, CodeBadRequest, "a target job, event or company is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.TargetJobID != nil && !slices.ContainsFunc(s.jobs, func(j job) bool { return j.ID == *req.TargetJobID }) {
		s.fail(c, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("job not found: %d", *req.TargetJobID))
		return
	}
	if req.TargetEventID != nil && !slices.ContainsFunc(s.events, func(e campusEvent) bool { return e.ID == *req.TargetEventID }) {
		s.fail(c, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("campus event not found: %d", *req.TargetEventID))
		return
	}

	now := time.Now().UTC()
	o := order{
		ID:                int64(len(s.orders) + 1),
		OrderNo:           genOrderNo(now),
		UserName:          req.UserName,
		Phone:             req.Phone,
		WechatID:          req.WechatID,
		SchoolName:        req.SchoolName,
		Major:             req.Major,
		GraduationYear:    req.GraduationYear,
		ResumeURL:         req.ResumeURL,
		Status:            "created",
		DeliveryType:      req.DeliveryType,
		TargetJobID:       req.TargetJobID,
		TargetEventID:     req.TargetEventID,
		TargetCompanyName: req.TargetCompanyName,
		TargetSourceURL:   req.TargetSourceURL,
		Quantity:          1,
		Note:              req.Note,
		AmountCents:       req.AmountCents,
		Currency:          req.Currency,
		CreatedAt:         now,
	}
	if o.DeliveryType == "" {
		o.DeliveryType = "onsite_resume_delivery"
	}
	if req.Quantity != nil {
		o.Quantity = *req.Quantity
	}
	if o.Currency == "" {
		o.Currency = "CNY"
	}
	s.orders = append(s.orders, o)

	s.logger.Info().
		Int64("order_id", o.ID).
		Str("order_no", o.OrderNo).
		Msg("Order created")

	s.ok(c, gin.H{
		"id":         o.ID,
		"order_no":   o.OrderNo,
		"status":     o.Status,
		"created_at": o.CreatedAt,
	}, "order created")
}

func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, CodeValidation, fmt.Sprintf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func compareFloat(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

type countBy struct {
	name  string
	count int
}

// countRows tallies rows by name, largest group first. Ties keep name order.
func countRows(names []string, byCount bool, limit int) []countBy {
	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}
	out := make([]countBy, 0, len(counts))
	for n, c := range counts {
		out = append(out, countBy{name: n, count: c})
	}
	slices.SortFunc(out, func(a, b countBy) int {
		if byCount && a.count != b.count {
			return b.count - a.count
		}
		return strings.Compare(a.name, b.name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// basicStats counts jobs by source, city and category. City and category
// lists keep the 20 largest groups.
func (s *Server) basicStats(c *gin.Context) {
	s.mu.RLock()
	sources := make([]string, 0, len(s.jobs))
	cities := make([]string, 0, len(s.jobs))
	categories := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		sources = append(sources, j.SourceCode)
		if j.City != "" {
			cities = append(cities, j.City)
		}
		category := j.Category
		if category == "" {
			category = "unknown"
		}
		categories = append(categories, category)
	}
	s.mu.RUnlock()

	bySource := []gin.H{}
	for _, r := range countRows(sources, false, 0) {
		bySource = append(bySource, gin.H{"source": r.name, "count": r.count})
	}
	byCity := []gin.H{}
	for _, r := range countRows(cities, true, 20) {
		byCity = append(byCity, gin.H{"city": r.name, "count": r.count})
	}
	byCategory := []gin.H{}
	for _, r := range countRows(categories, true, 20) {
		byCategory = append(byCategory, gin.H{"category": r.name, "count": r.count})
	}

	s.ok(c, gin.H{
		"by_source":   bySource,
		"by_city":     byCity,
		"by_category": byCategory,
	}, "ok")
}
