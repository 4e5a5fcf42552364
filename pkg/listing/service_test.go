package listing

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pirate-pro/get-resume-direction/internal/mockapi"
	"github.com/pirate-pro/get-resume-direction/pkg/cache"
	"github.com/pirate-pro/get-resume-direction/pkg/client"
	"github.com/pirate-pro/get-resume-direction/pkg/listview"
	"github.com/pirate-pro/get-resume-direction/pkg/pagination"
	"github.com/pirate-pro/get-resume-direction/pkg/query"
)

func setupService(t *testing.T) (*Service, *mockapi.Server) {
	t.Helper()

	api := mockapi.New(mockapi.DefaultConfig()).Start()
	t.Cleanup(api.Close)

	c, err := client.New(client.DefaultConfig(api.URL()))
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	qc := cache.New(cache.Config{StaleTime: time.Minute, GCTime: time.Minute})
	t.Cleanup(qc.Close)

	svc, err := New(Config{
		Client:      c,
		Cache:       qc,
		Prefetcher:  pagination.NewPrefetcher(qc, pagination.DefaultPrefetcherConfig()),
		QuietPeriod: 20 * time.Millisecond,
		Batch:       pagination.DefaultBatchConfig(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc, api
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNew_Validation(t *testing.T) {
	c, _ := client.New(client.DefaultConfig("http://localhost:8000"))
	qc := cache.New(cache.DefaultConfig())
	defer qc.Close()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing client", Config{Cache: qc}},
		{"missing cache", Config{Client: c}},
		{"page size above max", Config{Client: c, Cache: qc, PageSize: 50, MaxPageSize: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestService_Schema(t *testing.T) {
	svc, _ := setupService(t)

	for _, list := range []List{ListJobs, ListCampusEvents, ListOrders} {
		schema, err := svc.Schema(list)
		if err != nil {
			t.Errorf("Schema(%s) error = %v", list, err)
		}
		if schema.DefaultPageSize != 20 || schema.MaxPageSize != 100 {
			t.Errorf("Schema(%s) paging = %d/%d", list, schema.DefaultPageSize, schema.MaxPageSize)
		}
	}
	if _, err := svc.Schema("companies"); err == nil {
		t.Error("Schema() accepted an unknown list")
	}
}

func TestService_JobsView(t *testing.T) {
	svc, api := setupService(t)

	loc := listview.NewMemoryLocation("/jobs?city=Shenzhen&sort_by=salary")
	view, err := svc.Jobs(loc)
	if err != nil {
		t.Fatal(err)
	}
	defer view.Close()
	view.Sync()

	waitFor(t, func() bool { return view.View().State == listview.StateSuccess })
	v := view.View()
	if v.Data.Total != 30 || len(v.Data.Items) != 20 {
		t.Fatalf("page = total %d, %d items", v.Data.Total, len(v.Data.Items))
	}
	for _, job := range v.Data.Items {
		if job.City != "Shenzhen" {
			t.Errorf("job %d city = %q", job.ID, job.City)
		}
	}
	if q := api.LastQuery(EndpointJobs); q.Get("sort_by") != "salary" || q.Get("page_size") != "20" {
		t.Errorf("request query = %v", q)
	}

	// Page 2 of 2 is prefetched once page 1 is shown.
	waitFor(t, func() bool { return api.RequestCount(EndpointJobs) == 2 })
	view.GoToPage(2)
	waitFor(t, func() bool {
		v := view.View()
		return v.State == listview.StateSuccess && v.Data.Page == 2
	})
	if n := api.RequestCount(EndpointJobs); n != 2 {
		t.Errorf("jobs requests = %d, want 2", n)
	}
	if got := loc.String(); got != "/jobs?city=Shenzhen&page=2&sort_by=salary" {
		t.Errorf("location = %q", got)
	}
}

func TestService_CampusEventsView(t *testing.T) {
	svc, _ := setupService(t)

	view, err := svc.CampusEvents(listview.NewMemoryLocation("/campus-events?sort_by=recent&page=3"))
	if err != nil {
		t.Fatal(err)
	}
	defer view.Close()
	view.Sync()

	waitFor(t, func() bool { return view.View().State == listview.StateSuccess })
	v := view.View()
	if v.Data.Page != 3 || v.Data.Total != 45 || len(v.Data.Items) != 5 {
		t.Errorf("page = %d total %d items %d", v.Data.Page, v.Data.Total, len(v.Data.Items))
	}
}

func TestService_ErrorSurfacesOnView(t *testing.T) {
	svc, api := setupService(t)
	api.SetFailure(EndpointJobs, mockapi.Failure{StatusCode: http.StatusOK, Code: 10001, Message: "maintenance"})

	view, _ := svc.Jobs(listview.NewMemoryLocation("/jobs"))
	defer view.Close()
	view.Sync()

	waitFor(t, func() bool { return view.View().IsError })
	apiErr, ok := client.AsAPIError(view.View().Err)
	if !ok || apiErr.Class != client.ErrorClassApplication || apiErr.Code != 10001 {
		t.Errorf("Err = %v", view.View().Err)
	}
}

func TestService_DetailIsCached(t *testing.T) {
	svc, api := setupService(t)
	ctx := context.Background()

	job, err := svc.JobDetail(ctx, 7)
	if err != nil {
		t.Fatalf("JobDetail() error = %v", err)
	}
	if job.ID != 7 || job.SourceURL == "" {
		t.Errorf("job = %+v", job)
	}
	if _, err := svc.JobDetail(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if n := api.RequestCount("/api/v1/jobs/7"); n != 1 {
		t.Errorf("detail requests = %d, want 1", n)
	}

	event, err := svc.CampusEventDetail(ctx, 3)
	if err != nil || event.ID != 3 {
		t.Errorf("CampusEventDetail() = %+v, %v", event, err)
	}

	_, err = svc.OrderDetail(ctx, 99)
	apiErr, ok := client.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != mockapi.CodeNotFound {
		t.Errorf("OrderDetail() error = %v", err)
	}
}

func TestService_BasicStats(t *testing.T) {
	svc, api := setupService(t)
	ctx := context.Background()

	stats, err := svc.BasicStats(ctx)
	if err != nil {
		t.Fatalf("BasicStats() error = %v", err)
	}

	sources := 0
	for _, s := range stats.BySource {
		sources += s.Count
	}
	if len(stats.BySource) != 3 || sources != 120 {
		t.Errorf("by_source = %+v, want 3 sources covering 120 jobs", stats.BySource)
	}
	if len(stats.ByCity) != 4 || stats.ByCity[0].Count != 30 {
		t.Errorf("by_city = %+v", stats.ByCity)
	}
	if len(stats.ByCategory) == 0 || stats.ByCategory[0] != (CountByCategory{Category: "engineering", Count: 48}) {
		t.Errorf("by_category = %+v", stats.ByCategory)
	}

	if _, err := svc.BasicStats(ctx); err != nil {
		t.Fatal(err)
	}
	if n := api.RequestCount(EndpointStats); n != 1 {
		t.Errorf("stats requests = %d, want 1", n)
	}
}

func TestService_CreateOrder(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	view, _ := svc.Orders(listview.NewMemoryLocation("/orders?phone=13800000000"))
	defer view.Close()
	view.Sync()
	waitFor(t, func() bool { return view.View().State == listview.StateSuccess })
	if total := view.View().Data.Total; total != 0 {
		t.Fatalf("initial orders = %d", total)
	}

	jobID := int64(3)
	created, err := svc.CreateOrder(ctx, CreateOrderRequest{
		UserName:    "Li Lei",
		Phone:       "13800000000",
		TargetJobID: &jobID,
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if created.Status != "created" || !strings.HasPrefix(created.OrderNo, "ODR") {
		t.Errorf("created = %+v", created)
	}

	// The subscribed order list refetches after the confirmed write.
	waitFor(t, func() bool {
		v := view.View()
		return v.State == listview.StateSuccess && v.Data.Total == 1
	})
	order := view.View().Data.Items[0]
	if order.DeliveryType != DefaultDeliveryType || order.Currency != DefaultCurrency {
		t.Errorf("order defaults = %+v", order)
	}

	detail, err := svc.OrderDetail(ctx, created.ID)
	if err != nil || detail.Quantity != 1 {
		t.Errorf("OrderDetail() = %+v, %v", detail, err)
	}
}

func TestService_CreateOrder_LocalValidation(t *testing.T) {
	svc, api := setupService(t)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{UserName: "Li Lei", Phone: "123"})
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("error = %v, want ErrInvalidOrder", err)
	}
	apiErr, ok := client.AsAPIError(err)
	if !ok || apiErr.Class != client.ErrorClassValidation {
		t.Errorf("error class = %v", err)
	}
	if n := api.RequestCount(EndpointOrders); n != 0 {
		t.Errorf("invalid order reached the API %d times", n)
	}
}

func TestService_CreateOrder_FailureNotRetried(t *testing.T) {
	svc, api := setupService(t)
	ctx := context.Background()

	view, _ := svc.Orders(listview.NewMemoryLocation("/orders"))
	defer view.Close()
	view.Sync()
	waitFor(t, func() bool { return view.View().State == listview.StateSuccess })
	api.Reset()

	api.SetFailure(EndpointOrders, mockapi.Failure{StatusCode: http.StatusInternalServerError, Code: mockapi.CodeInternal, Message: "db down"})

	_, err := svc.CreateOrder(ctx, CreateOrderRequest{UserName: "Han Meimei", Phone: "13900000000", TargetCompanyName: "DJI"})
	apiErr, ok := client.AsAPIError(err)
	if !ok || apiErr.Class != client.ErrorClassServer {
		t.Fatalf("error = %v, want server error", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := api.RequestCount(EndpointOrders); n != 1 {
		t.Errorf("order requests = %d, want the single POST and no refetch", n)
	}
	if view.View().IsError {
		t.Error("a failed write must not touch the list view")
	}
}

func TestService_ExportJobs(t *testing.T) {
	svc, api := setupService(t)

	schema, _ := svc.Schema(ListJobs)
	jobs, err := svc.ExportJobs(context.Background(), schema.Decode("?page_size=25"))
	if err != nil {
		t.Fatalf("ExportJobs() error = %v", err)
	}
	if len(jobs) != 120 {
		t.Errorf("exported %d jobs, want 120", len(jobs))
	}
	seen := make(map[int64]bool)
	for _, j := range jobs {
		if seen[j.ID] {
			t.Fatalf("job %d exported twice", j.ID)
		}
		seen[j.ID] = true
	}
	if n := api.RequestCount(EndpointJobs); n != 5 {
		t.Errorf("page requests = %d, want 5", n)
	}

	events, err := svc.ExportCampusEvents(context.Background(), defaults(t, svc, ListCampusEvents))
	if err != nil || len(events) != 45 {
		t.Errorf("ExportCampusEvents() = %d events, %v", len(events), err)
	}
	orders, err := svc.ExportOrders(context.Background(), defaults(t, svc, ListOrders))
	if err != nil || len(orders) != 0 {
		t.Errorf("ExportOrders() = %d orders, %v", len(orders), err)
	}
}

func defaults(t *testing.T, s *Service, list List) query.Params {
	t.Helper()
	schema, err := s.Schema(list)
	if err != nil {
		t.Fatal(err)
	}
	return schema.Defaults()
}
