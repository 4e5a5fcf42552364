// Package listing wires the query engine to the job aggregation API: typed
// records, the query schema of each list, list views, cached detail reads,
// exports and order submission.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pirate-pro/get-resume-direction/pkg/cache"
	"github.com/pirate-pro/get-resume-direction/pkg/client"
	"github.com/pirate-pro/get-resume-direction/pkg/listview"
	"github.com/pirate-pro/get-resume-direction/pkg/pagination"
	"github.com/pirate-pro/get-resume-direction/pkg/query"
)

// List names a list view.
type List string

const (
	ListJobs         List = "jobs"
	ListCampusEvents List = "events"
	ListOrders       List = "orders"
)

// Config holds service configuration
type Config struct {
	Client *client.Client
	Cache  *cache.Cache

	// Prefetcher is shared by every list view. Optional.
	Prefetcher *pagination.Prefetcher

	// QuietPeriod is the debounce delay for free-text filters.
	QuietPeriod time.Duration

	PageSize    int
	MaxPageSize int

	Batch pagination.BatchConfig

	Logger *zerolog.Logger
}

// Service is the entry point of the listing API for list views and
// commands.
type Service struct {
	client      *client.Client
	cache       *cache.Cache
	prefetcher  *pagination.Prefetcher
	quietPeriod time.Duration
	pageSize    int
	maxPageSize int
	batch       pagination.BatchConfig
	logger      zerolog.Logger
}

// New creates a listing service.
func New(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = query.MaxPageSize
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = query.DefaultPageSize
	}
	if cfg.PageSize > cfg.MaxPageSize {
		return nil, fmt.Errorf("page size %d exceeds max page size %d", cfg.PageSize, cfg.MaxPageSize)
	}

	logger := log.With().Str("component", "listing").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "listing").Logger()
	}
	if cfg.Batch.Logger == nil {
		cfg.Batch.Logger = &logger
	}

	return &Service{
		client:      cfg.Client,
		cache:       cfg.Cache,
		prefetcher:  cfg.Prefetcher,
		quietPeriod: cfg.QuietPeriod,
		pageSize:    cfg.PageSize,
		maxPageSize: cfg.MaxPageSize,
		batch:       cfg.Batch,
		logger:      logger,
	}, nil
}

// Schema returns the query schema of a list.
func (s *Service) Schema(list List) (query.Schema, error) {
	switch list {
	case ListJobs:
		return JobsSchema(s.pageSize, s.maxPageSize), nil
	case ListCampusEvents:
		return CampusEventsSchema(s.pageSize, s.maxPageSize), nil
	case ListOrders:
		return OrdersSchema(s.pageSize, s.maxPageSize), nil
	default:
		return query.Schema{}, fmt.Errorf("unknown list %q", list)
	}
}

// Jobs creates the jobs list view bound to loc.
func (s *Service) Jobs(loc listview.Location) (*listview.Orchestrator[Job], error) {
	return newView[Job](s, JobsSchema(s.pageSize, s.maxPageSize), loc)
}

// CampusEvents creates the campus events list view bound to loc.
func (s *Service) CampusEvents(loc listview.Location) (*listview.Orchestrator[CampusEvent], error) {
	return newView[CampusEvent](s, CampusEventsSchema(s.pageSize, s.maxPageSize), loc)
}

// Orders creates the order list view bound to loc.
func (s *Service) Orders(loc listview.Location) (*listview.Orchestrator[Order], error) {
	return newView[Order](s, OrdersSchema(s.pageSize, s.maxPageSize), loc)
}

// JobDetail returns one job, served from the cache while fresh.
func (s *Service) JobDetail(ctx context.Context, id int64) (*JobDetail, error) {
	return fetchDetail[JobDetail](ctx, s, EndpointJobs, "job_id", id)
}

// CampusEventDetail returns one campus event, served from the cache while fresh.
func (s *Service) CampusEventDetail(ctx context.Context, id int64) (*CampusEventDetail, error) {
	return fetchDetail[CampusEventDetail](ctx, s, EndpointCampusEvents, "event_id", id)
}

// OrderDetail returns one order, served from the cache while fresh.
func (s *Service) OrderDetail(ctx context.Context, id int64) (*OrderDetail, error) {
	return fetchDetail[OrderDetail](ctx, s, EndpointOrders, "order_id", id)
}

// BasicStats returns job counts by source, city and category. Like the
// details it is served from the cache while fresh.
func (s *Service) BasicStats(ctx context.Context) (*BasicStats, error) {
	key := cache.CacheKey{Endpoint: EndpointStats}
	data, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var out BasicStats
		if err := s.client.Get(ctx, EndpointStats, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	stats, ok := data.(*BasicStats)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value %T for %s", data, key)
	}
	return stats, nil
}

// ExportJobs returns every job matching p, all pages merged.
func (s *Service) ExportJobs(ctx context.Context, p query.Params) ([]Job, error) {
	return export[Job](ctx, s, JobsSchema(s.pageSize, s.maxPageSize), p)
}

// ExportCampusEvents returns every campus event matching p.
func (s *Service) ExportCampusEvents(ctx context.Context, p query.Params) ([]CampusEvent, error) {
	return export[CampusEvent](ctx, s, CampusEventsSchema(s.pageSize, s.maxPageSize), p)
}

// ExportOrders returns every order matching p.
func (s *Service) ExportOrders(ctx context.Context, p query.Params) ([]Order, error) {
	return export[Order](ctx, s, OrdersSchema(s.pageSize, s.maxPageSize), p)
}

func newView[T any](s *Service, schema query.Schema, loc listview.Location) (*listview.Orchestrator[T], error) {
	return listview.New(listview.Config[T]{
		Schema:      schema,
		Cache:       s.cache,
		Load:        listLoader[T](s.client, schema.Endpoint),
		Location:    loc,
		Prefetcher:  s.prefetcher,
		QuietPeriod: s.quietPeriod,
		Logger:      &s.logger,
	})
}

func listLoader[T any](c *client.Client, endpoint string) listview.Loader[T] {
	return func(ctx context.Context, q url.Values) (*pagination.Page[T], error) {
		var page pagination.Page[T]
		if err := c.Get(ctx, endpoint, q, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}
}

func fetchDetail[T any](ctx context.Context, s *Service, endpoint, param string, id int64) (*T, error) {
	idStr := strconv.FormatInt(id, 10)
	key := cache.CacheKey{
		Endpoint:   endpoint + "/{" + param + "}",
		PathParams: map[string]string{param: idStr},
	}

	data, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var out T
		if err := s.client.Get(ctx, endpoint+"/"+idStr, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	out, ok := data.(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value %T for %s", data, key)
	}
	return out, nil
}

func export[T any](ctx context.Context, s *Service, schema query.Schema, p query.Params) ([]T, error) {
	load := listLoader[T](s.client, schema.Endpoint)
	fetchPage := func(ctx context.Context, page int) (*pagination.Page[T], error) {
		values := schema.Values(p.WithPage(page))
		key := cache.CacheKey{Endpoint: schema.Endpoint, QueryParams: values}

		data, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
			pg, err := load(ctx, values)
			if err != nil {
				return nil, err
			}
			return pg, nil
		})
		if err != nil {
			return nil, err
		}
		pg, ok := data.(*pagination.Page[T])
		if !ok {
			return nil, fmt.Errorf("unexpected cached value %T for %s", data, key)
		}
		return pg, nil
	}

	s.logger.Info().
		Str("endpoint", schema.Endpoint).
		Str("query", schema.Encode(p)).
		Msg("Exporting list")

	return pagination.NewBatchFetcher(fetchPage, s.batch).FetchAll(ctx)
}
