// Package listview drives one filterable, paginated list view.
//
// An Orchestrator reads the view state from a Location query string, delays
// free-text fields through a debounce buffer, subscribes to the query cache
// under the derived key, prefetches the next page once a page has loaded,
// and writes user-driven changes back to the Location in canonical form.
//
// While a new key has no data the previous key's last page stays visible,
// flagged as a placeholder, so paging and filtering never flash an empty
// list.
package listview

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pirate-pro/get-resume-direction/pkg/cache"
	"github.com/pirate-pro/get-resume-direction/pkg/debounce"
	"github.com/pirate-pro/get-resume-direction/pkg/pagination"
	"github.com/pirate-pro/get-resume-direction/pkg/query"
)

var (
	viewKeyChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_view_key_changes_total",
		Help: "Total number of query key changes per list endpoint",
	}, []string{"endpoint"})

	viewPlaceholderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_view_placeholder_total",
		Help: "Total number of key changes rendered with placeholder data",
	}, []string{"endpoint"})
)

// State is the lifecycle state of a list view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Loader fetches one page of a list for a full request query.
type Loader[T any] func(ctx context.Context, q url.Values) (*pagination.Page[T], error)

// View is what the presentation layer renders.
type View[T any] struct {
	// Data is the page for the current key, or the previous key's page
	// while the current one loads (IsPlaceholder). Nil before the first
	// successful load.
	Data          *pagination.Page[T]
	IsPlaceholder bool

	// IsLoading is true while the current key has no data of its own.
	IsLoading  bool
	IsFetching bool
	IsError    bool
	Err        error
	State      State

	// Params are the parameters the data was requested with. Pending
	// debounced input is not included.
	Params query.Params

	// Query is the canonical query string of the location.
	Query string
}

// Config holds orchestrator configuration
type Config[T any] struct {
	Schema   query.Schema
	Cache    *cache.Cache
	Load     Loader[T]
	Location Location

	// Prefetcher loads the next page after each successful load. Optional.
	Prefetcher *pagination.Prefetcher

	// QuietPeriod is the debounce delay for free-text fields.
	QuietPeriod time.Duration

	Logger *zerolog.Logger
}

// Orchestrator is the state machine behind one list view. It is safe for
// concurrent use.
type Orchestrator[T any] struct {
	schema     query.Schema
	cache      *cache.Cache
	load       Loader[T]
	loc        Location
	prefetcher *pagination.Prefetcher
	logger     zerolog.Logger
	debouncers map[string]*debounce.Buffer[string]

	// syncMu serializes URL reads and subscription changes. It is held
	// while calling into the cache; mu never is.
	syncMu    sync.Mutex
	urlParams query.Params
	obs       *cache.Observer
	started   bool

	mu           sync.Mutex
	params       query.Params
	key          cache.CacheKey
	gen          uint64
	lastData     *pagination.Page[T]
	prefetchedAt time.Time
	changes      chan struct{}
	closed       bool
}

// New creates an orchestrator. Call Sync to perform the first load.
func New[T any](cfg Config[T]) (*Orchestrator[T], error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.Load == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("location is required")
	}
	if cfg.Schema.Endpoint == "" {
		return nil, fmt.Errorf("schema endpoint is required")
	}
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = debounce.DefaultQuietPeriod
	}

	logger := log.With().Str("component", "list-view").Str("endpoint", cfg.Schema.Endpoint).Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "list-view").Str("endpoint", cfg.Schema.Endpoint).Logger()
	}

	o := &Orchestrator[T]{
		schema:     cfg.Schema,
		cache:      cfg.Cache,
		load:       cfg.Load,
		loc:        cfg.Location,
		prefetcher: cfg.Prefetcher,
		logger:     logger,
		debouncers: make(map[string]*debounce.Buffer[string]),
		urlParams:  cfg.Schema.Defaults(),
		params:     cfg.Schema.Defaults(),
		changes:    make(chan struct{}, 1),
	}

	for _, f := range cfg.Schema.Fields {
		if !f.Debounced {
			continue
		}
		o.debouncers[f.Name] = debounce.New(cfg.QuietPeriod, "", func(string) {
			o.onDebounced()
		})
	}

	return o, nil
}

// Sync re-reads the location. Non-text fields take effect immediately;
// changed free-text fields wait for the quiet period. The first Sync
// applies every field immediately.
func (o *Orchestrator[T]) Sync() {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	if o.isClosed() {
		return
	}

	o.urlParams = o.schema.Decode(o.loc.Query())
	for name, buf := range o.debouncers {
		v, _ := o.urlParams.Get(name)
		switch pending, ok := buf.Pending(); {
		case !o.started || v == buf.Committed():
			buf.Set(v)
		case ok && pending == v:
			// Already waiting for this value.
		default:
			buf.Observe(v)
		}
	}
	o.started = true
	o.applyLocked()
}

// PushQuery writes next to the location in canonical form and applies it
// immediately, free-text fields included.
func (o *Orchestrator[T]) PushQuery(next query.Params) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	if o.isClosed() {
		return
	}

	next = o.schema.Normalize(next)
	o.loc.Replace(o.schema.Encode(next))
	o.urlParams = next
	for name, buf := range o.debouncers {
		v, _ := next.Get(name)
		buf.Set(v)
	}
	o.started = true
	o.applyLocked()
}

// Type records keystroke-level input for a filter. The location is updated
// right away with the page reset to 1; free-text fields reach the cache
// after the quiet period.
func (o *Orchestrator[T]) Type(field, text string) error {
	if _, ok := o.schema.Field(field); !ok {
		return fmt.Errorf("unknown filter %q for %s", field, o.schema.Endpoint)
	}

	o.syncMu.Lock()
	next := o.urlParams.With(field, text).WithPage(query.DefaultPage)
	o.loc.Replace(o.schema.Encode(o.schema.Normalize(next)))
	o.syncMu.Unlock()

	o.Sync()
	return nil
}

// SetFilter commits a filter change immediately and returns to page 1.
func (o *Orchestrator[T]) SetFilter(field, value string) error {
	if _, ok := o.schema.Field(field); !ok {
		return fmt.Errorf("unknown filter %q for %s", field, o.schema.Endpoint)
	}
	o.PushQuery(o.currentURLParams().With(field, value).WithPage(query.DefaultPage))
	return nil
}

// SetSort changes the sort order and returns to page 1. Unknown sort keys
// fall back to the default.
func (o *Orchestrator[T]) SetSort(sortBy string) {
	next := o.currentURLParams().WithPage(query.DefaultPage)
	next.SortBy = sortBy
	o.PushQuery(next)
}

// GoToPage moves to page n, keeping every other parameter.
func (o *Orchestrator[T]) GoToPage(n int) {
	if n < 1 {
		n = 1
	}
	o.PushQuery(o.currentURLParams().WithPage(n))
}

// ResetFilters returns to page 1 with every optional field cleared.
func (o *Orchestrator[T]) ResetFilters() {
	o.PushQuery(o.schema.Defaults())
}

// Refetch reloads the current key, keeping its data visible.
func (o *Orchestrator[T]) Refetch() {
	o.syncMu.Lock()
	obs := o.obs
	o.syncMu.Unlock()
	if obs != nil {
		obs.Refetch()
	}
}

// View returns the current render state.
func (o *Orchestrator[T]) View() View[T] {
	o.mu.Lock()
	key := o.key
	params := o.params
	lastData := o.lastData
	started := o.gen > 0
	o.mu.Unlock()

	v := View[T]{
		Params: params,
		Query:  o.schema.Encode(params),
		State:  StateIdle,
	}
	if !started {
		return v
	}

	e, _ := o.cache.Get(key)
	if page, ok := e.Data.(*pagination.Page[T]); ok && e.HasData() {
		v.Data = page
	} else if lastData != nil {
		v.Data = lastData
		v.IsPlaceholder = true
	}

	switch e.Status {
	case cache.StatusLoading:
		v.State = StateLoading
	case cache.StatusSuccess:
		v.State = StateSuccess
	case cache.StatusError:
		v.State = StateError
	}
	v.IsFetching = e.IsFetching
	v.IsLoading = e.IsFetching && !e.HasData()
	v.IsError = e.Status == cache.StatusError
	v.Err = e.Err
	return v
}

// Changes delivers a signal after each state change. Signals are coalesced;
// the channel is closed by Close.
func (o *Orchestrator[T]) Changes() <-chan struct{} {
	return o.changes
}

// Close cancels pending debounced input and drops the cache subscription.
func (o *Orchestrator[T]) Close() {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.changes)
	o.mu.Unlock()

	for _, buf := range o.debouncers {
		buf.Close()
	}
	if o.obs != nil {
		o.obs.Close()
		o.obs = nil
	}
}

func (o *Orchestrator[T]) onDebounced() {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	if o.isClosed() {
		return
	}
	o.applyLocked()
}

// applyLocked derives the effective parameters and moves the subscription
// when the key changes. syncMu must be held.
func (o *Orchestrator[T]) applyLocked() {
	effective := o.urlParams.Clone()
	for name, buf := range o.debouncers {
		if v := buf.Committed(); v != "" {
			effective.Filters[name] = v
		} else {
			delete(effective.Filters, name)
		}
	}
	effective = o.schema.Normalize(effective)
	key := o.keyFor(effective)

	o.mu.Lock()
	o.params = effective
	if o.obs != nil && key.String() == o.key.String() {
		o.mu.Unlock()
		o.notify()
		return
	}
	o.key = key
	o.gen++
	o.prefetchedAt = time.Time{}
	gen := o.gen
	o.mu.Unlock()

	viewKeyChangesTotal.WithLabelValues(o.schema.Endpoint).Inc()
	o.logger.Debug().
		Str("key", key.String()).
		Int("page", effective.Page).
		Msg("Query key changed")

	// Subscribe before releasing the old key so a shared entry is never
	// left without subscribers in between.
	old := o.obs
	o.obs = o.cache.Subscribe(key, o.fetchFunc(key.QueryParams), func() {
		o.onEntryChange(gen, key)
	})
	if old != nil {
		old.Close()
	}

	if e, _ := o.cache.Get(key); !e.HasData() && o.hasLastData() {
		viewPlaceholderTotal.WithLabelValues(o.schema.Endpoint).Inc()
	}
}

// onEntryChange runs on every state transition of the subscribed entry.
func (o *Orchestrator[T]) onEntryChange(gen uint64, key cache.CacheKey) {
	e, _ := o.cache.Get(key)

	o.mu.Lock()
	if o.closed || gen != o.gen {
		// A late transition of a key this view no longer shows.
		o.mu.Unlock()
		return
	}

	var meta pagination.Meta
	prefetch := false
	if page, ok := e.Data.(*pagination.Page[T]); ok && e.HasData() {
		o.lastData = page
		if e.Status == cache.StatusSuccess && !e.FetchedAt.Equal(o.prefetchedAt) {
			o.prefetchedAt = e.FetchedAt
			meta = page.Meta()
			prefetch = true
		}
	}
	params := o.params
	o.mu.Unlock()

	if prefetch && o.prefetcher != nil {
		o.prefetcher.AfterSuccess(meta, func(page int) (cache.CacheKey, cache.FetchFunc) {
			next := o.keyFor(params.WithPage(page))
			return next, o.fetchFunc(next.QueryParams)
		})
	}

	o.notify()
}

func (o *Orchestrator[T]) keyFor(p query.Params) cache.CacheKey {
	return cache.CacheKey{
		Endpoint:    o.schema.Endpoint,
		QueryParams: o.schema.Values(p),
	}
}

func (o *Orchestrator[T]) fetchFunc(q url.Values) cache.FetchFunc {
	return func(ctx context.Context) (any, error) {
		page, err := o.load(ctx, q)
		if err != nil {
			return nil, err
		}
		return page, nil
	}
}

func (o *Orchestrator[T]) currentURLParams() query.Params {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	return o.urlParams.Clone()
}

func (o *Orchestrator[T]) hasLastData() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastData != nil
}

func (o *Orchestrator[T]) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Orchestrator[T]) notify() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.changes <- struct{}{}:
	default:
	}
}
