package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("cache closed")

// FetchFunc loads the data for one key. The context is cancelled when the
// cache is closed or when the key loses its last subscriber.
type FetchFunc func(ctx context.Context) (any, error)

// Config holds the cache configuration.
type Config struct {
	// StaleTime is how long a successful result is served without revalidation.
	StaleTime time.Duration

	// GCTime is how long an entry without subscribers is kept.
	GCTime time.Duration

	// GCInterval is how often the janitor sweeps. Zero disables the janitor;
	// Collect can still be called directly.
	GCInterval time.Duration

	// Now overrides the clock (for testing).
	Now func() time.Time

	Logger *zerolog.Logger
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		StaleTime:  60 * time.Second,
		GCTime:     5 * time.Minute,
		GCInterval: time.Minute,
	}
}

type entry struct {
	Entry

	key       CacheKey
	fetch     FetchFunc
	observers map[*Observer]struct{}
	cancel    context.CancelFunc

	// waiters counts blocking Fetch callers joined to the in-flight request.
	waiters int

	// speculative marks an in-flight prefetch nobody has asked for yet.
	speculative bool

	// invalidated forces the next lookup to refetch; set during a fetch it
	// schedules another one once the current request completes.
	invalidated bool

	// flight names the current request in the singleflight group. Each
	// request gets its own name so a new fetch never joins one that is
	// still unwinding.
	flight string
	gen    uint64

	// flightCtx is cancelled once the current request is aborted. An
	// aborted request is never joined.
	flightCtx context.Context
}

// Cache is a process-wide store of query results keyed by CacheKey.
// It is safe for concurrent use; no key is locked against reads while it
// is being revalidated.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	config  Config
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a cache and starts its garbage collection janitor.
func New(cfg Config) *Cache {
	if cfg.StaleTime < 0 {
		cfg.StaleTime = 0
	}
	if cfg.GCTime <= 0 {
		cfg.GCTime = DefaultConfig().GCTime
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := log.With().Str("component", "query-cache").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "query-cache").Logger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries: make(map[string]*entry),
		config:  cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	if cfg.GCInterval > 0 {
		c.wg.Add(1)
		go c.janitor(cfg.GCInterval)
	}
	return c
}

// Close stops the janitor and cancels every in-flight fetch.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// StaleTime returns the configured stale time.
func (c *Cache) StaleTime() time.Duration {
	return c.config.StaleTime
}

// Subscribe attaches a live observer to key, creating the entry on first
// lookup. A fetch starts when the entry has no data, is stale or was
// invalidated; existing data stays visible while it runs. onChange, if
// set, is called after every state transition of the entry, outside any
// cache lock.
func (c *Cache) Subscribe(key CacheKey, fetch FetchFunc, onChange func()) *Observer {
	obs := &Observer{cache: c, key: key.String(), onChange: onChange}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		obs.closed.Store(true)
		return obs
	}

	now := c.config.Now()
	e := c.getOrCreateLocked(key, fetch)
	e.observers[obs] = struct{}{}
	e.Subscribers++
	e.LastAccessedAt = now

	switch {
	case e.joinable():
		// Someone asked for it now, so failures are no longer silent.
		e.speculative = false
		DedupJoins.Inc()
	case !e.HasData():
		CacheMisses.Inc()
		c.startLocked(e, false)
	case e.invalidated || e.IsStale(now, c.config.StaleTime):
		CacheStaleHits.Inc()
		c.startLocked(e, false)
	default:
		CacheHits.Inc()
	}

	c.logger.Debug().
		Str("key", obs.key).
		Str("status", string(e.Status)).
		Bool("fetching", e.IsFetching).
		Int("subscribers", e.Subscribers).
		Msg("Query subscribed")

	notify := c.observersLocked(e)
	c.mu.Unlock()

	runAll(notify)
	return obs
}

// Prefetch speculatively loads key without subscribing to it. It is a no-op
// when the key already holds fresh data or a fetch is in flight. Failures
// are recorded in metrics only and never set an error on the entry.
// Returns true if a fetch was started.
func (c *Cache) Prefetch(key CacheKey, fetch FetchFunc) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}

	now := c.config.Now()
	e := c.getOrCreateLocked(key, fetch)
	e.LastAccessedAt = now
	if e.joinable() || (!e.invalidated && !e.IsStale(now, c.config.StaleTime)) {
		c.mu.Unlock()
		return false
	}

	c.startLocked(e, true)
	notify := c.observersLocked(e)
	c.mu.Unlock()

	runAll(notify)
	return true
}

// Fetch returns fresh data for key, blocking until it is loaded. Concurrent
// callers and subscribers share a single in-flight request.
func (c *Cache) Fetch(ctx context.Context, key CacheKey, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	now := c.config.Now()
	e := c.getOrCreateLocked(key, fetch)
	e.LastAccessedAt = now
	if !e.joinable() && !e.invalidated && !e.IsStale(now, c.config.StaleTime) {
		data := e.Data
		c.mu.Unlock()
		CacheHits.Inc()
		return data, nil
	}

	if e.joinable() {
		DedupJoins.Inc()
		e.speculative = false
	} else {
		CacheMisses.Inc()
	}
	ch := c.startLocked(e, false)
	e.waiters++
	notify := c.observersLocked(e)
	keyStr := e.Key
	c.mu.Unlock()

	runAll(notify)

	defer func() {
		c.mu.Lock()
		if cur, ok := c.entries[keyStr]; ok && cur.waiters > 0 {
			cur.waiters--
		}
		c.mu.Unlock()
	}()

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SetData stores data for key as if it had just been fetched.
func (c *Cache) SetData(key CacheKey, data any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	now := c.config.Now()
	e := c.getOrCreateLocked(key, nil)
	e.Data = data
	e.FetchedAt = now
	e.LastAccessedAt = now
	e.Err = nil
	e.invalidated = false
	if !e.IsFetching {
		e.Status = StatusSuccess
	}
	notify := c.observersLocked(e)
	c.mu.Unlock()

	runAll(notify)
}

// Get returns a snapshot of the entry for key.
func (c *Cache) Get(key CacheKey) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Invalidate marks every entry whose key matches as stale. Entries with
// subscribers are refetched right away (or once their in-flight request
// completes); the rest refetch on their next lookup.
// Returns the number of entries invalidated.
func (c *Cache) Invalidate(match func(CacheKey) bool) int {
	c.mu.Lock()
	var notify []func()
	count := 0
	for _, e := range c.entries {
		if !match(e.key) {
			continue
		}
		count++
		e.invalidated = true
		if e.Subscribers > 0 && !e.joinable() {
			c.startLocked(e, false)
			notify = append(notify, c.observersLocked(e)...)
		}
	}
	c.mu.Unlock()

	runAll(notify)
	c.logger.Debug().Int("entries", count).Msg("Queries invalidated")
	return count
}

// InvalidateEndpoint invalidates every entry of one endpoint.
func (c *Cache) InvalidateEndpoint(endpoint string) int {
	return c.Invalidate(func(k CacheKey) bool { return k.SameEndpoint(endpoint) })
}

// Collect evicts entries that have had no subscriber for longer than GCTime.
// Entries with subscribers, waiters or an in-flight fetch are never evicted.
// Returns the number of evicted entries.
func (c *Cache) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.config.Now()
	evicted := 0
	for k, e := range c.entries {
		if e.Subscribers > 0 || e.waiters > 0 || e.IsFetching {
			continue
		}
		if now.Sub(e.LastAccessedAt) <= c.config.GCTime {
			continue
		}
		delete(c.entries, k)
		evicted++
	}

	if evicted > 0 {
		CacheEvictions.Add(float64(evicted))
		CacheEntries.Set(float64(len(c.entries)))
		c.logger.Debug().
			Int("evicted", evicted).
			Int("remaining", len(c.entries)).
			Msg("Query cache collected")
	}
	return evicted
}

// Len returns the number of entries held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) janitor(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

func (c *Cache) getOrCreateLocked(key CacheKey, fetch FetchFunc) *entry {
	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{
			Entry: Entry{
				Key:            k,
				Status:         StatusIdle,
				LastAccessedAt: c.config.Now(),
			},
			key:       key,
			observers: make(map[*Observer]struct{}),
		}
		c.entries[k] = e
		CacheEntries.Set(float64(len(c.entries)))
	}
	if fetch != nil {
		e.fetch = fetch
	}
	return e
}

// joinable reports whether e has a request in flight that has not been
// aborted.
func (e *entry) joinable() bool {
	return e.IsFetching && e.flightCtx != nil && e.flightCtx.Err() == nil
}

// startLocked starts a fetch for e, or joins the one in flight. Every
// request for a key goes through the singleflight group while mu is held,
// so a caller that sees a joinable request always joins the running call.
// A request that was aborted but has not returned yet is superseded by a
// new one.
func (c *Cache) startLocked(e *entry, speculative bool) <-chan singleflight.Result {
	if e.joinable() {
		return c.group.DoChan(e.flight, func() (any, error) { return nil, nil })
	}

	fetch := e.fetch
	if fetch == nil {
		ch := make(chan singleflight.Result, 1)
		ch <- singleflight.Result{Err: fmt.Errorf("no fetch function for %s", e.Key)}
		return ch
	}

	ctx, cancel := context.WithCancel(c.ctx)
	e.cancel = cancel
	e.flightCtx = ctx
	e.IsFetching = true
	e.Status = StatusLoading
	e.speculative = speculative
	e.invalidated = false
	e.gen++
	e.flight = fmt.Sprintf("%s#%d", e.Key, e.gen)

	key, gen := e.Key, e.gen
	return c.group.DoChan(e.flight, func() (any, error) {
		FetchesInFlight.Inc()
		defer FetchesInFlight.Dec()
		defer cancel()

		data, err := fetch(ctx)
		c.complete(ctx, key, gen, data, err)
		return data, err
	})
}

func (c *Cache) complete(ctx context.Context, key string, gen uint64, data any, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	if e.gen != gen {
		// Superseded after an abort; the newer request owns the entry.
		c.mu.Unlock()
		FetchErrors.WithLabelValues("aborted").Inc()
		c.logger.Debug().Str("key", key).Uint64("gen", gen).Msg("Superseded query fetch discarded")
		return
	}

	now := c.config.Now()
	e.IsFetching = false
	e.cancel = nil
	e.flightCtx = nil
	e.LastAccessedAt = now

	switch {
	case err == nil:
		e.Data = data
		e.FetchedAt = now
		e.Status = StatusSuccess
		e.Err = nil
		c.logger.Debug().Str("key", key).Msg("Query fetched")

	case e.speculative || ctx.Err() != nil:
		// Aborted or speculative: nobody is waiting on this result, so the
		// entry goes back to what it was before the fetch.
		origin := "prefetch"
		if !e.speculative {
			origin = "aborted"
		}
		FetchErrors.WithLabelValues(origin).Inc()
		if e.HasData() {
			e.Status = StatusSuccess
		} else {
			e.Status = StatusIdle
		}
		c.logger.Debug().Err(err).Str("key", key).Str("origin", origin).Msg("Query fetch discarded")

	default:
		// Keep the previous data so a transient error does not blank the view.
		FetchErrors.WithLabelValues("query").Inc()
		e.Status = StatusError
		e.Err = err
		c.logger.Warn().Err(err).Str("key", key).Bool("has_data", e.HasData()).Msg("Query fetch failed")
	}
	e.speculative = false

	if e.invalidated && e.Subscribers > 0 && !c.closed {
		c.startLocked(e, false)
	}

	notify := c.observersLocked(e)
	c.mu.Unlock()

	runAll(notify)
}

// unsubscribe detaches obs and aborts the fetch if it was the last interest.
func (c *Cache) unsubscribe(obs *Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[obs.key]
	if !ok {
		return
	}
	if _, attached := e.observers[obs]; !attached {
		return
	}
	delete(e.observers, obs)
	e.Subscribers--
	e.LastAccessedAt = c.config.Now()

	if e.Subscribers == 0 && e.waiters == 0 && e.IsFetching && !e.speculative && e.cancel != nil {
		c.logger.Debug().Str("key", e.Key).Msg("Aborting fetch without subscribers")
		e.cancel()
	}
}

func (c *Cache) refetch(obs *Observer) {
	c.mu.Lock()
	e, ok := c.entries[obs.key]
	if !ok || c.closed {
		c.mu.Unlock()
		return
	}
	if e.joinable() {
		e.speculative = false
		c.mu.Unlock()
		return
	}
	c.startLocked(e, false)
	notify := c.observersLocked(e)
	c.mu.Unlock()

	runAll(notify)
}

func (c *Cache) snapshot(obs *Observer) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[obs.key]; ok {
		return e.Entry
	}
	return Entry{Key: obs.key, Status: StatusIdle}
}

func (c *Cache) observersLocked(e *entry) []func() {
	if len(e.observers) == 0 {
		return nil
	}
	fns := make([]func(), 0, len(e.observers))
	for obs := range e.observers {
		if obs.onChange != nil {
			fns = append(fns, obs.onChange)
		}
	}
	return fns
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
