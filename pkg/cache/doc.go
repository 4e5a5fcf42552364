// Package cache provides the process-wide query cache backing every list
// view.
//
// The cache maps a deterministic CacheKey (endpoint + normalized
// parameters) to an Entry holding the last successful result, its fetch
// time and a status (idle, loading, success, error):
//
// - At most one request per key is in flight; subscribers and blocking
// callers of the same key share it (golang.org/x/sync/singleflight)
// - Stale-while-revalidate: data older than StaleTime is served
// immediately while a background refresh runs
// - A failed fetch keeps the previous data next to the error
// - Entries without subscribers for longer than GCTime are evicted
// - Speculative prefetches never surface errors
//
// # Basic Usage
//
//	c := cache.New(cache.DefaultConfig())
//	defer c.Close()
//
//	key := cache.CacheKey{
//		Endpoint:    "/api/v1/jobs",
//		QueryParams: url.Values{"city": {"Shenzhen"}, "page": {"2"}},
//	}
//
//	obs := c.Subscribe(key, fetchJobs, func() {
//		render(obs.Snapshot())
//	})
//	defer obs.Close()
//
// # Blocking Reads
//
//	data, err := c.Fetch(ctx, key, fetchJobs)
//
// # Invalidation
//
//	// After a confirmed write, refetch every subscribed order list.
//	c.InvalidateEndpoint("/api/v1/orders")
//
// # Metrics
//
//   - listing_cache_hits_total - Fresh hits
//   - listing_cache_stale_hits_total - Stale hits triggering revalidation
//   - listing_cache_misses_total - Lookups without data
//   - listing_cache_dedup_joins_total - Lookups joining an in-flight fetch
//   - listing_cache_fetches_in_flight - Running fetches
//   - listing_cache_entries - Entries held
//   - listing_cache_evictions_total - Garbage-collected entries
//   - listing_cache_fetch_errors_total{origin} - Failed fetches
package cache
