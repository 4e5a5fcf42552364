// Package pagination provides the page envelope of list endpoints, the
// next-page prefetcher and parallel batch fetching for exports.
//
// List endpoints answer with a Page ({items, page, page_size, total}); the
// last valid page is ceil(total / page_size).
//
// # Prefetching
//
// When the page on screen has loaded, the Prefetcher loads the following
// page into the query cache so paging forward is instantaneous:
//
//	p := pagination.NewPrefetcher(queryCache, pagination.DefaultPrefetcherConfig())
//	p.AfterSuccess(page.Meta(), func(n int) (cache.CacheKey, cache.FetchFunc) {
//		return keyFor(n), fetchFor(n)
//	})
//
// The prefetcher:
//   - Never looks more than one page ahead
//   - Never goes past the last page
//   - Does nothing when the next page is cached or already loading
//   - Discards failures (the user has not asked for that page yet)
//
// # Batch Fetching
//
//	bf := pagination.NewBatchFetcher(fetchJobsPage, pagination.DefaultBatchConfig())
//	items, err := bf.FetchAll(ctx)
//
// FetchAll reads page 1 to learn the total, spreads the remaining pages
// across a worker pool and returns the items in page order. A failed page
// stops the remaining workers; the pages fetched so far are returned next
// to the error.
package pagination
