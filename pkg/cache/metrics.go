package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks subscriptions served from fresh data
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_cache_hits_total",
			Help: "Total number of query cache hits with fresh data",
		},
	)

	// CacheStaleHits tracks stale data served while a revalidation runs
	CacheStaleHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_cache_stale_hits_total",
			Help: "Total number of stale query cache hits triggering revalidation",
		},
	)

	// CacheMisses tracks lookups without data
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_cache_misses_total",
			Help: "Total number of query cache misses",
		},
	)

	// DedupJoins tracks requests that joined an in-flight fetch
	DedupJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_cache_dedup_joins_total",
			Help: "Total number of lookups that joined an in-flight fetch",
		},
	)

	// FetchesInFlight tracks running fetches
	FetchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listing_cache_fetches_in_flight",
			Help: "Current number of in-flight query fetches",
		},
	)

	// CacheEntries tracks the number of entries held
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listing_cache_entries",
			Help: "Current number of query cache entries",
		},
	)

	// CacheEvictions tracks garbage-collected entries
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_cache_evictions_total",
			Help: "Total number of query cache entries evicted by garbage collection",
		},
	)

	// FetchErrors tracks failed fetches by origin
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_fetch_errors_total",
			Help: "Total number of failed query fetches",
		},
		[]string{"origin"}, // "query", "prefetch", "aborted"
	)
)
