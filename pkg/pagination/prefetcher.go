package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pirate-pro/get-resume-direction/pkg/cache"
)

var (
	prefetchIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_prefetch_issued_total",
		Help: "Total number of next-page prefetches started",
	})

	prefetchSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_prefetch_skipped_total",
		Help: "Total number of next-page prefetches skipped",
	}, []string{"reason"}) // "last_page", "cached", "disabled"
)

// NextPageFunc returns the cache key and fetch function for a page of the
// current query (same filters, same sort).
type NextPageFunc func(page int) (cache.CacheKey, cache.FetchFunc)

// PrefetcherConfig holds prefetcher configuration
type PrefetcherConfig struct {
	// Enabled turns next-page prefetching on
	Enabled bool

	Logger *zerolog.Logger
}

// DefaultPrefetcherConfig returns the default prefetcher configuration
func DefaultPrefetcherConfig() PrefetcherConfig {
	return PrefetcherConfig{Enabled: true}
}

// Prefetcher speculatively loads the page after the one on screen.
type Prefetcher struct {
	cache   *cache.Cache
	enabled bool
	logger  zerolog.Logger
}

// NewPrefetcher creates a prefetcher writing into c.
func NewPrefetcher(c *cache.Cache, cfg PrefetcherConfig) *Prefetcher {
	if c == nil {
		panic("pagination: cache is required")
	}

	logger := log.With().Str("component", "prefetcher").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "prefetcher").Logger()
	}

	return &Prefetcher{
		cache:   c,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

// AfterSuccess is called when the page described by meta has loaded. It
// starts at most one non-blocking prefetch, for meta.Page+1, and only if
// that page exists. Failures never surface on the prefetched entry.
// Returns true if a fetch was started.
func (p *Prefetcher) AfterSuccess(meta Meta, next NextPageFunc) bool {
	if !p.enabled {
		prefetchSkippedTotal.WithLabelValues("disabled").Inc()
		return false
	}
	if !meta.HasNext() {
		prefetchSkippedTotal.WithLabelValues("last_page").Inc()
		p.logger.Debug().
			Int("page", meta.Page).
			Int("total_pages", meta.TotalPages()).
			Msg("No next page to prefetch")
		return false
	}

	key, fetch := next(meta.Page + 1)
	if !p.cache.Prefetch(key, fetch) {
		prefetchSkippedTotal.WithLabelValues("cached").Inc()
		return false
	}

	prefetchIssuedTotal.Inc()
	p.logger.Debug().
		Str("key", key.String()).
		Int("page", meta.Page+1).
		Msg("Prefetching next page")
	return true
}
