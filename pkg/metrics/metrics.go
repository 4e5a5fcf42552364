// Package metrics exposes the Prometheus registry used by the listing engine.
// All metrics are defined in their respective packages (client, cache,
// debounce, pagination, listview) to maintain modularity and avoid circular
// dependencies.
//
// This package provides the scrape handler and a reference for all available
// metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by the listing engine.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving Registry in the Prometheus text
// format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Metrics endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Metrics Documentation
//
// Query Cache Metrics (pkg/cache):
//   - listing_cache_hits_total (Counter): Reads served from fresh entries
//   - listing_cache_stale_hits_total (Counter): Stale reads answered while revalidating
//   - listing_cache_misses_total (Counter): Reads that started a fetch
//   - listing_cache_dedup_joins_total (Counter): Reads that joined a fetch already in flight
//   - listing_cache_fetches_in_flight (Gauge): Fetches currently running
//   - listing_cache_entries (Gauge): Entries currently held
//   - listing_cache_evictions_total (Counter): Entries removed by garbage collection
//   - listing_cache_fetch_errors_total{origin} (Counter): Failed fetches (query, prefetch, aborted)
//
// Request Metrics (pkg/client):
//   - listing_api_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - listing_api_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - listing_api_errors_total{class} (Counter): Errors by class
//
// Debounce Metrics (pkg/debounce):
//   - listing_debounce_commits_total (Counter): Text values committed after the quiet period
//   - listing_debounce_cancelled_total (Counter): Pending commits cancelled by newer input
//
// Prefetch Metrics (pkg/pagination):
//   - listing_prefetch_issued_total (Counter): Next-page prefetches started
//   - listing_prefetch_skipped_total{reason} (Counter): Skipped prefetches (last_page, cached, disabled)
//
// List View Metrics (pkg/listview):
//   - listing_view_key_changes_total{endpoint} (Counter): Cache key switches of list views
//   - listing_view_placeholder_total{endpoint} (Counter): Renders showing the previous page as placeholder
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(listing_cache_hits_total[5m])) /
//   (sum(rate(listing_cache_hits_total[5m])) + sum(rate(listing_cache_misses_total[5m])))
//
//   # Request Deduplication
//   rate(listing_cache_dedup_joins_total[5m])
//
//   # Request Error Rate
//   rate(listing_api_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(listing_api_request_duration_seconds_bucket[5m]))
//
//   # Prefetch Usefulness
//   rate(listing_prefetch_issued_total[5m]) / rate(listing_cache_hits_total[5m])
