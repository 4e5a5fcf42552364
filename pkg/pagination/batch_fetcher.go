package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BatchConfig holds batch fetcher configuration
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel page requests
	MaxConcurrency int

	// Timeout per page fetch
	Timeout time.Duration

	// MaxPages caps how many pages one export may read
	MaxPages int

	Logger *zerolog.Logger
}

// DefaultBatchConfig returns a configuration gentle enough for the listing API
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        12 * time.Second,
		MaxPages:       50,
	}
}

// PageFunc fetches a single page of a list.
type PageFunc[T any] func(ctx context.Context, page int) (*Page[T], error)

// pageResult represents the result of fetching a single page
type pageResult[T any] struct {
	page  int
	items []T
	err   error
}

// BatchFetcher reads every page of a list in parallel.
type BatchFetcher[T any] struct {
	fetch  PageFunc[T]
	config BatchConfig
	logger zerolog.Logger
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetch PageFunc[T], config BatchConfig) *BatchFetcher[T] {
	defaults := DefaultBatchConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxPages <= 0 {
		config.MaxPages = defaults.MaxPages
	}

	logger := log.With().Str("component", "batch-fetcher").Logger()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "batch-fetcher").Logger()
	}

	return &BatchFetcher[T]{
		fetch:  fetch,
		config: config,
		logger: logger,
	}
}

// FetchAll fetches page 1 to learn the total, then the remaining pages with a
// worker pool. Items are returned in page order. On failure the items of
// the leading run of fetched pages are returned together with the error;
// pages after the first missing one are dropped so the result never has
// gaps.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	first, err := bf.fetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	totalPages := first.Meta().TotalPages()
	if totalPages > bf.config.MaxPages {
		bf.logger.Warn().
			Int("total_pages", totalPages).
			Int("max_pages", bf.config.MaxPages).
			Msg("Export truncated to page limit")
		totalPages = bf.config.MaxPages
	}

	if totalPages <= 1 {
		bf.logger.Info().
			Int("pages", 1).
			Int("items", len(first.Items)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return first.Items, nil
	}

	bf.logger.Info().
		Int("total_pages", totalPages).
		Int("total", first.Total).
		Msg("Starting parallel page fetch")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pageQueue := make(chan int, totalPages)
	results := make(chan pageResult[T], totalPages)

	for page := 2; page <= totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	workers := min(bf.config.MaxConcurrency, totalPages-1)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := make(map[int][]T, totalPages)
	pages[1] = first.Items
	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", result.page, result.err)
				cancel()
			}
			continue
		}
		pages[result.page] = result.items
	}

	// Total and PageSize come from the server; size the buffer by what
	// page 1 actually held.
	items := make([]T, 0, min(first.Total, totalPages*len(first.Items)))
	contiguous := 0
	for page := 1; page <= totalPages; page++ {
		pageItems, ok := pages[page]
		if !ok {
			break
		}
		items = append(items, pageItems...)
		contiguous++
	}

	if firstErr != nil {
		bf.logger.Warn().
			Err(firstErr).
			Int("fetched_pages", len(pages)).
			Int("returned_pages", contiguous).
			Int("total_pages", totalPages).
			Msg("Worker error - returning partial results")
		return items, fmt.Errorf("partial data (%d/%d pages): %w", contiguous, totalPages, firstErr)
	}

	bf.logger.Info().
		Int("pages", len(pages)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- pageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			bf.logger.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		page, err := bf.fetchPage(ctx, pageNum)
		if err != nil {
			results <- pageResult[T]{page: pageNum, err: err}
			return
		}

		results <- pageResult[T]{page: pageNum, items: page.Items}
		processed++
	}

	bf.logger.Debug().
		Int("worker_id", workerID).
		Int("pages_processed", processed).
		Msg("Worker completed")
}

func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, page int) (*Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	p, err := bf.fetch(pageCtx, page)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("empty response for page %d", page)
	}
	return p, nil
}
