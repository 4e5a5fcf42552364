// Package debounce delays propagation of rapidly changing values until they
// have been stable for a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultQuietPeriod matches the keystroke debounce of the list views.
const DefaultQuietPeriod = 300 * time.Millisecond

var (
	debounceCommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_debounce_commits_total",
		Help: "Total number of debounced values committed",
	})

	debounceCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_debounce_cancelled_total",
		Help: "Total number of pending debounced values dropped on close",
	})
)

// Buffer holds the pending and committed value of one input field.
// It is safe for concurrent use.
type Buffer[T comparable] struct {
	mu        sync.Mutex
	quiet     time.Duration
	committed T
	pending   T
	hasValue  bool
	timer     *time.Timer
	gen       uint64
	closed    bool
	onCommit  func(T)
	logger    zerolog.Logger
}

// New creates a buffer starting at initial. onCommit, if set, runs on the
// timer goroutine each time a new value is committed.
func New[T comparable](quiet time.Duration, initial T, onCommit func(T)) *Buffer[T] {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Buffer[T]{
		quiet:     quiet,
		committed: initial,
		onCommit:  onCommit,
		logger:    log.With().Str("component", "debounce").Logger(),
	}
}

// Observe records a new value and restarts the quiet period.
func (b *Buffer[T]) Observe(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.pending = v
	b.hasValue = true
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
	}
	gen := b.gen
	b.timer = time.AfterFunc(b.quiet, func() { b.fire(gen) })
}

// Committed returns the last committed value.
func (b *Buffer[T]) Committed() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

// Pending returns the value waiting for the quiet period, if any.
func (b *Buffer[T]) Pending() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending, b.hasValue
}

// Flush commits the pending value immediately.
func (b *Buffer[T]) Flush() {
	b.mu.Lock()
	if b.closed || !b.hasValue {
		b.mu.Unlock()
		return
	}
	b.stopLocked()
	b.commitLocked()
}

// Set commits v immediately and discards any pending value.
// onCommit is not called.
func (b *Buffer[T]) Set(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.stopLocked()
	var zero T
	b.pending = zero
	b.hasValue = false
	b.committed = v
}

// Close cancels the pending timer. No commit starts after Close returns.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.hasValue {
		debounceCancelledTotal.Inc()
	}
	b.stopLocked()
	b.closed = true
	b.hasValue = false
}

func (b *Buffer[T]) fire(gen uint64) {
	b.mu.Lock()
	// A newer Observe, Set or Close superseded this timer.
	if b.closed || gen != b.gen || !b.hasValue {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.commitLocked()
}

// commitLocked is called with mu held and releases it.
func (b *Buffer[T]) commitLocked() {
	v := b.pending
	changed := v != b.committed
	b.committed = v
	var zero T
	b.pending = zero
	b.hasValue = false
	fn := b.onCommit
	b.mu.Unlock()

	if !changed {
		return
	}
	debounceCommitsTotal.Inc()
	b.logger.Debug().Interface("value", v).Msg("Debounced value committed")
	if fn != nil {
		fn(v)
	}
}

func (b *Buffer[T]) stopLocked() {
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
