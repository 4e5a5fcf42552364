package cache

import (
	"sync"
	"sync/atomic"
)

// Observer is a live subscription to one cache entry. While it is open the
// entry is never garbage collected.
type Observer struct {
	cache    *Cache
	key      string
	onChange func()

	once   sync.Once
	closed atomic.Bool
}

// Key returns the cache key string the observer is attached to.
func (o *Observer) Key() string {
	return o.key
}

// Snapshot returns the current state of the entry.
func (o *Observer) Snapshot() Entry {
	return o.cache.snapshot(o)
}

// Refetch forces a new request for the entry, keeping existing data visible.
// It joins the in-flight request if there is one.
func (o *Observer) Refetch() {
	if o.closed.Load() {
		return
	}
	o.cache.refetch(o)
}

// Close detaches the observer. Closing the last observer of a key aborts its
// in-flight request and starts the garbage collection window.
func (o *Observer) Close() {
	o.once.Do(func() {
		if !o.closed.Load() {
			o.cache.unsubscribe(o)
		}
		o.closed.Store(true)
	})
}
