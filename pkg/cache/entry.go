package cache

import (
	"time"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is a point-in-time view of a cached query.
type Entry struct {
	Key string

	// Data is the last successful result. It is kept when a later fetch fails.
	Data any

	// FetchedAt is set only on success.
	FetchedAt time.Time

	Status Status
	Err    error

	LastAccessedAt time.Time

	// IsFetching is true while a request for this key is in flight,
	// including background revalidation of existing data.
	IsFetching bool

	Subscribers int
}

// HasData returns true if the entry holds a successful result.
func (e *Entry) HasData() bool {
	return !e.FetchedAt.IsZero()
}

// IsStale returns true if the entry has no data or its data is at least
// staleTime old.
func (e *Entry) IsStale(now time.Time, staleTime time.Duration) bool {
	if !e.HasData() {
		return true
	}
	return now.Sub(e.FetchedAt) >= staleTime
}

// Age returns the time since the last successful fetch.
// Returns 0 if the entry has no data.
func (e *Entry) Age(now time.Time) time.Duration {
	if !e.HasData() {
		return 0
	}
	age := now.Sub(e.FetchedAt)
	if age < 0 {
		return 0
	}
	return age
}
