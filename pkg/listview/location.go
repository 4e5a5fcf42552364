package listview

import (
	"net/url"
	"strings"
	"sync"
)

// Location is the address the view state lives in. Only the query string is
// read and written; the path belongs to the caller.
type Location interface {
	// Query returns the current query string, with or without a leading "?".
	Query() string

	// Replace swaps the query string in place without a navigation reload.
	Replace(query string)
}

// MemoryLocation is an in-process Location that remembers every query it
// was given.
type MemoryLocation struct {
	mu      sync.Mutex
	path    string
	query   string
	history []string
}

// NewMemoryLocation creates a location from a relative URL such as
// "/jobs?city=Shenzhen". Input that does not parse is treated as a path.
func NewMemoryLocation(rawURL string) *MemoryLocation {
	loc := &MemoryLocation{path: rawURL}
	if u, err := url.Parse(rawURL); err == nil {
		loc.path = u.Path
		loc.query = u.RawQuery
	} else if path, query, found := strings.Cut(rawURL, "?"); found {
		loc.path = path
		loc.query = query
	}
	loc.history = []string{loc.query}
	return loc
}

// Query implements Location.
func (l *MemoryLocation) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Replace implements Location.
func (l *MemoryLocation) Replace(query string) {
	query = strings.TrimPrefix(query, "?")

	l.mu.Lock()
	defer l.mu.Unlock()
	if query == l.query {
		return
	}
	l.query = query
	l.history = append(l.history, query)
}

// Back restores the previous query, like a browser back button. It returns
// false at the start of the history. Callers must Sync the view afterwards.
func (l *MemoryLocation) Back() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.history) < 2 {
		return false
	}
	l.history = l.history[:len(l.history)-1]
	l.query = l.history[len(l.history)-1]
	return true
}

// Path returns the path, which Replace never touches.
func (l *MemoryLocation) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// History returns every query the location has held, oldest first.
func (l *MemoryLocation) History() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.history...)
}

// String returns the full relative URL.
func (l *MemoryLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.query == "" {
		return l.path
	}
	return l.path + "?" + l.query
}
