package cache

import (
	"testing"
	"time"
)

func TestEntry_IsStale(t *testing.T) {
	now := time.Now()
	staleTime := 30 * time.Second

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      bool
	}{
		{
			name:      "never fetched",
			fetchedAt: time.Time{},
			want:      true,
		},
		{
			name:      "fresh entry",
			fetchedAt: now.Add(-10 * time.Second),
			want:      false,
		},
		{
			name:      "exactly stale time",
			fetchedAt: now.Add(-staleTime),
			want:      true,
		},
		{
			name:      "old entry",
			fetchedAt: now.Add(-1 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				FetchedAt: tt.fetchedAt,
			}
			if got := entry.IsStale(now, staleTime); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      time.Duration
	}{
		{
			name:      "no data",
			fetchedAt: time.Time{},
			want:      0,
		},
		{
			name:      "five minutes old",
			fetchedAt: now.Add(-5 * time.Minute),
			want:      5 * time.Minute,
		},
		{
			name:      "clock skew",
			fetchedAt: now.Add(time.Minute),
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				FetchedAt: tt.fetchedAt,
			}
			if got := entry.Age(now); got != tt.want {
				t.Errorf("Age() = %v, want %v", got, tt.want)
			}
		})
	}
}
