package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached API response.
type CacheKey struct {
	// Endpoint is the API path (e.g., "/api/v1/jobs")
	Endpoint string

	// PathParams are the path parameters (e.g., {"job_id": "42"})
	PathParams map[string]string

	// QueryParams are the normalized query parameters
	QueryParams url.Values
}

// String generates a deterministic cache key string. Empty values are
// dropped and the remaining parameters are sorted, so insertion order never
// produces a different key.
// Format: list:endpoint:param1=val1:query1=val1
//
// Example:
//
//	list:api/v1/jobs:city=Shenzhen:page=2:page_size=20:sort_by=time
func (k CacheKey) String() string {
	parts := []string{"list"}

	// Add endpoint (normalize path)
	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add path params (sorted for determinism)
	if len(k.PathParams) > 0 {
		pathKeys := make([]string, 0, len(k.PathParams))
		for key, value := range k.PathParams {
			if value != "" {
				pathKeys = append(pathKeys, key)
			}
		}
		sort.Strings(pathKeys)

		for _, key := range pathKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, url.QueryEscape(k.PathParams[key])))
		}
	}

	// Add query params (sorted for determinism)
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			if k.QueryParams.Get(key) != "" {
				queryKeys = append(queryKeys, key)
			}
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, url.QueryEscape(k.QueryParams.Get(key))))
		}
	}

	return strings.Join(parts, ":")
}

// SameEndpoint reports whether k addresses endpoint, ignoring surrounding slashes.
func (k CacheKey) SameEndpoint(endpoint string) bool {
	return strings.Trim(k.Endpoint, "/") == strings.Trim(endpoint, "/")
}
