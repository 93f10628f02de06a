package outcome

import (
	"net/http"
	"strings"
)

// cacheHeaders are the response headers inspected for a cache verdict,
// in priority order. The list covers the common CDN conventions
// (Cloudflare, Vercel, Varnish, generic reverse proxies).
var cacheHeaders = []string{
	"X-Cache",
	"X-Cache-Status",
	"Cf-Cache-Status",
	"X-Cache-Lookup",
	"X-Cdn-Cache-Status",
	"X-Backend-Cache-Status",
	"X-Vercel-Cache",
}

// CacheStatus is the raw cache verdict reported by a CDN or reverse proxy.
type CacheStatus int

const (
	CacheUnknown CacheStatus = iota
	CacheHit
	CacheMiss
	CacheStale
	CacheExpired
	CacheRevalidated
	CacheBypass
	CacheDynamic
	CacheError
)

// CacheCategory groups raw statuses for rate computation: anything served
// from cache counts as a hit, anything fetched from origin as a miss.
type CacheCategory int

const (
	CategoryUnknown CacheCategory = iota
	CategoryHit
	CategoryMiss
)

var cacheStatusNames = map[CacheStatus]string{
	CacheUnknown:     "unknown",
	CacheHit:         "hit",
	CacheMiss:        "miss",
	CacheStale:       "stale",
	CacheExpired:     "expired",
	CacheRevalidated: "revalidated",
	CacheBypass:      "bypass",
	CacheDynamic:     "dynamic",
	CacheError:       "error",
}

func (s CacheStatus) String() string {
	return cacheStatusNames[s]
}

// Category maps a raw status to its hit/miss bucket.
func (s CacheStatus) Category() CacheCategory {
	switch s {
	case CacheHit, CacheRevalidated, CacheStale:
		return CategoryHit
	case CacheMiss, CacheExpired, CacheBypass, CacheDynamic:
		return CategoryMiss
	default:
		return CategoryUnknown
	}
}

// ParseCacheValue parses a single header value into a CacheStatus.
func ParseCacheValue(value string) CacheStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "hit":
		return CacheHit
	case "miss":
		return CacheMiss
	case "stale":
		return CacheStale
	case "expired":
		return CacheExpired
	case "revalidated":
		return CacheRevalidated
	case "bypass":
		return CacheBypass
	case "dynamic":
		return CacheDynamic
	case "error":
		return CacheError
	default:
		return CacheUnknown
	}
}

// ParseCacheStatus scans response headers for a cache verdict. The second
// return value is false when no cache-indicating header is present at all,
// which is distinct from an unrecognized value (CacheUnknown, true).
func ParseCacheStatus(h http.Header) (CacheStatus, bool) {
	for _, name := range cacheHeaders {
		if v := h.Get(name); v != "" {
			return ParseCacheValue(v), true
		}
	}
	return CacheUnknown, false
}
