package outcome

import (
	"net/http"
	"testing"
)

func TestParseCacheStatus(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    CacheStatus
		found   bool
	}{
		{
			name:    "cloudflare hit",
			headers: http.Header{"Cf-Cache-Status": []string{"HIT"}},
			want:    CacheHit,
			found:   true,
		},
		{
			name:    "x-cache miss",
			headers: http.Header{"X-Cache": []string{"Miss"}},
			want:    CacheMiss,
			found:   true,
		},
		{
			name:    "vercel stale",
			headers: http.Header{"X-Vercel-Cache": []string{"STALE"}},
			want:    CacheStale,
			found:   true,
		},
		{
			name:    "first header wins",
			headers: http.Header{"X-Cache": []string{"HIT"}, "Cf-Cache-Status": []string{"MISS"}},
			want:    CacheHit,
			found:   true,
		},
		{
			name:    "unrecognized value",
			headers: http.Header{"X-Cache-Status": []string{"TCP_MEM_HIT"}},
			want:    CacheUnknown,
			found:   true,
		},
		{
			name:    "no cache headers",
			headers: http.Header{"Content-Type": []string{"text/html"}},
			want:    CacheUnknown,
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ParseCacheStatus(tt.headers)
			if got != tt.want || found != tt.found {
				t.Errorf("ParseCacheStatus() = (%v, %v), want (%v, %v)", got, found, tt.want, tt.found)
			}
		})
	}
}

func TestCacheCategory(t *testing.T) {
	tests := []struct {
		status CacheStatus
		want   CacheCategory
	}{
		{CacheHit, CategoryHit},
		{CacheRevalidated, CategoryHit},
		{CacheStale, CategoryHit},
		{CacheMiss, CategoryMiss},
		{CacheExpired, CategoryMiss},
		{CacheBypass, CategoryMiss},
		{CacheDynamic, CategoryMiss},
		{CacheError, CategoryUnknown},
		{CacheUnknown, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.Category(); got != tt.want {
				t.Errorf("%v.Category() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
