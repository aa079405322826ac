package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// ThrottleFetcher decorates a Fetcher with a per-host token bucket.
type ThrottleFetcher struct {
	next  Fetcher
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewThrottle wraps next with a per-host rate limit. A non-positive rps
// disables throttling and returns next unchanged.
func NewThrottle(next Fetcher, rps float64, burst int) Fetcher {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &ThrottleFetcher{
		next:     next,
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch waits for a token for the URL's host, then delegates.
func (f *ThrottleFetcher) Fetch(ctx context.Context, rawURL string) (Response, error) {
	if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return f.next.Fetch(ctx, rawURL)
}

func (f *ThrottleFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(f.rps, f.burst)
		f.limiters[host] = limiter
	}
	return limiter
}
