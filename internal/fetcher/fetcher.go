// Package fetcher provides the scraper's HTTP fetch capability: a colly
// backed base fetcher wrapped by cache, retry and rate-limit decorators.
package fetcher

import (
	"context"
	"time"
)

// Response is the outcome of one completed fetch. A non-2xx status is a
// completed fetch, not an error; errors are reserved for transport failures.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
	FromCache  bool
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}
