package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// cacheEntry is the on-disk form of a cached response. Body round-trips as
// base64 through encoding/json.
type cacheEntry struct {
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
	Body       []byte    `json:"body"`
}

// CacheFetcher decorates a Fetcher with a read-through on-disk cache keyed by
// URL. Only 200 responses are stored; stale or unreadable entries are misses.
// Cache failures degrade to plain fetches, they never fail the request.
type CacheFetcher struct {
	next   Fetcher
	dir    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps next with the cache rooted at dir.
func NewCache(next Fetcher, dir string, ttl time.Duration, logger *zap.Logger) *CacheFetcher {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheFetcher{next: next, dir: dir, ttl: ttl, logger: logger}
}

// Fetch serves from the cache when a fresh entry exists, otherwise delegates
// and stores the result.
func (f *CacheFetcher) Fetch(ctx context.Context, url string) (Response, error) {
	if resp, ok := f.lookup(url); ok {
		return resp, nil
	}
	resp, err := f.next.Fetch(ctx, url)
	if err != nil {
		return Response{}, err
	}
	if resp.StatusCode == http.StatusOK {
		f.store(url, resp)
	}
	return resp, nil
}

func (f *CacheFetcher) lookup(url string) (Response, bool) {
	raw, err := os.ReadFile(f.entryPath(url))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Debug("cache read failed", zap.String("url", url), zap.Error(err))
		}
		return Response{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		f.logger.Debug("cache entry corrupt", zap.String("url", url), zap.Error(err))
		return Response{}, false
	}
	if entry.URL != url || time.Since(entry.FetchedAt) > f.ttl {
		return Response{}, false
	}
	return Response{
		URL:        url,
		StatusCode: entry.StatusCode,
		Body:       entry.Body,
		FromCache:  true,
	}, true
}

func (f *CacheFetcher) store(url string, resp Response) {
	entry := cacheEntry{
		URL:        url,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
		Body:       resp.Body,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		f.logger.Warn("cache encode failed", zap.String("url", url), zap.Error(err))
		return
	}
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		f.logger.Warn("cache dir create failed", zap.String("dir", f.dir), zap.Error(err))
		return
	}
	if err := os.WriteFile(f.entryPath(url), raw, 0o600); err != nil {
		f.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
}

func (f *CacheFetcher) entryPath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+".json")
}
