package fetcher

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Statuses that warrant another attempt.
var retryStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// RetryFetcher decorates a Fetcher with bounded, jittered retries for
// transport errors and transient HTTP statuses.
type RetryFetcher struct {
	next   Fetcher
	cfg    RetryConfig
	logger *zap.Logger
}

// NewRetry wraps next with retry behavior.
func NewRetry(next Fetcher, cfg RetryConfig, logger *zap.Logger) *RetryFetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 250 * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryFetcher{next: next, cfg: cfg, logger: logger}
}

// Fetch retries until the attempt budget is spent. A transient status that
// survives every attempt is returned without error: the fetch completed, and
// the caller decides what a bad status means. A transport error that survives
// every attempt is returned as the error of the whole fetch.
func (f *RetryFetcher) Fetch(ctx context.Context, url string) (Response, error) {
	var (
		resp    Response
		lastErr error
	)
	for attempt := 0; attempt < f.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := f.pause(ctx, f.backoff(attempt-1)); err != nil {
				return Response{}, err
			}
		}
		resp, lastErr = f.next.Fetch(ctx, url)
		if lastErr != nil {
			if !retryable(ctx, lastErr) {
				return Response{}, lastErr
			}
			f.logger.Debug("fetch attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr),
			)
			continue
		}
		if _, transient := retryStatuses[resp.StatusCode]; !transient {
			return resp, nil
		}
		f.logger.Debug("transient status",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Int("status", resp.StatusCode),
		)
	}
	if lastErr != nil {
		return Response{}, lastErr
	}
	return resp, nil
}

// retryable reports whether another attempt may help. Cancellation of the
// run's own context never retries; a per-request deadline does, because the
// next attempt gets a fresh request.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func (f *RetryFetcher) backoff(attempt int) time.Duration {
	delay := float64(f.cfg.BackoffBase) * math.Pow(2, float64(attempt))
	if delay > float64(f.cfg.BackoffMax) {
		delay = float64(f.cfg.BackoffMax)
	}
	half := time.Duration(delay / 2)
	return half + randomJitter(half)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

func (f *RetryFetcher) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
