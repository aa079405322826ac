package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minewiki/itemscraper/internal/fetcher"
	"github.com/minewiki/itemscraper/internal/progress"
	"github.com/minewiki/itemscraper/internal/wiki"
)

// ErrListingUnavailable marks a run aborted because the item listing could
// not be retrieved. No output file exists in that case.
var ErrListingUnavailable = errors.New("item listing unavailable")

// RunnerConfig identifies the pages to scrape and where the report goes.
type RunnerConfig struct {
	// ListingURL is the page holding the item columns.
	ListingURL string
	// Origin is the scheme://host prefix joined to detail links. Derived
	// from ListingURL when empty.
	Origin string
	// OutputPath is the JSON report destination.
	OutputPath string
}

// Runner drives one scrape run end to end.
type Runner struct {
	cfg     RunnerConfig
	fetch   fetcher.Fetcher
	pool    *Pool
	results *Results
	emitter progress.Emitter
	logger  *zap.Logger
}

// NewRunner constructs a Runner. The emitter may be nil.
func NewRunner(
	cfg RunnerConfig,
	fetch fetcher.Fetcher,
	pool *Pool,
	results *Results,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		fetch:   fetch,
		pool:    pool,
		results: results,
		emitter: emitter,
		logger:  logger,
	}
}

// Run executes the scrape. A canceled context saves whatever completed and
// returns nil; a listing failure returns ErrListingUnavailable and writes
// nothing.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	logger := r.logger.With(zap.String("run_id", runID))

	origin := r.cfg.Origin
	if origin == "" {
		derived, err := originOf(r.cfg.ListingURL)
		if err != nil {
			return err
		}
		origin = derived
	}

	logger.Info("fetching item listing", zap.String("url", r.cfg.ListingURL))
	resp, err := r.fetch.Fetch(ctx, r.cfg.ListingURL)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("interrupted before the listing was fetched")
			return nil
		}
		return fmt.Errorf("%w: %v", ErrListingUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrListingUnavailable, resp.StatusCode)
	}

	candidates, err := wiki.Candidates(resp.Body, origin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListingUnavailable, err)
	}
	logger.Info("item listing parsed", zap.Int("candidates", len(candidates)))

	r.emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: progress.StageRunStart,
	})

	completed := r.pool.Run(ctx, runID, candidates)
	interrupted := ctx.Err() != nil

	if err := r.results.Save(r.cfg.OutputPath); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	result := progress.ResultCompleted
	if interrupted {
		result = progress.ResultInterrupted
		logger.Warn("scrape interrupted, saved partial results",
			zap.Int64("items", completed),
			zap.String("output", r.cfg.OutputPath),
		)
	} else {
		logger.Info("scrape complete",
			zap.Int64("items", completed),
			zap.String("output", r.cfg.OutputPath),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	r.emit(progress.Event{
		RunID:  runID,
		TS:     time.Now().UTC(),
		Stage:  progress.StageRunDone,
		Items:  completed,
		Dur:    time.Since(start),
		Result: result,
	})
	return nil
}

func (r *Runner) emit(evt progress.Event) {
	if r.emitter != nil {
		r.emitter.Emit(evt)
	}
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("listing url %q has no scheme or host", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
