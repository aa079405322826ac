package scraper

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/minewiki/itemscraper/internal/fetcher"
	"github.com/minewiki/itemscraper/internal/progress"
	"github.com/minewiki/itemscraper/internal/wiki"
)

const (
	defaultWorkers = 3

	// progressEvery is the completion interval between progress log lines.
	progressEvery = 50
)

// PoolConfig controls worker fan-out and pacing.
type PoolConfig struct {
	// Workers is the number of concurrent detail fetchers. Defaults to 3.
	Workers int
	// Delay is the pause after each item on the worker's critical path.
	// Zero or negative disables it.
	Delay time.Duration
}

// Pool resolves candidates concurrently with a fixed set of workers. A Pool
// drives one run at a time.
type Pool struct {
	cfg       PoolConfig
	fetch     fetcher.Fetcher
	results   *Results
	sink      RecordSink
	emitter   progress.Emitter
	logger    *zap.Logger
	completed atomic.Int64
}

// NewPool constructs a Pool. The sink and emitter may be nil.
func NewPool(
	cfg PoolConfig,
	fetch fetcher.Fetcher,
	results *Results,
	sink RecordSink,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:     cfg,
		fetch:   fetch,
		results: results,
		sink:    sink,
		emitter: emitter,
		logger:  logger,
	}
}

// Run drains the candidates and blocks until every worker has returned. It
// reports the number of records appended. Cancellation stops the drain and
// abandons items whose fetch or pause was interrupted.
func (p *Pool) Run(ctx context.Context, runID string, candidates []wiki.Candidate) int64 {
	p.completed.Store(0)

	jobs := make(chan wiki.Candidate, len(candidates))
	for _, cand := range candidates {
		jobs <- cand
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx, runID, jobs)
		}()
	}
	wg.Wait()
	return p.completed.Load()
}

func (p *Pool) work(ctx context.Context, runID string, jobs <-chan wiki.Candidate) {
	for {
		select {
		case <-ctx.Done():
			return
		case cand, ok := <-jobs:
			if !ok {
				return
			}
			p.process(ctx, runID, cand)
		}
	}
}

// process resolves a single candidate. Fetch failures and non-OK statuses
// fall back to a stack size of 1 so one broken page never sinks the run.
func (p *Pool) process(ctx context.Context, runID string, cand wiki.Candidate) {
	stack := wiki.NotStackable
	class := progress.StatusOther
	note := ""

	resp, err := p.fetch.Fetch(ctx, cand.URL)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			p.logger.Debug("abandoning item on shutdown", zap.String("item", cand.Name))
			return
		}
		note = "fetch failed"
		p.logger.Warn("detail fetch failed, assuming unstackable",
			zap.String("item", cand.Name),
			zap.String("url", cand.URL),
			zap.Error(err),
		)
	case resp.StatusCode != http.StatusOK:
		class = progress.Classify(resp.StatusCode)
		note = "unexpected status"
		p.logger.Warn("detail fetch returned unexpected status, assuming unstackable",
			zap.String("item", cand.Name),
			zap.String("url", cand.URL),
			zap.Int("status", resp.StatusCode),
		)
	default:
		stack = wiki.StackSize(resp.Body)
		class = progress.Classify(resp.StatusCode)
	}

	if !p.pause(ctx) {
		p.logger.Debug("abandoning item during pause", zap.String("item", cand.Name))
		return
	}

	rec := Record{Item: cand.Name, Stack: stack}
	if !p.results.Append(rec) {
		return
	}
	if p.sink != nil {
		if err := p.sink.StoreRecord(ctx, runID, rec); err != nil {
			p.logger.Warn("record sink store failed",
				zap.String("item", cand.Name),
				zap.Error(err),
			)
		}
	}
	done := p.completed.Add(1)
	if p.emitter != nil {
		p.emitter.Emit(progress.Event{
			RunID:       runID,
			TS:          time.Now().UTC(),
			Stage:       progress.StageItemDone,
			Item:        cand.Name,
			URL:         cand.URL,
			StatusClass: class,
			Stack:       stack,
			Items:       done,
			Dur:         resp.Duration,
			Note:        note,
		})
	}
	if done%progressEvery == 0 {
		p.logger.Info("scrape progress", zap.Int64("items", done))
	}
}

// pause enforces the per-item delay. It reports false when the run is
// canceled before the delay elapses.
func (p *Pool) pause(ctx context.Context) bool {
	if p.cfg.Delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(p.cfg.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
