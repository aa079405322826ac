package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minewiki/itemscraper/internal/config"
	"github.com/minewiki/itemscraper/internal/fetcher"
	"github.com/minewiki/itemscraper/internal/logging"
	"github.com/minewiki/itemscraper/internal/progress"
	"github.com/minewiki/itemscraper/internal/progress/sinks"
	"github.com/minewiki/itemscraper/internal/scraper"
	"github.com/minewiki/itemscraper/internal/storage/postgres"
	"github.com/minewiki/itemscraper/internal/telemetry"
)

// newScrapeCmd creates and configures the 'scrape' subcommand.
func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Runs one scrape of the item listing",
		Long: `Fetches the configured listing page, resolves the stack size of every
item found there, and writes the aggregate JSON report. An interrupt saves
whatever completed so far and exits cleanly.`,
		RunE: runScrapeCommand,
	}
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, verbose || cfg.Logging.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cfg, logger)
}

func runScrape(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	origin, err := cfg.Origin()
	if err != nil {
		return err
	}

	hub, err := buildProgressHub(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("progress hub close failed", zap.Error(cerr))
		}
	}()

	var sink scraper.RecordSink
	if cfg.DB.DSN != "" {
		store, err := postgres.NewRecordStore(ctx, postgres.RecordStoreConfig{
			DSN:   cfg.DB.DSN,
			Table: cfg.DB.Table,
		})
		if err != nil {
			return fmt.Errorf("init record store: %w", err)
		}
		defer store.Close()
		sink = store
	}

	if cfg.Metrics.Addr != "" {
		metricsSrv, err := telemetry.Start(cfg.Metrics.Addr, nil, logger)
		if err != nil {
			return fmt.Errorf("start metrics listener: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("metrics listener shutdown failed", zap.Error(serr))
			}
		}()
	}

	fetch := buildFetcher(cfg, logger)
	results := scraper.NewResults()
	pool := scraper.NewPool(scraper.PoolConfig{
		Workers: cfg.Scrape.Concurrency,
		Delay:   cfg.Delay(),
	}, fetch, results, sink, hub, logger)
	runner := scraper.NewRunner(scraper.RunnerConfig{
		ListingURL: cfg.Wiki.ListingURL,
		Origin:     origin,
		OutputPath: cfg.Scrape.OutputPath,
	}, fetch, pool, results, hub, logger)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run scrape: %w", err)
	}
	return nil
}

// buildFetcher assembles the fetch decorator chain. The cache wraps the
// retries so hits skip the network entirely.
func buildFetcher(cfg config.Config, logger *zap.Logger) fetcher.Fetcher {
	var chain fetcher.Fetcher = fetcher.NewColly(fetcher.CollyConfig{
		UserAgent: cfg.Wiki.UserAgent,
		Timeout:   cfg.Timeout(),
	})
	chain = fetcher.NewThrottle(chain, cfg.HTTP.RateLimitRPS, 1)
	chain = fetcher.NewRetry(chain, fetcher.RetryConfig{
		MaxAttempts: cfg.HTTP.MaxAttempts,
		BackoffBase: cfg.BackoffInitial(),
		BackoffMax:  cfg.BackoffMax(),
	}, logger)
	if cfg.Cache.Dir != "" {
		chain = fetcher.NewCache(chain, cfg.Cache.Dir, cfg.CacheTTL(), logger)
	}
	return chain
}

func buildProgressHub(cfg config.Config, logger *zap.Logger) (*progress.Hub, error) {
	hubSinks := []progress.Sink{sinks.NewLogSink(logger)}
	if cfg.Metrics.Addr != "" {
		promSink, err := sinks.NewPrometheusSink(nil)
		if err != nil {
			return nil, fmt.Errorf("init prometheus sink: %w", err)
		}
		hubSinks = append(hubSinks, promSink)
	}
	return progress.NewHub(progress.Config{Logger: logger}, hubSinks...), nil
}
