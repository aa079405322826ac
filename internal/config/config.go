// Package config loads and validates scraper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob of a scrape run. Running with an empty
// environment and no config file yields a fully working configuration.
type Config struct {
	Wiki    WikiConfig    `mapstructure:"wiki"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Cache   CacheConfig   `mapstructure:"cache"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// WikiConfig points the scraper at the wiki.
type WikiConfig struct {
	ListingURL string `mapstructure:"listing_url"`
	UserAgent  string `mapstructure:"user_agent"`
}

// ScrapeConfig governs the worker pool and the output file.
type ScrapeConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	DelayMs     int    `mapstructure:"delay_ms"`
	OutputPath  string `mapstructure:"output_path"`
}

// HTTPConfig configures fetch timeouts, retries and the optional rate limit.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxAttempts      int     `mapstructure:"max_attempts"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	RateLimitRPS     float64 `mapstructure:"rate_limit_rps"`
}

// CacheConfig controls the on-disk response cache. An empty dir disables it.
type CacheConfig struct {
	Dir        string `mapstructure:"dir"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// DBConfig enables the optional Postgres record sink. An empty DSN disables it.
type DBConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// MetricsConfig enables the optional metrics listener. An empty addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	Verbose     bool `mapstructure:"verbose"`
}

// Load builds a Config from defaults, an optional config file and SCRAPER_*
// environment variables. When path is empty a file named itemscraper.* in the
// working directory is used if present, and silently skipped otherwise.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("itemscraper")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("wiki.listing_url", "https://minecraft.wiki/w/Item#Lists_of_items")
	v.SetDefault("wiki.user_agent", "itemscraper/1.0 (+https://github.com/minewiki/itemscraper)")
	v.SetDefault("scrape.concurrency", 3)
	v.SetDefault("scrape.delay_ms", 200)
	v.SetDefault("scrape.output_path", "minecraft_items.json")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.rate_limit_rps", 0.0)
	v.SetDefault("cache.dir", "minecraft_cache")
	v.SetDefault("cache.ttl_seconds", 86400)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "minecraft_items")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.verbose", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if _, err := c.Origin(); err != nil {
		return err
	}
	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be > 0")
	}
	if c.Scrape.DelayMs < 0 {
		return fmt.Errorf("scrape.delay_ms must be >= 0")
	}
	if c.Scrape.OutputPath == "" {
		return fmt.Errorf("scrape.output_path must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts < 1 {
		return fmt.Errorf("http.max_attempts must be >= 1")
	}
	if c.HTTP.BackoffInitialMs <= 0 {
		return fmt.Errorf("http.backoff_initial_ms must be > 0")
	}
	if c.HTTP.BackoffMaxMs < c.HTTP.BackoffInitialMs {
		return fmt.Errorf("http.backoff_max_ms must be >= http.backoff_initial_ms")
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps must be >= 0")
	}
	if c.Cache.Dir != "" && c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be > 0 when cache.dir is set")
	}
	if c.DB.DSN != "" && c.DB.Table == "" {
		return fmt.Errorf("db.table must be set when db.dsn is set")
	}
	return nil
}

// Origin returns the scheme://host prefix that candidate links found on the
// listing page are resolved against.
func (c Config) Origin() (string, error) {
	u, err := url.Parse(c.Wiki.ListingURL)
	if err != nil {
		return "", fmt.Errorf("parse wiki.listing_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("wiki.listing_url must be an absolute http(s) URL, got %q", c.Wiki.ListingURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Timeout is the per-request HTTP timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Delay is the politeness pause each worker observes per item.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Scrape.DelayMs) * time.Millisecond
}

// BackoffInitial is the first retry backoff step.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax caps the retry backoff.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}

// CacheTTL is how long a cached response stays fresh.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
