package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	MarketData MarketDataConfig `envconfig:"MARKETDATA"`
	News       NewsConfig       `envconfig:"NEWS"`
	Social     SocialConfig     `envconfig:"SOCIAL"`
	Filings    FilingsConfig    `envconfig:"FILINGS"`
	AI         AIConfig         `envconfig:"AI"`
	Cache      CacheConfig      `envconfig:"CACHE"`
	Bundle     BundleConfig     `envconfig:"BUNDLE"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// MarketDataConfig covers the price and earnings fetchers
type MarketDataConfig struct {
	APIKey  string        `envconfig:"FINNHUB_API_KEY" required:"false"`
	BaseURL string        `envconfig:"FINNHUB_BASE_URL" default:"https://finnhub.io/api/v1"`
	Timeout time.Duration `envconfig:"MARKETDATA_TIMEOUT" default:"15s"`
}

// NewsConfig covers the two news providers
type NewsConfig struct {
	NewsAPIKey  string        `envconfig:"NEWS_API_KEY" required:"false"`
	NewsAPIBase string        `envconfig:"NEWSAPI_BASE_URL" default:"https://newsapi.org/v2"`
	Timeout     time.Duration `envconfig:"NEWS_TIMEOUT" default:"15s"`
}

// SocialConfig covers the Reddit fetcher. The public JSON API needs no
// credentials, only a descriptive User-Agent and polite pacing.
type SocialConfig struct {
	BaseURL      string        `envconfig:"REDDIT_BASE_URL" default:"https://www.reddit.com"`
	UserAgent    string        `envconfig:"REDDIT_USER_AGENT" default:"stockbrief/1.0 (research tool)"`
	Subreddits   []string      `envconfig:"REDDIT_SUBREDDITS" default:"wallstreetbets,stocks,investing,options"`
	PostsPerSub  int           `envconfig:"REDDIT_POSTS_PER_SUB" default:"15"`
	MaxComments  int           `envconfig:"REDDIT_MAX_COMMENTS" default:"3"`
	RequestDelay time.Duration `envconfig:"REDDIT_REQUEST_DELAY" default:"600ms"`
	Timeout      time.Duration `envconfig:"REDDIT_TIMEOUT" default:"15s"`
}

// FilingsConfig covers the EDGAR fetcher
type FilingsConfig struct {
	UserAgent      string        `envconfig:"EDGAR_USER_AGENT" required:"false"`
	SubmissionsURL string        `envconfig:"EDGAR_SUBMISSIONS_URL" default:"https://data.sec.gov/submissions"`
	TickersURL     string        `envconfig:"EDGAR_TICKERS_URL" default:"https://www.sec.gov/files/company_tickers.json"`
	ArchivesURL    string        `envconfig:"EDGAR_ARCHIVES_URL" default:"https://www.sec.gov/Archives/edgar/data"`
	Timeout        time.Duration `envconfig:"EDGAR_TIMEOUT" default:"20s"`
}

// AIConfig represents the synthesis service client configuration
type AIConfig struct {
	APIKey     string        `envconfig:"ANTHROPIC_API_KEY" required:"false"`
	BaseURL    string        `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	Model      string        `envconfig:"AI_MODEL" default:"claude-sonnet-4-5-20250929"`
	MaxTokens  int           `envconfig:"AI_MAX_TOKENS" default:"4096"`
	MaxRetries int           `envconfig:"AI_MAX_RETRIES" default:"3"`
	BaseDelay  time.Duration `envconfig:"AI_RETRY_BASE_DELAY" default:"1s"`
	Timeout    time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
}

// CacheConfig represents the file cache store configuration
type CacheConfig struct {
	Dir string        `envconfig:"CACHE_DIR"`
	TTL time.Duration `envconfig:"CACHE_TTL" default:"4h"`
}

// BundleConfig caps fetcher output and the context budget
type BundleConfig struct {
	MaxContextTokens int `envconfig:"MAX_CONTEXT_TOKENS" default:"80000"`
	MaxArticles      int `envconfig:"MAX_ARTICLES" default:"50"`
	MaxPosts         int `envconfig:"MAX_POSTS" default:"30"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(xdg.CacheHome, "stockbrief")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid. Each missing key is reported
// with a hint so the operator knows exactly what to fix.
func (c *Config) Validate() error {
	var missing []string
	if c.MarketData.APIKey == "" {
		missing = append(missing, "FINNHUB_API_KEY (https://finnhub.io)")
	}
	if c.News.NewsAPIKey == "" {
		missing = append(missing, "NEWS_API_KEY (https://newsapi.org)")
	}
	if c.Filings.UserAgent == "" {
		missing = append(missing, "EDGAR_USER_AGENT (e.g. 'stockbrief/1.0 you@example.com')")
	}
	if c.AI.APIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY (https://console.anthropic.com)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}

	if c.AI.MaxRetries < 1 {
		return fmt.Errorf("AI_MAX_RETRIES must be at least 1")
	}
	if c.Bundle.MaxContextTokens <= 0 {
		return fmt.Errorf("MAX_CONTEXT_TOKENS must be positive")
	}
	if c.Bundle.MaxArticles < 1 || c.Bundle.MaxPosts < 1 {
		return fmt.Errorf("MAX_ARTICLES and MAX_POSTS must be at least 1")
	}
	if c.Social.PostsPerSub < 1 {
		return fmt.Errorf("REDDIT_POSTS_PER_SUB must be at least 1")
	}

	return nil
}
