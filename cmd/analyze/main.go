package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/selivandex/stockbrief/internal/adapters/ai"
	"github.com/selivandex/stockbrief/internal/adapters/config"
	"github.com/selivandex/stockbrief/internal/adapters/filings"
	"github.com/selivandex/stockbrief/internal/adapters/marketdata"
	"github.com/selivandex/stockbrief/internal/adapters/news"
	"github.com/selivandex/stockbrief/internal/adapters/social"
	"github.com/selivandex/stockbrief/internal/bundle"
	"github.com/selivandex/stockbrief/internal/cache"
	"github.com/selivandex/stockbrief/internal/fetch"
	"github.com/selivandex/stockbrief/internal/output"
	"github.com/selivandex/stockbrief/internal/pipeline"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// Exit codes
const (
	exitInvalidTicker = 1
	exitConfig        = 2
	exitNoData        = 3
	exitAnalysis      = 4
)

var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9-]{0,9}(\.[A-Z]{1,4})?$`)

func main() {
	// Parse flags
	var (
		days         = flag.Int("days", 14, "Days of historical news/data to fetch")
		noCache      = flag.Bool("no-cache", false, "Force fresh data fetch, ignoring cached results")
		budget       = flag.Int("budget", 0, "Context token budget override (0 uses config)")
		terminalOnly = flag.Bool("terminal-only", false, "Print to terminal only; skip the markdown report file")
		outputDir    = flag.String("output-dir", "reports", "Directory for saved report files")
		verbose      = flag.Bool("v", false, "Enable verbose/debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: analyze [flags] TICKER\n\n")
		fmt.Fprintf(os.Stderr, "Aggregate news, Reddit, SEC filings, earnings, and price data\n")
		fmt.Fprintf(os.Stderr, "for a stock ticker and produce a research brief.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(exitInvalidTicker)
	}

	subject := models.NewSubject(flag.Arg(0))
	if !tickerPattern.MatchString(subject.Symbol) {
		fmt.Fprintf(os.Stderr, "Error: invalid ticker symbol %q\n", flag.Arg(0))
		os.Exit(exitInvalidTicker)
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(exitConfig)
	}
	if *budget > 0 {
		cfg.Bundle.MaxContextTokens = *budget
	}

	// Initialize logger
	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(exitConfig)
	}
	defer logger.Sync()

	// Wire fetchers
	store := cache.NewStore(cfg.Cache.Dir)
	market := marketdata.NewClient(&cfg.MarketData)
	finnhubNews := news.NewFinnhubProvider(&cfg.MarketData, cfg.News.Timeout)

	orchestrator := fetch.NewOrchestrator([]fetch.Fetcher{
		marketdata.NewPriceFetcher(market, store, cfg.Cache.TTL),
		marketdata.NewEarningsFetcher(market, store, cfg.Cache.TTL),
		news.NewFetcher(finnhubNews, news.NewNewsAPIProvider(&cfg.News), finnhubNews, store, cfg.Cache.TTL),
		social.NewRedditFetcher(&cfg.Social, store, cfg.Cache.TTL),
		filings.NewEDGARFetcher(&cfg.Filings, store, cfg.Cache.TTL),
	}, 0)

	p := pipeline.New(
		orchestrator,
		bundle.NewBuilder(cfg.Bundle.MaxContextTokens),
		ai.NewClient(&cfg.AI),
		cfg.Bundle.MaxArticles,
		cfg.Bundle.MaxPosts,
	)

	fmt.Printf("\nAnalyzing %s...\n", subject)

	window := time.Duration(*days) * 24 * time.Hour
	report, err := p.Run(context.Background(), subject, window, !*noCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, fetch.ErrNoUsableData):
			os.Exit(exitNoData)
		case errors.Is(err, ai.ErrAnalysisFailed):
			os.Exit(exitAnalysis)
		default:
			os.Exit(exitInvalidTicker)
		}
	}

	for _, source := range []string{
		models.SourcePrice, models.SourceNews, models.SourceSocial,
		models.SourceFilings, models.SourceEarnings,
	} {
		if r := report.Results[source]; r.Failed() {
			fmt.Fprintf(os.Stderr, "Warning: %s fetcher failed, proceeding without it\n", source)
		}
	}

	output.NewTerminal(os.Stdout).Render(report)

	if !*terminalOnly {
		path, err := output.NewMarkdownWriter(*outputDir).Write(report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: markdown report failed: %v\n", err)
		} else {
			fmt.Printf("Markdown report: %s\n", path)
		}
	}
}
