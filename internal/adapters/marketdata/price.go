package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/cache"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

const ohlcvDays = 30 // days of daily OHLCV history in the snapshot

// PriceFetcher retrieves current price statistics and recent OHLCV bars
type PriceFetcher struct {
	client *Client
	store  *cache.Store
	ttl    time.Duration
}

// NewPriceFetcher creates the price fetcher
func NewPriceFetcher(client *Client, store *cache.Store, ttl time.Duration) *PriceFetcher {
	return &PriceFetcher{client: client, store: store, ttl: ttl}
}

func (f *PriceFetcher) Name() string { return models.SourcePrice }

// Fetch implements fetch.Fetcher. A symbol that does not resolve to a
// quoted security is a failure; partial stats (missing P/E, beta, bars)
// degrade gracefully inside a successful result.
func (f *PriceFetcher) Fetch(ctx context.Context, subject models.Subject, _ time.Duration, useCache bool) models.FetchResult {
	if useCache {
		if snap, ok := cache.ReadAs[models.PriceSnapshot](f.store, subject, f.Name(), f.ttl); ok {
			logger.Info("price cache hit", zap.String("symbol", subject.Symbol))
			return models.FetchResult{Source: f.Name(), Status: models.FetchOK, Price: snap}
		}
	}

	logger.Info("fetching price data", zap.String("symbol", subject.Symbol))

	snap, err := f.fetchSnapshot(ctx, subject)
	if err != nil {
		return models.FailedResult(f.Name(), err)
	}

	if err := f.store.Write(subject, f.Name(), snap); err != nil {
		logger.Warn("failed to cache price data", zap.Error(err))
	}
	return models.FetchResult{Source: f.Name(), Status: models.FetchOK, Price: snap}
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePct     float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

type profileResponse struct {
	Name      string  `json:"name"`
	Currency  string  `json:"currency"`
	Industry  string  `json:"finnhubIndustry"`
	MarketCap float64 `json:"marketCapitalization"` // millions
	Exchange  string  `json:"exchange"`
}

type metricResponse struct {
	Metric struct {
		Week52High     float64  `json:"52WeekHigh"`
		Week52Low      float64  `json:"52WeekLow"`
		PETrailing     *float64 `json:"peTTM"`
		PEForward      *float64 `json:"peAnnual"`
		EPSTrailing    *float64 `json:"epsTTM"`
		DividendYield  *float64 `json:"dividendYieldIndicatedAnnual"`
		Beta           *float64 `json:"beta"`
		Volume10Day    float64  `json:"10DayAverageTradingVolume"` // millions of shares
		Volume3Month   float64  `json:"3MonthAverageTradingVolume"`
	} `json:"metric"`
}

type candleResponse struct {
	Status  string    `json:"s"` // "ok" or "no_data"
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

func (f *PriceFetcher) fetchSnapshot(ctx context.Context, subject models.Subject) (*models.PriceSnapshot, error) {
	symbol := subject.Root()

	var quote quoteResponse
	if err := f.client.getJSON(ctx, "/quote", url.Values{"symbol": {symbol}}, &quote); err != nil {
		return nil, err
	}
	// Finnhub returns an all-zero quote for unknown symbols instead of a 404
	if quote.Current == 0 && quote.PreviousClose == 0 {
		return nil, fmt.Errorf("symbol %q did not resolve to a quoted security", subject.Symbol)
	}

	var profile profileResponse
	if err := f.client.getJSON(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &profile); err != nil {
		logger.Warn("company profile unavailable", zap.String("symbol", symbol), zap.Error(err))
	}

	var metric metricResponse
	if err := f.client.getJSON(ctx, "/stock/metric", url.Values{"symbol": {symbol}, "metric": {"all"}}, &metric); err != nil {
		logger.Warn("key metrics unavailable", zap.String("symbol", symbol), zap.Error(err))
	}

	currency := profile.Currency
	if currency == "" {
		currency = "USD"
	}

	snap := &models.PriceSnapshot{
		FetchedAt:       time.Now().UTC(),
		Symbol:          subject.Symbol,
		CompanyName:     profile.Name,
		Sector:          profile.Industry,
		Currency:        currency,
		CurrentPrice:    decimal.NewFromFloat(quote.Current),
		PreviousClose:   decimal.NewFromFloat(quote.PreviousClose),
		DayChange:       decimal.NewFromFloat(quote.Change),
		DayChangePct:    quote.ChangePct,
		Week52High:      decimal.NewFromFloat(metric.Metric.Week52High),
		Week52Low:       decimal.NewFromFloat(metric.Metric.Week52Low),
		MarketCap:       int64(profile.MarketCap * 1_000_000),
		Volume10DayAvg:  int64(metric.Metric.Volume10Day * 1_000_000),
		Volume3MonthAvg: int64(metric.Metric.Volume3Month * 1_000_000),
		PETrailing:      metric.Metric.PETrailing,
		PEForward:       metric.Metric.PEForward,
		EPSTrailing:     metric.Metric.EPSTrailing,
		DividendYield:   metric.Metric.DividendYield,
		Beta:            metric.Metric.Beta,
		Bars:            f.fetchBars(ctx, symbol),
	}

	logger.Debug("price snapshot built",
		zap.String("symbol", subject.Symbol),
		zap.String("currency", currency),
		zap.Int("bars", len(snap.Bars)),
	)
	return snap, nil
}

// fetchBars returns up to ohlcvDays daily bars, oldest first. Candle
// failures are non-fatal; the rest of the snapshot is still usable.
func (f *PriceFetcher) fetchBars(ctx context.Context, symbol string) []models.OHLCVBar {
	now := time.Now().UTC()
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {strconv.FormatInt(now.AddDate(0, 0, -ohlcvDays).Unix(), 10)},
		"to":         {strconv.FormatInt(now.Unix(), 10)},
	}

	var candles candleResponse
	if err := f.client.getJSON(ctx, "/stock/candle", params, &candles); err != nil {
		logger.Warn("OHLCV history unavailable", zap.String("symbol", symbol), zap.Error(err))
		return nil
	}
	if candles.Status != "ok" || len(candles.Times) == 0 {
		logger.Warn("no OHLCV history returned", zap.String("symbol", symbol))
		return nil
	}

	bars := make([]models.OHLCVBar, 0, len(candles.Times))
	for i := range candles.Times {
		if i >= len(candles.Opens) || i >= len(candles.Highs) ||
			i >= len(candles.Lows) || i >= len(candles.Closes) || i >= len(candles.Volumes) {
			break
		}
		bars = append(bars, models.OHLCVBar{
			Date:   time.Unix(candles.Times[i], 0).UTC().Format("2006-01-02"),
			Open:   candles.Opens[i],
			High:   candles.Highs[i],
			Low:    candles.Lows[i],
			Close:  candles.Closes[i],
			Volume: int64(candles.Volumes[i]),
		})
	}
	return bars
}
