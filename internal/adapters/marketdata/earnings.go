package marketdata

import (
	"context"
	"math"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/cache"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// inLineThresholdPct is the EPS surprise band treated as meeting estimates
const inLineThresholdPct = 2.0

// calendarLookahead bounds how far ahead we look for the next report date
const calendarLookahead = 120 * 24 * time.Hour

// EarningsFetcher retrieves the last reported quarter and the next
// scheduled report date.
type EarningsFetcher struct {
	client *Client
	store  *cache.Store
	ttl    time.Duration
	now    func() time.Time
}

// NewEarningsFetcher creates the earnings fetcher
func NewEarningsFetcher(client *Client, store *cache.Store, ttl time.Duration) *EarningsFetcher {
	return &EarningsFetcher{client: client, store: store, ttl: ttl, now: time.Now}
}

func (f *EarningsFetcher) Name() string { return models.SourceEarnings }

// Fetch implements fetch.Fetcher
func (f *EarningsFetcher) Fetch(ctx context.Context, subject models.Subject, _ time.Duration, useCache bool) models.FetchResult {
	if useCache {
		if snap, ok := cache.ReadAs[models.EarningsSnapshot](f.store, subject, f.Name(), f.ttl); ok {
			logger.Info("earnings cache hit", zap.String("symbol", subject.Symbol))
			return models.FetchResult{Source: f.Name(), Status: models.FetchOK, Earnings: snap}
		}
	}

	logger.Info("fetching earnings data", zap.String("symbol", subject.Symbol))

	snap, err := f.fetchSnapshot(ctx, subject)
	if err != nil {
		return models.FailedResult(f.Name(), err)
	}

	if err := f.store.Write(subject, f.Name(), snap); err != nil {
		logger.Warn("failed to cache earnings data", zap.Error(err))
	}
	return models.FetchResult{Source: f.Name(), Status: models.FetchOK, Earnings: snap}
}

type reportedQuarter struct {
	Actual      *float64 `json:"actual"`
	Estimate    *float64 `json:"estimate"`
	Period      string   `json:"period"`
	SurprisePct *float64 `json:"surprisePercent"`
}

type calendarResponse struct {
	EarningsCalendar []struct {
		Date            string   `json:"date"`
		EPSActual       *float64 `json:"epsActual"`
		EPSEstimate     *float64 `json:"epsEstimate"`
		RevenueActual   *float64 `json:"revenueActual"`
		RevenueEstimate *float64 `json:"revenueEstimate"`
	} `json:"earningsCalendar"`
}

func (f *EarningsFetcher) fetchSnapshot(ctx context.Context, subject models.Subject) (*models.EarningsSnapshot, error) {
	symbol := subject.Root()

	var reported []reportedQuarter
	if err := f.client.getJSON(ctx, "/stock/earnings", url.Values{"symbol": {symbol}}, &reported); err != nil {
		return nil, err
	}

	snap := &models.EarningsSnapshot{
		FetchedAt: f.now().UTC(),
		Symbol:    subject.Symbol,
	}

	if len(reported) > 0 {
		// Finnhub returns reported quarters newest first
		snap.LastQuarter = buildQuarter(reported[0])
	}

	f.fillNextDate(ctx, symbol, snap)

	logger.Debug("earnings snapshot built",
		zap.String("symbol", subject.Symbol),
		zap.Bool("has_last_quarter", snap.LastQuarter != nil),
		zap.Bool("has_next_date", snap.NextDate != nil),
	)
	return snap, nil
}

// fillNextDate queries the earnings calendar for the next scheduled
// report. Calendar access needs a higher API tier on some plans, so a
// failure here only logs and leaves the fields unset.
func (f *EarningsFetcher) fillNextDate(ctx context.Context, symbol string, snap *models.EarningsSnapshot) {
	now := f.now().UTC()
	params := url.Values{
		"symbol": {symbol},
		"from":   {now.Format("2006-01-02")},
		"to":     {now.Add(calendarLookahead).Format("2006-01-02")},
	}

	var cal calendarResponse
	if err := f.client.getJSON(ctx, "/calendar/earnings", params, &cal); err != nil {
		logger.Warn("earnings calendar unavailable", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	today := now.Format("2006-01-02")
	for _, entry := range cal.EarningsCalendar {
		if entry.Date < today || entry.EPSActual != nil {
			continue
		}
		if snap.NextDate == nil || entry.Date < *snap.NextDate {
			date := entry.Date
			snap.NextDate = &date
		}
	}

	if snap.NextDate != nil {
		when, err := time.Parse("2006-01-02", *snap.NextDate)
		if err == nil {
			days := int(math.Ceil(when.Sub(now).Hours() / 24))
			if days < 0 {
				days = 0
			}
			snap.DaysUntilNext = &days
		}
	}
}

func buildQuarter(q reportedQuarter) *models.QuarterResult {
	result := &models.QuarterResult{
		Period:         q.Period,
		EPSEstimate:    q.Estimate,
		EPSActual:      q.Actual,
		EPSSurprisePct: q.SurprisePct,
		BeatOrMiss:     models.EarningsNA,
	}
	if result.EPSSurprisePct == nil && q.Actual != nil && q.Estimate != nil && *q.Estimate != 0 {
		pct := (*q.Actual - *q.Estimate) / math.Abs(*q.Estimate) * 100
		result.EPSSurprisePct = &pct
	}
	result.BeatOrMiss = classifySurprise(result.EPSSurprisePct)
	return result
}

// classifySurprise maps an EPS surprise percentage to a verdict. Within
// inLineThresholdPct of the estimate counts as in line.
func classifySurprise(surprisePct *float64) string {
	switch {
	case surprisePct == nil:
		return models.EarningsNA
	case *surprisePct > inLineThresholdPct:
		return models.EarningsBeat
	case *surprisePct < -inLineThresholdPct:
		return models.EarningsMiss
	default:
		return models.EarningsInLine
	}
}
