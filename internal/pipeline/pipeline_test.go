package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/stockbrief/internal/bundle"
	"github.com/selivandex/stockbrief/internal/fetch"
	"github.com/selivandex/stockbrief/pkg/models"
)

type stubFetcher struct {
	name   string
	result models.FetchResult
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(context.Context, models.Subject, time.Duration, bool) models.FetchResult {
	return s.result
}

type stubAnalyzer struct {
	result     *models.AnalysisResult
	err        error
	calls      int
	gotBundle  string
}

func (s *stubAnalyzer) Analyze(_ context.Context, bundleText string) (*models.AnalysisResult, error) {
	s.calls++
	s.gotBundle = bundleText
	return s.result, s.err
}

func okAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		OverallSentiment: &models.SentimentScore{Score: 0.3, Label: "Slightly Bullish", Confidence: 0.6},
		NewsSentiment:    &models.NewsSentiment{Summary: "fine"},
		SocialSentiment:  &models.SocialSentiment{Mood: "Divided", Summary: "mixed"},
		Filings:          &models.FilingsAssessment{Summary: "none"},
		Earnings:         &models.EarningsAssessment{Summary: "beat", BeatOrMiss: models.EarningsBeat},
		BullCase:         []string{"growth"},
		BearCase:         []string{"valuation"},
		Verdict:          "constructive",
		DataQuality:      &models.DataQuality{},
	}
}

func okResult(source string) models.FetchResult {
	res := models.FetchResult{Source: source, Status: models.FetchOK}
	switch source {
	case models.SourcePrice:
		res.Price = &models.PriceSnapshot{Symbol: "AAPL", CompanyName: "Apple Inc", Currency: "USD"}
	case models.SourceNews:
		res.News = &models.NewsSet{Symbol: "AAPL", Articles: []models.NewsItem{
			{Title: "headline", URL: "https://n.example/1", PublishedAt: time.Now().UTC()},
		}}
	case models.SourceSocial:
		res.Social = &models.SocialSet{Symbol: "AAPL", Posts: []models.SocialPost{
			{ID: "p1", Subreddit: "stocks", Title: "post", Score: 10},
		}}
	case models.SourceFilings:
		res.Filings = &models.FilingSet{Symbol: "AAPL", USListed: true}
	case models.SourceEarnings:
		res.Earnings = &models.EarningsSnapshot{Symbol: "AAPL"}
	}
	return res
}

func allSources() []string {
	return []string{
		models.SourcePrice, models.SourceNews, models.SourceSocial,
		models.SourceFilings, models.SourceEarnings,
	}
}

func newPipeline(analyzer Analyzer, fetchers ...fetch.Fetcher) *Pipeline {
	orch := fetch.NewOrchestrator(fetchers, time.Second)
	return New(orch, bundle.NewBuilder(80_000), analyzer, 50, 30)
}

func TestRunHappyPath(t *testing.T) {
	var fetchers []fetch.Fetcher
	for _, src := range allSources() {
		fetchers = append(fetchers, &stubFetcher{name: src, result: okResult(src)})
	}
	analyzer := &stubAnalyzer{result: okAnalysis()}

	report, err := newPipeline(analyzer, fetchers...).Run(
		context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, true)

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, analyzer.calls)
	assert.Contains(t, analyzer.gotBundle, "<ticker_info>")
	assert.Contains(t, analyzer.gotBundle, "Symbol: AAPL")
	assert.Len(t, report.Results, 5)
	assert.Empty(t, report.Analysis.DataQuality.DataGaps)
	assert.False(t, report.Analysis.Degraded)
}

func TestRunPartialFailureProceedsWithGaps(t *testing.T) {
	var fetchers []fetch.Fetcher
	for _, src := range allSources() {
		if src == models.SourceSocial {
			fetchers = append(fetchers, &stubFetcher{
				name:   src,
				result: models.FailedResult(src, errors.New("reddit unreachable")),
			})
			continue
		}
		fetchers = append(fetchers, &stubFetcher{name: src, result: okResult(src)})
	}
	analyzer := &stubAnalyzer{result: okAnalysis()}

	report, err := newPipeline(analyzer, fetchers...).Run(
		context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, true)

	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls, "partial data still gets analyzed")
	assert.Contains(t, analyzer.gotBundle, "Reddit data unavailable.")
	assert.Contains(t, report.Analysis.DataQuality.DataGaps,
		"reddit data unavailable (fetch failed)")
}

func TestRunGapNoteSurfacesInDataQuality(t *testing.T) {
	var fetchers []fetch.Fetcher
	for _, src := range allSources() {
		res := okResult(src)
		if src == models.SourceFilings {
			res.GapNote = "No SEC filings (non-US listed security)"
			res.Filings.USListed = false
			res.Filings.Note = res.GapNote
		}
		fetchers = append(fetchers, &stubFetcher{name: src, result: res})
	}
	analyzer := &stubAnalyzer{result: okAnalysis()}

	report, err := newPipeline(analyzer, fetchers...).Run(
		context.Background(), models.NewSubject("SHOP.TO"), 14*24*time.Hour, true)

	require.NoError(t, err)
	assert.Contains(t, report.Analysis.DataQuality.DataGaps,
		"No SEC filings (non-US listed security)")
}

func TestRunAllFetchersFailedSkipsAnalysis(t *testing.T) {
	var fetchers []fetch.Fetcher
	for _, src := range allSources() {
		fetchers = append(fetchers, &stubFetcher{
			name:   src,
			result: models.FailedResult(src, errors.New("network down")),
		})
	}
	analyzer := &stubAnalyzer{result: okAnalysis()}

	report, err := newPipeline(analyzer, fetchers...).Run(
		context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, true)

	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrNoUsableData)
	assert.Nil(t, report)
	assert.Zero(t, analyzer.calls, "no API call when there is nothing to analyze")
}

func TestRunDegradedAnalysisIsReturned(t *testing.T) {
	var fetchers []fetch.Fetcher
	for _, src := range allSources() {
		fetchers = append(fetchers, &stubFetcher{name: src, result: okResult(src)})
	}
	analyzer := &stubAnalyzer{result: &models.AnalysisResult{
		Degraded:    true,
		RawResponse: "not json",
	}}

	report, err := newPipeline(analyzer, fetchers...).Run(
		context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, true)

	require.NoError(t, err)
	assert.True(t, report.Analysis.Degraded)
	assert.Equal(t, "not json", report.Analysis.RawResponse)
}

func TestRunAnalyzerErrorPropagates(t *testing.T) {
	var fetchers []fetch.Fetcher
	for _, src := range allSources() {
		fetchers = append(fetchers, &stubFetcher{name: src, result: okResult(src)})
	}
	wantErr := errors.New("analysis failed after 3 attempts")
	analyzer := &stubAnalyzer{err: wantErr}

	report, err := newPipeline(analyzer, fetchers...).Run(
		context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, true)

	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Nil(t, report)
}

func TestMergeGapsDedups(t *testing.T) {
	analysis := okAnalysis()
	analysis.DataQuality.DataGaps = []string{"No SEC filings (non-US listed security)"}

	results := map[string]models.FetchResult{}
	for _, src := range allSources() {
		results[src] = okResult(src)
	}
	res := results[models.SourceFilings]
	res.GapNote = "No SEC filings (non-US listed security)"
	results[models.SourceFilings] = res

	mergeGaps(analysis, results, bundle.Bundle{})

	count := 0
	for _, gap := range analysis.DataQuality.DataGaps {
		if gap == "No SEC filings (non-US listed security)" {
			count++
		}
	}
	assert.Equal(t, 1, count, "model-reported gap must not be duplicated")
}
