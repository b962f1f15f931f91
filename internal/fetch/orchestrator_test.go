package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/stockbrief/pkg/models"
)

// stubFetcher returns a canned result, optionally after a delay or panic
type stubFetcher struct {
	name   string
	result models.FetchResult
	delay  time.Duration
	panics bool
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context, _ models.Subject, _ time.Duration, _ bool) models.FetchResult {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return models.FailedResult(s.name, ctx.Err())
		}
	}
	return s.result
}

func okResult(name string) models.FetchResult {
	return models.FetchResult{Source: name, Status: models.FetchOK}
}

func TestOrchestrator_AggregatesAllSources(t *testing.T) {
	fetchers := []Fetcher{
		&stubFetcher{name: models.SourcePrice, result: okResult(models.SourcePrice)},
		&stubFetcher{name: models.SourceNews, result: okResult(models.SourceNews)},
		&stubFetcher{name: models.SourceSocial, result: okResult(models.SourceSocial)},
		&stubFetcher{name: models.SourceFilings, result: okResult(models.SourceFilings)},
		&stubFetcher{name: models.SourceEarnings, result: okResult(models.SourceEarnings)},
	}

	o := NewOrchestrator(fetchers, time.Second)
	results, err := o.Run(context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, true)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, f := range fetchers {
		res, ok := results[f.Name()]
		require.True(t, ok, "missing entry for %s", f.Name())
		assert.False(t, res.Failed())
	}
}

func TestOrchestrator_OneFailureDoesNotBlockOthers(t *testing.T) {
	fetchers := []Fetcher{
		&stubFetcher{name: models.SourcePrice, result: okResult(models.SourcePrice)},
		&stubFetcher{name: models.SourceNews, result: models.FailedResult(models.SourceNews, errors.New("HTTP 500"))},
		&stubFetcher{name: models.SourceSocial, result: okResult(models.SourceSocial)},
	}

	o := NewOrchestrator(fetchers, time.Second)
	results, err := o.Run(context.Background(), models.NewSubject("AAPL"), 0, true)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[models.SourceNews].Failed())
	assert.False(t, results[models.SourcePrice].Failed())
	assert.False(t, results[models.SourceSocial].Failed())
}

func TestOrchestrator_PanicIsIsolated(t *testing.T) {
	fetchers := []Fetcher{
		&stubFetcher{name: models.SourcePrice, result: okResult(models.SourcePrice)},
		&stubFetcher{name: models.SourceNews, panics: true},
	}

	o := NewOrchestrator(fetchers, time.Second)
	results, err := o.Run(context.Background(), models.NewSubject("AAPL"), 0, true)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[models.SourceNews].Failed())
	assert.Contains(t, results[models.SourceNews].Err, "panicked")
	assert.False(t, results[models.SourcePrice].Failed())
}

func TestOrchestrator_AllFailedReturnsNoUsableData(t *testing.T) {
	fetchers := []Fetcher{
		&stubFetcher{name: models.SourcePrice, result: models.FailedResult(models.SourcePrice, errors.New("dial tcp: timeout"))},
		&stubFetcher{name: models.SourceNews, result: models.FailedResult(models.SourceNews, errors.New("dial tcp: timeout"))},
	}

	o := NewOrchestrator(fetchers, time.Second)
	results, err := o.Run(context.Background(), models.NewSubject("AAPL"), 0, true)

	require.ErrorIs(t, err, ErrNoUsableData)
	// Per-source diagnostics are still available to the caller
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.Failed())
	}
}

func TestOrchestrator_GapNoteIsNotAFailure(t *testing.T) {
	gap := models.FetchResult{
		Source:  models.SourceFilings,
		Status:  models.FetchOK,
		GapNote: "No SEC filings (non-US listed security)",
		Filings: &models.FilingSet{Symbol: "SHOP.TO", USListed: false},
	}
	fetchers := []Fetcher{
		&stubFetcher{name: models.SourceFilings, result: gap},
	}

	o := NewOrchestrator(fetchers, time.Second)
	results, err := o.Run(context.Background(), models.NewSubject("SHOP.TO"), 0, true)

	require.NoError(t, err)
	assert.True(t, results[models.SourceFilings].HasGap())
	assert.False(t, results[models.SourceFilings].Failed())
}

func TestOrchestrator_SlowFetcherTimesOutAsFailure(t *testing.T) {
	fetchers := []Fetcher{
		&stubFetcher{name: models.SourcePrice, result: okResult(models.SourcePrice)},
		&stubFetcher{name: models.SourceNews, result: okResult(models.SourceNews), delay: 500 * time.Millisecond},
	}

	o := NewOrchestrator(fetchers, 20*time.Millisecond)
	results, err := o.Run(context.Background(), models.NewSubject("AAPL"), 0, true)

	require.NoError(t, err)
	assert.True(t, results[models.SourceNews].Failed())
	assert.False(t, results[models.SourcePrice].Failed())
}
