package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/stockbrief/internal/cache"
	"github.com/selivandex/stockbrief/pkg/models"
)

type stubProvider struct {
	name     string
	articles []models.NewsItem
	err      error
	gotQuery Query
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(_ context.Context, _ models.Subject, q Query) ([]models.NewsItem, error) {
	s.gotQuery = q
	return s.articles, s.err
}

type stubResolver struct {
	name string
	err  error
}

func (s *stubResolver) CompanyName(context.Context, models.Subject) (string, error) {
	return s.name, s.err
}

func article(origin, url string) models.NewsItem {
	return models.NewsItem{
		PublishedAt: time.Now().UTC(),
		Title:       "headline",
		URL:         url,
		Origin:      origin,
	}
}

func TestNewsFetcherMergesBothProviders(t *testing.T) {
	primary := &stubProvider{
		name: models.NewsOriginPrimary,
		articles: []models.NewsItem{
			article(models.NewsOriginPrimary, "https://a.example/1"),
			article(models.NewsOriginPrimary, "https://a.example/2"),
		},
	}
	secondary := &stubProvider{
		name:     models.NewsOriginSecondary,
		articles: []models.NewsItem{article(models.NewsOriginSecondary, "https://b.example/1")},
	}
	fetcher := NewFetcher(primary, secondary, &stubResolver{name: "Apple Inc."}, cache.NewStore(t.TempDir()), 4*time.Hour)

	res := fetcher.Fetch(context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, false)
	require.False(t, res.Failed(), "unexpected failure: %s", res.Err)
	require.NotNil(t, res.News)

	assert.Len(t, res.News.Articles, 3)
	assert.Equal(t, 2, res.News.PrimaryCount)
	assert.Equal(t, 1, res.News.SecondaryCount)
	assert.Empty(t, res.GapNote)
	assert.Equal(t, "Apple Inc.", secondary.gotQuery.CompanyName)
	assert.NotEmpty(t, primary.gotQuery.From)
}

func TestNewsFetcherOneProviderFailingIsGap(t *testing.T) {
	primary := &stubProvider{
		name:     models.NewsOriginPrimary,
		articles: []models.NewsItem{article(models.NewsOriginPrimary, "https://a.example/1")},
	}
	secondary := &stubProvider{
		name: models.NewsOriginSecondary,
		err:  errors.New("API error 429: rate limited"),
	}
	fetcher := NewFetcher(primary, secondary, nil, cache.NewStore(t.TempDir()), 4*time.Hour)

	res := fetcher.Fetch(context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, false)
	require.False(t, res.Failed())
	assert.True(t, res.HasGap())
	assert.Contains(t, res.GapNote, models.NewsOriginSecondary)
	assert.Len(t, res.News.Articles, 1)
	assert.Equal(t, 0, res.News.SecondaryCount)
}

func TestNewsFetcherBothProvidersFailingFails(t *testing.T) {
	primary := &stubProvider{name: models.NewsOriginPrimary, err: errors.New("API error 401")}
	secondary := &stubProvider{name: models.NewsOriginSecondary, err: errors.New("request failed")}
	fetcher := NewFetcher(primary, secondary, nil, cache.NewStore(t.TempDir()), 4*time.Hour)

	res := fetcher.Fetch(context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, false)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Err, "all news providers failed")
	assert.Nil(t, res.News)
}

func TestNewsFetcherResolverFailureFallsBackToSymbol(t *testing.T) {
	primary := &stubProvider{name: models.NewsOriginPrimary}
	secondary := &stubProvider{name: models.NewsOriginSecondary}
	fetcher := NewFetcher(primary, secondary, &stubResolver{err: errors.New("profile unavailable")},
		cache.NewStore(t.TempDir()), 4*time.Hour)

	res := fetcher.Fetch(context.Background(), models.NewSubject("AAPL"), 14*24*time.Hour, false)
	require.False(t, res.Failed())
	assert.Empty(t, secondary.gotQuery.CompanyName)
}

func TestNewsFetcherEmptyResultsAreStillSuccess(t *testing.T) {
	primary := &stubProvider{name: models.NewsOriginPrimary}
	secondary := &stubProvider{name: models.NewsOriginSecondary}
	fetcher := NewFetcher(primary, secondary, nil, cache.NewStore(t.TempDir()), 4*time.Hour)

	res := fetcher.Fetch(context.Background(), models.NewSubject("OBSCURE"), 14*24*time.Hour, false)
	require.False(t, res.Failed())
	assert.False(t, res.HasGap())
	assert.Empty(t, res.News.Articles)
}

func TestSearchQueryStripsLegalSuffixes(t *testing.T) {
	subject := models.NewSubject("AAPL")
	assert.Equal(t, "Apple", searchQuery(subject, "Apple Inc."))
	assert.Equal(t, "Shopify", searchQuery(subject, "Shopify Inc"))
	assert.Equal(t, "Acme", searchQuery(subject, "Acme Corp."))
	assert.Equal(t, "AAPL", searchQuery(subject, "  "))
	assert.Equal(t, "SHOP", searchQuery(models.NewSubject("SHOP.TO"), ""))
}
