package news

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/cache"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// nameResolver resolves a display name for the secondary provider's
// keyword query. The primary provider implements it.
type nameResolver interface {
	CompanyName(ctx context.Context, subject models.Subject) (string, error)
}

// Fetcher merges articles from the primary wire and the secondary
// keyword search into one normalized set. One provider failing degrades
// coverage and records a gap note; both failing fails the fetch.
type Fetcher struct {
	primary   Provider
	secondary Provider
	resolver  nameResolver
	store     *cache.Store
	ttl       time.Duration
	now       func() time.Time
}

// NewFetcher creates the news fetcher. resolver may be nil, in which
// case the secondary provider queries by symbol.
func NewFetcher(primary, secondary Provider, resolver nameResolver, store *cache.Store, ttl time.Duration) *Fetcher {
	return &Fetcher{
		primary:   primary,
		secondary: secondary,
		resolver:  resolver,
		store:     store,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (f *Fetcher) Name() string { return models.SourceNews }

// Fetch implements fetch.Fetcher
func (f *Fetcher) Fetch(ctx context.Context, subject models.Subject, window time.Duration, useCache bool) models.FetchResult {
	if useCache {
		if set, ok := cache.ReadAs[models.NewsSet](f.store, subject, f.Name(), f.ttl); ok {
			logger.Info("news cache hit", zap.String("symbol", subject.Symbol))
			return models.FetchResult{Source: f.Name(), Status: models.FetchOK, News: set}
		}
	}

	now := f.now().UTC()
	query := Query{
		From: now.Add(-window).Format("2006-01-02"),
		To:   now.Format("2006-01-02"),
	}
	if f.resolver != nil {
		name, err := f.resolver.CompanyName(ctx, subject)
		if err != nil {
			logger.Warn("company name lookup failed, querying by symbol",
				zap.String("symbol", subject.Symbol),
				zap.Error(err),
			)
		}
		query.CompanyName = name
	}

	logger.Info("fetching news",
		zap.String("symbol", subject.Symbol),
		zap.String("from", query.From),
		zap.String("to", query.To),
	)

	primary, primaryErr := f.primary.Fetch(ctx, subject, query)
	secondary, secondaryErr := f.secondary.Fetch(ctx, subject, query)

	if primaryErr != nil && secondaryErr != nil {
		return models.FailedResult(f.Name(),
			fmt.Errorf("all news providers failed: %s: %v; %s: %v",
				f.primary.Name(), primaryErr, f.secondary.Name(), secondaryErr))
	}

	var gap string
	if primaryErr != nil {
		logger.Warn("primary news provider failed", zap.Error(primaryErr))
		gap = fmt.Sprintf("%s news unavailable (%v)", f.primary.Name(), primaryErr)
	}
	if secondaryErr != nil {
		logger.Warn("secondary news provider failed", zap.Error(secondaryErr))
		gap = fmt.Sprintf("%s news unavailable (%v)", f.secondary.Name(), secondaryErr)
	}

	set := &models.NewsSet{
		FetchedAt:      now,
		Symbol:         subject.Symbol,
		Articles:       append(primary, secondary...),
		PrimaryCount:   len(primary),
		SecondaryCount: len(secondary),
	}

	if err := f.store.Write(subject, f.Name(), set); err != nil {
		logger.Warn("failed to cache news", zap.Error(err))
	}
	return models.FetchResult{
		Source:  f.Name(),
		Status:  models.FetchOK,
		GapNote: gap,
		News:    set,
	}
}
