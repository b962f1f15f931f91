package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// ErrNoUsableData is returned when every fetcher failed. Empty results
// with gap notes count as usable.
var ErrNoUsableData = errors.New("all data fetchers failed")

const defaultFetchTimeout = 60 * time.Second

// Orchestrator runs all fetchers concurrently with per-fetcher isolation
type Orchestrator struct {
	fetchers []Fetcher
	timeout  time.Duration
}

// NewOrchestrator creates an orchestrator over the given fetchers.
// A timeout of zero selects the default per-fetcher timeout.
func NewOrchestrator(fetchers []Fetcher, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Orchestrator{fetchers: fetchers, timeout: timeout}
}

// Run executes every fetcher in parallel and aggregates their results
// into a map keyed by source name. The map always contains one entry per
// fetcher. One fetcher's failure or panic never prevents others from
// completing; only the all-failed case returns ErrNoUsableData.
func (o *Orchestrator) Run(ctx context.Context, subject models.Subject, window time.Duration, useCache bool) (map[string]models.FetchResult, error) {
	results := make(map[string]models.FetchResult, len(o.fetchers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(o.fetchers))

	for _, f := range o.fetchers {
		f := f
		g.Go(func() error {
			res := o.runOne(gctx, f, subject, window, useCache)
			mu.Lock()
			results[f.Name()] = res
			mu.Unlock()
			return nil
		})
	}

	// Goroutines never return errors; failures live in the result values
	_ = g.Wait()

	failed := 0
	for name, res := range results {
		switch {
		case res.Failed():
			failed++
			logger.Warn("fetcher failed",
				zap.String("source", name),
				zap.String("error", res.Err),
			)
		case res.HasGap():
			logger.Info("fetcher returned no data",
				zap.String("source", name),
				zap.String("note", res.GapNote),
			)
		}
	}

	if failed == len(o.fetchers) {
		return results, ErrNoUsableData
	}

	logger.Info("fetch complete",
		zap.String("subject", subject.Symbol),
		zap.Int("sources", len(results)),
		zap.Int("failed", failed),
	)
	return results, nil
}

// runOne executes a single fetcher with its own timeout and panic guard
func (o *Orchestrator) runOne(ctx context.Context, f Fetcher, subject models.Subject, window time.Duration, useCache bool) (res models.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.FailedResult(f.Name(), fmt.Errorf("fetcher panicked: %v", r))
		}
	}()

	fctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	res = f.Fetch(fctx, subject, window, useCache)
	if res.Source == "" {
		res.Source = f.Name()
	}
	return res
}
