package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/bundle"
	"github.com/selivandex/stockbrief/internal/fetch"
	"github.com/selivandex/stockbrief/internal/rank"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// Analyzer synthesizes a context bundle into a structured brief
type Analyzer interface {
	Analyze(ctx context.Context, bundleText string) (*models.AnalysisResult, error)
}

// Report is the full output of one pipeline run
type Report struct {
	Subject     models.Subject
	GeneratedAt time.Time
	Window      time.Duration
	Results     map[string]models.FetchResult
	Bundle      bundle.Bundle
	Analysis    *models.AnalysisResult
}

// Pipeline wires fetching, ranking, bundling, and synthesis together
type Pipeline struct {
	orchestrator *fetch.Orchestrator
	builder      *bundle.Builder
	analyzer     Analyzer
	maxArticles  int
	maxPosts     int
	now          func() time.Time
}

// New creates a pipeline
func New(orchestrator *fetch.Orchestrator, builder *bundle.Builder, analyzer Analyzer, maxArticles, maxPosts int) *Pipeline {
	return &Pipeline{
		orchestrator: orchestrator,
		builder:      builder,
		analyzer:     analyzer,
		maxArticles:  maxArticles,
		maxPosts:     maxPosts,
		now:          time.Now,
	}
}

// Run gathers data for the subject, ranks and bundles it, and sends it
// for synthesis. When every fetcher fails it returns
// fetch.ErrNoUsableData and never spends an API call; partial coverage
// proceeds with the gaps disclosed to the model and the caller.
func (p *Pipeline) Run(ctx context.Context, subject models.Subject, window time.Duration, useCache bool) (*Report, error) {
	logger.Info("starting analysis run",
		zap.String("symbol", subject.Symbol),
		zap.Duration("window", window),
		zap.Bool("use_cache", useCache),
	)

	results, err := p.orchestrator.Run(ctx, subject, window, useCache)
	if err != nil {
		return nil, err
	}

	in := bundle.Inputs{}
	if r, ok := results[models.SourcePrice]; ok && !r.Failed() {
		in.Price = r.Price
	}
	if r, ok := results[models.SourceNews]; ok && !r.Failed() {
		in.News = r.News
	}
	if r, ok := results[models.SourceSocial]; ok && !r.Failed() {
		in.Social = r.Social
	}
	if r, ok := results[models.SourceFilings]; ok && !r.Failed() {
		in.Filings = r.Filings
	}
	if r, ok := results[models.SourceEarnings]; ok && !r.Failed() {
		in.Earnings = r.Earnings
	}

	rank.News(in.News, p.maxArticles)
	rank.Social(in.Social, p.maxPosts)

	b := p.builder.Build(in)

	analysis, err := p.analyzer.Analyze(ctx, b.Text)
	if err != nil {
		return nil, err
	}

	mergeGaps(analysis, results, b)

	report := &Report{
		Subject:     subject,
		GeneratedAt: p.now().UTC(),
		Window:      window,
		Results:     results,
		Bundle:      b,
		Analysis:    analysis,
	}
	logger.Info("analysis run complete",
		zap.String("symbol", subject.Symbol),
		zap.Bool("degraded", analysis.Degraded),
	)
	return report, nil
}

// mergeGaps folds fetch failures, gap notes, and truncation into the
// brief's data quality section so no omission goes unreported. A
// degraded analysis has no structured fields to merge into; its gaps
// surface through Report.Results instead.
func mergeGaps(analysis *models.AnalysisResult, results map[string]models.FetchResult, b bundle.Bundle) {
	if analysis.Degraded || analysis.DataQuality == nil {
		return
	}

	seen := make(map[string]bool, len(analysis.DataQuality.DataGaps))
	for _, gap := range analysis.DataQuality.DataGaps {
		seen[gap] = true
	}
	add := func(gap string) {
		if !seen[gap] {
			seen[gap] = true
			analysis.DataQuality.DataGaps = append(analysis.DataQuality.DataGaps, gap)
		}
	}

	for _, source := range []string{
		models.SourcePrice, models.SourceNews, models.SourceSocial,
		models.SourceFilings, models.SourceEarnings,
	} {
		r, ok := results[source]
		switch {
		case !ok || r.Failed():
			add(fmt.Sprintf("%s data unavailable (fetch failed)", source))
		case r.HasGap():
			add(r.GapNote)
		}
	}

	if b.Truncated() {
		add(fmt.Sprintf("context truncated to fit budget (%d items affected)", b.TruncatedCount()))
	}
}
