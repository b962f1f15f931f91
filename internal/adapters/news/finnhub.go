package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/adapters/config"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// FinnhubProvider fetches per-company financial wire news
type FinnhubProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFinnhubProvider creates the Finnhub news provider. It reuses the
// market data credentials since both talk to the same API.
func NewFinnhubProvider(cfg *config.MarketDataConfig, timeout time.Duration) *FinnhubProvider {
	return &FinnhubProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *FinnhubProvider) Name() string { return models.NewsOriginPrimary }

// Fetch queries /company-news for the subject's root symbol. Finnhub
// uses plain US symbols, so exchange suffixes are stripped.
func (p *FinnhubProvider) Fetch(ctx context.Context, subject models.Subject, q Query) ([]models.NewsItem, error) {
	params := url.Values{
		"symbol": {subject.Root()},
		"from":   {q.From},
		"to":     {q.To},
		"token":  {p.apiKey},
	}

	var raw []struct {
		Headline string `json:"headline"`
		Summary  string `json:"summary"`
		Source   string `json:"source"`
		URL      string `json:"url"`
		Category string `json:"category"`
		Datetime int64  `json:"datetime"` // unix seconds
	}
	if err := p.getJSON(ctx, "/company-news", params, &raw); err != nil {
		return nil, err
	}

	articles := make([]models.NewsItem, 0, len(raw))
	for _, item := range raw {
		if item.URL == "" {
			continue
		}
		articles = append(articles, models.NewsItem{
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
			Title:       item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			URL:         item.URL,
			Category:    item.Category,
			Origin:      models.NewsOriginPrimary,
		})
	}

	logger.Debug("fetched finnhub news",
		zap.String("symbol", subject.Symbol),
		zap.Int("count", len(articles)),
	)
	return articles, nil
}

// CompanyName resolves the subject's display name from its company
// profile. Used to build the keyword query for the secondary provider.
func (p *FinnhubProvider) CompanyName(ctx context.Context, subject models.Subject) (string, error) {
	params := url.Values{
		"symbol": {subject.Root()},
		"token":  {p.apiKey},
	}

	var profile struct {
		Name string `json:"name"`
	}
	if err := p.getJSON(ctx, "/stock/profile2", params, &profile); err != nil {
		return "", err
	}
	return profile.Name, nil
}

func (p *FinnhubProvider) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", p.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
