package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/adapters/config"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// legalSuffixes add noise to keyword searches and are stripped from
// company names before querying.
var legalSuffixes = []string{" Inc.", " Inc", " Corp.", " Corp", " Ltd.", " Ltd", " LLC"}

// removedPlaceholderURL marks articles NewsAPI has redacted
const removedPlaceholderURL = "https://removed.com"

// NewsAPIProvider fetches broader media coverage via keyword search
type NewsAPIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewNewsAPIProvider creates the NewsAPI provider
func NewNewsAPIProvider(cfg *config.NewsConfig) *NewsAPIProvider {
	return &NewsAPIProvider{
		baseURL: cfg.NewsAPIBase,
		apiKey:  cfg.NewsAPIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *NewsAPIProvider) Name() string { return models.NewsOriginSecondary }

// Fetch searches /everything using the company name, falling back to the
// root symbol when no name is available.
func (p *NewsAPIProvider) Fetch(ctx context.Context, subject models.Subject, q Query) ([]models.NewsItem, error) {
	params := url.Values{
		"q":        {searchQuery(subject, q.CompanyName)},
		"from":     {q.From},
		"sortBy":   {"relevancy"},
		"language": {"en"},
		"pageSize": {"100"},
		"apiKey":   {p.apiKey},
	}

	u := fmt.Sprintf("%s/everything?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		Articles []struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			URL         string    `json:"url"`
			PublishedAt time.Time `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	articles := make([]models.NewsItem, 0, len(data.Articles))
	for _, item := range data.Articles {
		link := strings.TrimSpace(item.URL)
		if link == "" || link == removedPlaceholderURL {
			continue
		}
		articles = append(articles, models.NewsItem{
			PublishedAt: item.PublishedAt.UTC(),
			Title:       item.Title,
			Summary:     item.Description,
			Source:      item.Source.Name,
			URL:         link,
			Origin:      models.NewsOriginSecondary,
		})
	}

	logger.Debug("fetched newsapi articles",
		zap.String("symbol", subject.Symbol),
		zap.Int("count", len(articles)),
	)
	return articles, nil
}

// searchQuery builds the keyword query, preferring the company name with
// legal suffixes stripped over the raw symbol.
func searchQuery(subject models.Subject, companyName string) string {
	query := strings.TrimSpace(companyName)
	if query == "" {
		return subject.Root()
	}
	for _, suffix := range legalSuffixes {
		query = strings.ReplaceAll(query, suffix, "")
	}
	return strings.TrimSpace(query)
}
