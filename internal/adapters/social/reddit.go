package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/selivandex/stockbrief/internal/adapters/config"
	"github.com/selivandex/stockbrief/internal/cache"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// RedditFetcher pulls discussion posts from the public Reddit JSON API.
// No credentials are needed; Reddit serves any listing as JSON when
// `.json` is appended to the path. A descriptive User-Agent and paced
// requests keep us clear of throttling.
type RedditFetcher struct {
	baseURL     string
	userAgent   string
	subreddits  []string
	postsPerSub int
	maxComments int
	client      *http.Client
	limiter     *rate.Limiter
	store       *cache.Store
	ttl         time.Duration
	now         func() time.Time
}

// NewRedditFetcher creates the Reddit fetcher
func NewRedditFetcher(cfg *config.SocialConfig, store *cache.Store, ttl time.Duration) *RedditFetcher {
	return &RedditFetcher{
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		subreddits:  cfg.Subreddits,
		postsPerSub: cfg.PostsPerSub,
		maxComments: cfg.MaxComments,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		store:       store,
		ttl:         ttl,
		now:         time.Now,
	}
}

func (f *RedditFetcher) Name() string { return models.SourceSocial }

// Fetch implements fetch.Fetcher. Individual subreddit or comment
// requests failing only shrink the result; the fetch fails outright
// only when every subreddit search failed.
func (f *RedditFetcher) Fetch(ctx context.Context, subject models.Subject, window time.Duration, useCache bool) models.FetchResult {
	if useCache {
		if set, ok := cache.ReadAs[models.SocialSet](f.store, subject, f.Name(), f.ttl); ok {
			logger.Info("reddit cache hit", zap.String("symbol", subject.Symbol))
			return models.FetchResult{Source: f.Name(), Status: models.FetchOK, Social: set}
		}
	}

	query := subject.Root()
	timeFilter := windowToTimeFilter(window)
	logger.Info("searching reddit",
		zap.String("symbol", subject.Symbol),
		zap.String("query", query),
		zap.String("time_filter", timeFilter),
	)

	seen := make(map[string]bool)
	var posts []models.SocialPost
	searchFailures := 0

	for _, subreddit := range f.subreddits {
		found, err := f.searchSubreddit(ctx, subreddit, query, timeFilter)
		if err != nil {
			logger.Warn("subreddit search failed",
				zap.String("subreddit", subreddit),
				zap.Error(err),
			)
			searchFailures++
			continue
		}
		for _, post := range found {
			if !seen[post.ID] {
				seen[post.ID] = true
				posts = append(posts, post)
			}
		}
	}

	if searchFailures == len(f.subreddits) {
		return models.FailedResult(f.Name(),
			fmt.Errorf("all %d subreddit searches failed", len(f.subreddits)))
	}

	for i := range posts {
		comments, err := f.topComments(ctx, posts[i].Subreddit, posts[i].ID)
		if err != nil {
			logger.Debug("could not fetch comments",
				zap.String("post_id", posts[i].ID),
				zap.Error(err),
			)
			continue
		}
		posts[i].TopComments = comments
	}

	set := &models.SocialSet{
		FetchedAt: f.now().UTC(),
		Symbol:    subject.Symbol,
		Posts:     posts,
		Stats:     models.ComputeSocialStats(posts),
	}

	if err := f.store.Write(subject, f.Name(), set); err != nil {
		logger.Warn("failed to cache reddit data", zap.Error(err))
	}
	return models.FetchResult{Source: f.Name(), Status: models.FetchOK, Social: set}
}

// listing mirrors Reddit's generic envelope
type listing struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rawPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
}

type rawComment struct {
	Body  string `json:"body"`
	Score int    `json:"score"`
}

func (f *RedditFetcher) searchSubreddit(ctx context.Context, subreddit, query, timeFilter string) ([]models.SocialPost, error) {
	params := url.Values{
		"q":           {query},
		"sort":        {"relevance"},
		"t":           {timeFilter},
		"limit":       {strconv.Itoa(f.postsPerSub)},
		"restrict_sr": {"1"},
	}

	var list listing
	path := fmt.Sprintf("/r/%s/search.json", subreddit)
	if err := f.getJSON(ctx, path, params, &list); err != nil {
		return nil, err
	}

	posts := make([]models.SocialPost, 0, len(list.Data.Children))
	for _, child := range list.Data.Children {
		var raw rawPost
		if err := json.Unmarshal(child.Data, &raw); err != nil {
			continue
		}
		posts = append(posts, models.SocialPost{
			CreatedAt:   time.Unix(int64(raw.CreatedUTC), 0).UTC(),
			ID:          raw.ID,
			Subreddit:   subreddit,
			Title:       raw.Title,
			Body:        strings.TrimSpace(raw.Selftext),
			URL:         "https://www.reddit.com" + raw.Permalink,
			Score:       raw.Score,
			NumComments: raw.NumComments,
		})
	}

	logger.Debug("subreddit search done",
		zap.String("subreddit", subreddit),
		zap.Int("posts", len(posts)),
	)
	return posts, nil
}

// topComments returns up to maxComments top-level comments, skipping
// deleted and removed bodies. The comments endpoint returns a
// two-element array of listings: the post itself, then its comments.
func (f *RedditFetcher) topComments(ctx context.Context, subreddit, postID string) ([]models.SocialComment, error) {
	params := url.Values{
		"limit": {strconv.Itoa(f.maxComments)},
		"sort":  {"top"},
		"depth": {"1"},
	}

	var pair []listing
	path := fmt.Sprintf("/r/%s/comments/%s.json", subreddit, postID)
	if err := f.getJSON(ctx, path, params, &pair); err != nil {
		return nil, err
	}
	if len(pair) < 2 {
		return nil, fmt.Errorf("unexpected comments response shape")
	}

	var comments []models.SocialComment
	for _, child := range pair[1].Data.Children {
		var raw rawComment
		if err := json.Unmarshal(child.Data, &raw); err != nil {
			continue
		}
		body := strings.TrimSpace(raw.Body)
		if body == "" || body == "[deleted]" || body == "[removed]" {
			continue
		}
		comments = append(comments, models.SocialComment{Body: body, Score: raw.Score})
		if len(comments) >= f.maxComments {
			break
		}
	}
	return comments, nil
}

// rateLimitAttempts bounds how often a throttled request is retried.
// Each attempt passes through the limiter again, so retries stay paced.
const rateLimitAttempts = 3

var errRateLimited = errors.New("API error 429")

func (f *RedditFetcher) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	var lastErr error
	for attempt := 1; attempt <= rateLimitAttempts; attempt++ {
		err := f.doJSON(ctx, path, params, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, errRateLimited) {
			return err
		}
		logger.Debug("reddit rate limited, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
		)
	}
	return lastErr
}

func (f *RedditFetcher) doJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	u := fmt.Sprintf("%s%s?%s", f.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// windowToTimeFilter maps a look-back window onto Reddit's coarse
// time_filter buckets.
func windowToTimeFilter(window time.Duration) string {
	days := int(window.Hours() / 24)
	switch {
	case days <= 1:
		return "day"
	case days <= 7:
		return "week"
	case days <= 30:
		return "month"
	default:
		return "year"
	}
}
