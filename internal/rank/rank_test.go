package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/stockbrief/pkg/models"
)

func newsItem(url, summary string, age time.Duration) models.NewsItem {
	return models.NewsItem{
		PublishedAt: time.Now().UTC().Add(-age),
		Title:       "headline",
		Summary:     summary,
		URL:         url,
		Origin:      models.NewsOriginPrimary,
	}
}

func TestCanonicalURL(t *testing.T) {
	cases := map[string]string{
		"https://Example.com/Story/":                              "https://example.com/Story",
		"https://example.com/story?utm_source=x&utm_medium=email": "https://example.com/story",
		"https://example.com/story?fbclid=abc123":                 "https://example.com/story",
		"https://example.com/story?gclid=1&ref=home&page=2":       "https://example.com/story?page=2",
		"https://example.com/story#section":                       "https://example.com/story",
		"  https://example.com/story  ":                           "https://example.com/story",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalURL(in), "input %q", in)
	}
	assert.Empty(t, CanonicalURL("   "))
}

func TestNewsDedupsSyndicatedCopies(t *testing.T) {
	set := &models.NewsSet{
		Symbol: "AAPL",
		Articles: []models.NewsItem{
			newsItem("https://example.com/story", "short", time.Hour),
			newsItem("https://example.com/story/?utm_source=feed", "a much longer and richer summary", time.Hour),
			newsItem("https://other.com/piece", "", 2*time.Hour),
		},
	}

	News(set, 50)

	require.Len(t, set.Articles, 2)
	assert.Equal(t, "a much longer and richer summary", set.Articles[0].Summary,
		"longer summary wins the duplicate slot")
}

func TestNewsSortsNewestFirstAndCaps(t *testing.T) {
	set := &models.NewsSet{
		Articles: []models.NewsItem{
			newsItem("https://e.com/1", "", 3*time.Hour),
			newsItem("https://e.com/2", "", time.Hour),
			newsItem("https://e.com/3", "", 2*time.Hour),
		},
	}

	News(set, 2)

	require.Len(t, set.Articles, 2)
	assert.Equal(t, "https://e.com/2", set.Articles[0].URL)
	assert.Equal(t, "https://e.com/3", set.Articles[1].URL)
}

func TestNewsDropsEmptyURLs(t *testing.T) {
	set := &models.NewsSet{
		Articles: []models.NewsItem{
			newsItem("", "no link", time.Hour),
			newsItem("https://e.com/1", "", time.Hour),
		},
	}

	News(set, 50)
	require.Len(t, set.Articles, 1)
}

func post(id string, score, comments int, bodies ...string) models.SocialPost {
	p := models.SocialPost{
		ID:          id,
		Subreddit:   "stocks",
		Title:       "title " + id,
		Score:       score,
		NumComments: comments,
	}
	for _, b := range bodies {
		p.TopComments = append(p.TopComments, models.SocialComment{Body: b})
	}
	return p
}

func TestSocialDedupMergesComments(t *testing.T) {
	set := &models.SocialSet{
		Posts: []models.SocialPost{
			post("a1", 10, 5, "first take"),
			post("a1", 10, 5, "first take", "second take"),
			post("b2", 99, 1),
		},
	}

	Social(set, 30)

	require.Len(t, set.Posts, 2)
	assert.Equal(t, "b2", set.Posts[0].ID, "highest score first")

	merged := set.Posts[1]
	require.Len(t, merged.TopComments, 2, "distinct comment bodies merged, duplicates collapsed")

	assert.Equal(t, 2, set.Stats.TotalPosts)
	assert.Equal(t, 6, set.Stats.TotalComments)
	assert.InDelta(t, 54.5, set.Stats.AvgScore, 1e-9)
}

func TestSocialCapRefreshesStats(t *testing.T) {
	set := &models.SocialSet{
		Posts: []models.SocialPost{
			post("a", 100, 10),
			post("b", 50, 5),
			post("c", 1, 1),
		},
	}

	Social(set, 2)

	require.Len(t, set.Posts, 2)
	assert.Equal(t, 2, set.Stats.TotalPosts)
	assert.Equal(t, 15, set.Stats.TotalComments, "stats cover only kept posts")
	assert.InDelta(t, 75.0, set.Stats.AvgScore, 1e-9)
}

func TestSocialStableOrderForTies(t *testing.T) {
	set := &models.SocialSet{
		Posts: []models.SocialPost{
			post("first", 10, 0),
			post("second", 10, 0),
		},
	}

	Social(set, 30)

	require.Len(t, set.Posts, 2)
	assert.Equal(t, "first", set.Posts[0].ID)
	assert.Equal(t, "second", set.Posts[1].ID)
}
