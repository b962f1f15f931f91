package rank

import (
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// trackingParams are query parameters stripped during URL
// canonicalization so syndicated copies of the same article collapse.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"ref":    true,
}

// News deduplicates articles by canonical URL, orders them newest
// first, and caps the list. When two articles share a URL the one with
// the longer summary wins; ties keep the earlier (primary wire) entry.
func News(set *models.NewsSet, maxArticles int) {
	if set == nil {
		return
	}

	type slot struct {
		index int
		item  models.NewsItem
	}
	byURL := make(map[string]*slot, len(set.Articles))
	order := make([]string, 0, len(set.Articles))

	for i, item := range set.Articles {
		key := CanonicalURL(item.URL)
		if key == "" {
			continue
		}
		existing, ok := byURL[key]
		if !ok {
			byURL[key] = &slot{index: i, item: item}
			order = append(order, key)
			continue
		}
		if len(item.Summary) > len(existing.item.Summary) {
			existing.item = item
		}
	}

	unique := make([]models.NewsItem, 0, len(order))
	for _, key := range order {
		unique = append(unique, byURL[key].item)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PublishedAt.After(unique[j].PublishedAt)
	})

	if maxArticles > 0 && len(unique) > maxArticles {
		unique = unique[:maxArticles]
	}

	dropped := len(set.Articles) - len(unique)
	if dropped > 0 {
		logger.Debug("news ranked",
			zap.String("symbol", set.Symbol),
			zap.Int("kept", len(unique)),
			zap.Int("dropped", dropped),
		)
	}
	set.Articles = unique
}

// Social deduplicates posts by ID, orders them score descending, caps
// the list, and refreshes the summary stats over what is kept. When a
// post appears twice the instance with more comments wins and distinct
// comment bodies from the other instance are merged in.
func Social(set *models.SocialSet, maxPosts int) {
	if set == nil {
		return
	}

	byID := make(map[string]*models.SocialPost, len(set.Posts))
	order := make([]string, 0, len(set.Posts))

	for _, post := range set.Posts {
		if post.ID == "" {
			continue
		}
		existing, ok := byID[post.ID]
		if !ok {
			p := post
			byID[post.ID] = &p
			order = append(order, post.ID)
			continue
		}
		keep, other := *existing, post
		if len(other.TopComments) > len(keep.TopComments) {
			keep, other = other, keep
		}
		keep.TopComments = mergeComments(keep.TopComments, other.TopComments)
		*byID[post.ID] = keep
	}

	unique := make([]models.SocialPost, 0, len(order))
	for _, id := range order {
		unique = append(unique, *byID[id])
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score > unique[j].Score
	})

	if maxPosts > 0 && len(unique) > maxPosts {
		unique = unique[:maxPosts]
	}

	set.Posts = unique
	set.Stats = models.ComputeSocialStats(unique)
}

// mergeComments appends comments from extra whose bodies are not
// already present in base
func mergeComments(base, extra []models.SocialComment) []models.SocialComment {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.Body] = true
	}
	for _, c := range extra {
		if !seen[c.Body] {
			seen[c.Body] = true
			base = append(base, c)
		}
	}
	return base
}

// CanonicalURL normalizes an article URL for deduplication: lowercased
// scheme and host, tracking parameters removed, trailing slash trimmed.
// Unparseable URLs fall back to trimmed string identity.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[param] || strings.HasPrefix(param, "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
