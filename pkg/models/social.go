package models

import "time"

// SocialComment is a top-level comment attached to a post
type SocialComment struct {
	Body  string `json:"body"`
	Score int    `json:"score"`
}

// SocialPost represents a normalized discussion post
type SocialPost struct {
	CreatedAt   time.Time       `json:"created_at"`
	ID          string          `json:"id"` // dedup key across communities
	Subreddit   string          `json:"subreddit"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	URL         string          `json:"url"`
	Score       int             `json:"score"`
	NumComments int             `json:"num_comments"`
	TopComments []SocialComment `json:"top_comments,omitempty"`
}

// SocialStats summarizes a set of posts for the bundler and the prompt
type SocialStats struct {
	TotalPosts    int            `json:"total_posts"`
	AvgScore      float64        `json:"avg_score"`
	TotalComments int            `json:"total_comments"`
	Breakdown     map[string]int `json:"subreddit_breakdown"`
}

// SocialSet is the normalized payload of the social fetcher
type SocialSet struct {
	FetchedAt time.Time    `json:"fetched_at"`
	Symbol    string       `json:"symbol"`
	Posts     []SocialPost `json:"posts"` // score-descending after ranking
	Stats     SocialStats  `json:"stats"`
}

// ComputeSocialStats summarizes a post list. Called once at fetch time
// and again after ranking caps the list.
func ComputeSocialStats(posts []SocialPost) SocialStats {
	stats := SocialStats{Breakdown: map[string]int{}}
	if len(posts) == 0 {
		return stats
	}

	totalScore := 0
	for _, p := range posts {
		totalScore += p.Score
		stats.TotalComments += p.NumComments
		stats.Breakdown[p.Subreddit]++
	}
	stats.TotalPosts = len(posts)
	stats.AvgScore = float64(totalScore) / float64(len(posts))
	return stats
}
