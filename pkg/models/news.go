package models

import "time"

// News wire origins
const (
	NewsOriginPrimary   = "finnhub" // per-company financial wire
	NewsOriginSecondary = "newsapi" // broad keyword search
)

// NewsItem represents a single normalized news article
type NewsItem struct {
	PublishedAt time.Time `json:"published_at"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"` // publication name
	URL         string    `json:"url"`    // canonical dedup key after ranking
	Category    string    `json:"category,omitempty"`
	Origin      string    `json:"origin"` // NewsOriginPrimary or NewsOriginSecondary
}

// NewsSet is the normalized payload of the news fetcher
type NewsSet struct {
	FetchedAt      time.Time  `json:"fetched_at"`
	Symbol         string     `json:"symbol"`
	Articles       []NewsItem `json:"articles"` // newest first after ranking
	PrimaryCount   int        `json:"primary_count"`
	SecondaryCount int        `json:"secondary_count"`
}
