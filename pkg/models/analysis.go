package models

// SentimentScore is the model's overall read on the security
type SentimentScore struct {
	Score      float64 `json:"score"`      // -1.0 (very bearish) .. 1.0 (very bullish)
	Label      string  `json:"label"`      // "Very Bearish" .. "Very Bullish"
	Confidence float64 `json:"confidence"` // 0.0 .. 1.0
}

// NewsSentiment summarizes themes from news coverage
type NewsSentiment struct {
	Score       float64  `json:"score"`
	Summary     string   `json:"summary"`
	KeyArticles []string `json:"key_articles"`
}

// SocialSentiment summarizes retail discussion
type SocialSentiment struct {
	Score        float64  `json:"score"`
	Mood         string   `json:"mood"` // "FOMO", "Fear", "Divided", ...
	Summary      string   `json:"summary"`
	NotablePosts []string `json:"notable_posts"`
}

// FilingsAssessment summarizes regulatory filings
type FilingsAssessment struct {
	HasRecentFilings bool     `json:"has_recent_filings"`
	Summary          string   `json:"summary"`
	RedFlags         []string `json:"red_flags"`
}

// EarningsAssessment summarizes earnings context
type EarningsAssessment struct {
	Summary       string `json:"summary"`
	BeatOrMiss    string `json:"beat_or_miss"`
	DaysUntilNext *int   `json:"days_until_next"`
}

// DataQuality is the model's self-report on input coverage
type DataQuality struct {
	NewsCount      int      `json:"news_count"`
	SocialCount    int      `json:"reddit_count"`
	FilingCount    int      `json:"filing_count"`
	DataGaps       []string `json:"data_gaps"`
	ConfidenceNote string   `json:"confidence_note"`
}

// AnalysisResult is the schema-validated synthesis output. Required
// top-level fields are pointers so a missing field is detectable and
// fails validation rather than silently zeroing.
type AnalysisResult struct {
	OverallSentiment  *SentimentScore     `json:"overall_sentiment" validate:"required"`
	NewsSentiment     *NewsSentiment      `json:"news_sentiment" validate:"required"`
	SocialSentiment   *SocialSentiment    `json:"reddit_sentiment" validate:"required"`
	Filings           *FilingsAssessment  `json:"sec_filings" validate:"required"`
	Earnings          *EarningsAssessment `json:"earnings" validate:"required"`
	BullCase          []string            `json:"bull_case" validate:"required,min=1"`
	BearCase          []string            `json:"bear_case" validate:"required,min=1"`
	Discrepancies     []string            `json:"discrepancies"`
	KeySignals        []string            `json:"key_signals"`
	TechnicalSnapshot string              `json:"technical_snapshot"`
	Verdict           string              `json:"verdict" validate:"required"`
	DataQuality       *DataQuality        `json:"data_quality" validate:"required"`

	// Degraded is set when the response could not be parsed or validated;
	// RawResponse then carries the model's unparsed text.
	Degraded    bool   `json:"-"`
	RawResponse string `json:"-"`
}
