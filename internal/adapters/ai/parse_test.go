package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONStripsFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\": 1}\n```":            `{"a": 1}`,
		"```\n{\"a\": 1}\n```":                `{"a": 1}`,
		"Some preamble text {\"a\": 1}":       `{"a": 1}`,
		"{\"a\": 1}":                          `{"a": 1}`,
		"  \n{\"a\": 1}\n  ":                  `{"a": 1}`,
		"Here you go:\n```json\n{\"a\": 1}\n```\nAnything else?": `{"a": 1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, extractJSON(in), "input %q", in)
	}
}

func TestParseAnalysisValid(t *testing.T) {
	result, err := parseAnalysis(validAnalysisJSON)
	require.NoError(t, err)
	assert.Equal(t, "Slightly Bullish", result.OverallSentiment.Label)
	assert.Equal(t, 12, result.DataQuality.NewsCount)
	require.NotNil(t, result.Earnings.DaysUntilNext)
	assert.Equal(t, 30, *result.Earnings.DaysUntilNext)
}

func TestParseAnalysisRejectsNonJSON(t *testing.T) {
	_, err := parseAnalysis("the market feels bullish today")
	require.Error(t, err)
}

func TestParseAnalysisRejectsEmptyBullCase(t *testing.T) {
	_, err := parseAnalysis(`{
	  "overall_sentiment": {"score": 0, "label": "Neutral", "confidence": 0.5},
	  "news_sentiment": {"score": 0, "summary": "s", "key_articles": []},
	  "reddit_sentiment": {"score": 0, "mood": "Indifferent", "summary": "s", "notable_posts": []},
	  "sec_filings": {"has_recent_filings": false, "summary": "none", "red_flags": []},
	  "earnings": {"summary": "s", "beat_or_miss": "N/A", "days_until_next": null},
	  "bull_case": [],
	  "bear_case": ["something"],
	  "verdict": "v",
	  "data_quality": {"news_count": 0, "reddit_count": 0, "filing_count": 0, "data_gaps": [], "confidence_note": ""}
	}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}
