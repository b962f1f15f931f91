package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/stockbrief/internal/pipeline"
	"github.com/selivandex/stockbrief/pkg/models"
)

func intPtr(v int) *int { return &v }

func sampleReport() *pipeline.Report {
	pe := 28.5
	return &pipeline.Report{
		Subject:     models.NewSubject("AAPL"),
		GeneratedAt: time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC),
		Window:      14 * 24 * time.Hour,
		Results: map[string]models.FetchResult{
			models.SourcePrice: {
				Source: models.SourcePrice,
				Status: models.FetchOK,
				Price: &models.PriceSnapshot{
					Symbol:         "AAPL",
					CompanyName:    "Apple Inc",
					Currency:       "USD",
					CurrentPrice:   decimal.RequireFromString("189.50"),
					DayChange:      decimal.RequireFromString("2.10"),
					DayChangePct:   1.12,
					Week52High:     decimal.RequireFromString("199.62"),
					Week52Low:      decimal.RequireFromString("164.08"),
					MarketCap:      2_900_000_000_000,
					Volume10DayAvg: 58_400_000,
					PETrailing:     &pe,
				},
			},
		},
		Analysis: &models.AnalysisResult{
			OverallSentiment: &models.SentimentScore{Score: 0.62, Label: "Bullish", Confidence: 0.8},
			NewsSentiment: &models.NewsSentiment{
				Score:       0.5,
				Summary:     "Coverage centers on strong iPhone demand.",
				KeyArticles: []string{"Apple beats on services revenue"},
			},
			SocialSentiment: &models.SocialSentiment{
				Score:        0.3,
				Mood:         "FOMO",
				Summary:      "Retail is leaning long into earnings.",
				NotablePosts: []string{"YOLO thread on wallstreetbets"},
			},
			Filings: &models.FilingsAssessment{
				HasRecentFilings: true,
				Summary:          "Routine 10-Q, no unusual disclosures.",
			},
			Earnings: &models.EarningsAssessment{
				Summary:       "Beat estimates by 4%.",
				BeatOrMiss:    models.EarningsBeat,
				DaysUntilNext: intPtr(34),
			},
			BullCase:          []string{"Services margin expansion"},
			BearCase:          []string{"China demand risk"},
			Discrepancies:     []string{"News bullish while insiders are selling"},
			KeySignals:        []string{"Next earnings in 34 days"},
			TechnicalSnapshot: "Above 50-day moving average.",
			Verdict:           "Constructive near term.",
			DataQuality: &models.DataQuality{
				NewsCount:      42,
				SocialCount:    18,
				FilingCount:    3,
				DataGaps:       []string{"reddit data unavailable (fetch failed)"},
				ConfidenceNote: "Good coverage overall.",
			},
		},
	}
}

func TestTerminalRenderContainsAllSections(t *testing.T) {
	var buf bytes.Buffer
	NewTerminal(&buf).Render(sampleReport())
	out := buf.String()

	for _, want := range []string{
		"AAPL", "Apple Inc", "2024-06-03",
		"PRICE SNAPSHOT", "$189.50", "$2.90T", "28.5x", "58.4M",
		"SENTIMENT GAUGE", "+0.62", "Confidence: 80%", "Mood: FOMO",
		"BULL CASE", "Services margin expansion",
		"BEAR CASE", "China demand risk",
		"NEWS SUMMARY (42 articles)", "Apple beats on services revenue",
		"REDDIT PULSE (18 posts, mood: FOMO)",
		"SEC FILINGS (3 recent filings)",
		"EARNINGS", "Beat", "34 days until next earnings",
		"DISCREPANCIES", "KEY SIGNALS",
		"TECHNICAL SNAPSHOT", "VERDICT", "Constructive near term.",
		"DATA QUALITY", "Good coverage overall.",
		"not financial advice",
	} {
		assert.Contains(t, out, want)
	}
}

func TestTerminalRenderDegradedShowsRawOnly(t *testing.T) {
	report := sampleReport()
	report.Analysis = &models.AnalysisResult{
		Degraded:    true,
		RawResponse: "I could not produce JSON today.",
	}

	var buf bytes.Buffer
	NewTerminal(&buf).Render(report)
	out := buf.String()

	assert.Contains(t, out, "parse failed")
	assert.Contains(t, out, "I could not produce JSON today.")
	assert.NotContains(t, out, "SENTIMENT GAUGE")
	assert.NotContains(t, out, "VERDICT")
}

func TestTerminalRenderMissingPrice(t *testing.T) {
	report := sampleReport()
	delete(report.Results, models.SourcePrice)

	var buf bytes.Buffer
	NewTerminal(&buf).Render(report)

	assert.Contains(t, buf.String(), "Price data unavailable.")
}

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{0.9, "Very Bullish"},
		{0.5, "Very Bullish"},
		{0.35, "Bullish"},
		{0.1, "Slightly Bullish"},
		{0.0, "Neutral"},
		{-0.2, "Slightly Bearish"},
		{-0.4, "Bearish"},
		{-0.8, "Very Bearish"},
	}
	for _, tt := range tests {
		_, label := scoreBand(tt.score)
		assert.Equal(t, tt.label, label, "score %v", tt.score)
	}
}

func TestGaugeClampsToWidth(t *testing.T) {
	full := gauge(1.5, upStyle)
	require.Equal(t, gaugeWidth, strings.Count(full, "█"))
	assert.Zero(t, strings.Count(full, "░"))

	empty := gauge(-1.5, downStyle)
	require.Equal(t, gaugeWidth, strings.Count(empty, "░"))
	assert.Zero(t, strings.Count(empty, "█"))

	half := gauge(0, flatStyle)
	assert.Equal(t, 5, strings.Count(half, "█"))
	assert.Equal(t, 5, strings.Count(half, "░"))
}

func TestFmtLarge(t *testing.T) {
	assert.Equal(t, "$2.90T", fmtLarge(2_900_000_000_000, "$"))
	assert.Equal(t, "C$45.00B", fmtLarge(45_000_000_000, "C$"))
	assert.Equal(t, "$850.00M", fmtLarge(850_000_000, "$"))
	assert.Equal(t, "$950000", fmtLarge(950_000, "$"))
	assert.Equal(t, "N/A", fmtLarge(0, "$"))
}

func TestFmtVolume(t *testing.T) {
	assert.Equal(t, "58.4M", fmtVolume(58_400_000))
	assert.Equal(t, "120.5K", fmtVolume(120_500))
	assert.Equal(t, "900", fmtVolume(900))
	assert.Equal(t, "N/A", fmtVolume(0))
}
