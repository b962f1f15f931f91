package models

import "time"

// Beat/miss classifications for the most recent quarter
const (
	EarningsBeat   = "Beat"
	EarningsMiss   = "Miss"
	EarningsInLine = "In-line"
	EarningsNA     = "N/A"
)

// QuarterResult holds the most recent reported quarter vs estimates
type QuarterResult struct {
	Period          string   `json:"period,omitempty"` // YYYY-MM-DD of the report
	EPSEstimate     *float64 `json:"eps_estimate,omitempty"`
	EPSActual       *float64 `json:"eps_actual,omitempty"`
	EPSSurprisePct  *float64 `json:"eps_surprise_pct,omitempty"`
	RevenueEstimate *float64 `json:"revenue_estimate,omitempty"`
	RevenueActual   *float64 `json:"revenue_actual,omitempty"`
	BeatOrMiss      string   `json:"beat_or_miss"`
}

// EarningsSnapshot is the normalized payload of the earnings fetcher.
// LastQuarter is nil when the provider reported no quarters yet.
type EarningsSnapshot struct {
	FetchedAt     time.Time      `json:"fetched_at"`
	Symbol        string         `json:"symbol"`
	NextDate      *string        `json:"next_earnings_date,omitempty"` // YYYY-MM-DD
	DaysUntilNext *int           `json:"days_until_next,omitempty"`
	LastQuarter   *QuarterResult `json:"last_quarter,omitempty"`
}
