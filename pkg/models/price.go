package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCVBar represents one daily price bar
type OHLCVBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// PriceSnapshot represents current price statistics and recent OHLCV history
type PriceSnapshot struct {
	FetchedAt       time.Time       `json:"fetched_at"`
	Symbol          string          `json:"symbol"`
	CompanyName     string          `json:"company_name"`
	Sector          string          `json:"sector"`
	Currency        string          `json:"currency"` // "USD", "CAD", ...
	CurrentPrice    decimal.Decimal `json:"current_price"`
	PreviousClose   decimal.Decimal `json:"previous_close"`
	DayChange       decimal.Decimal `json:"day_change"`
	DayChangePct    float64         `json:"day_change_pct"`
	Week52High      decimal.Decimal `json:"week_52_high"`
	Week52Low       decimal.Decimal `json:"week_52_low"`
	MarketCap       int64           `json:"market_cap"`
	Volume10DayAvg  int64           `json:"volume_10day_avg"`
	Volume3MonthAvg int64           `json:"volume_3month_avg"`
	PETrailing      *float64        `json:"pe_trailing,omitempty"`
	PEForward       *float64        `json:"pe_forward,omitempty"`
	EPSTrailing     *float64        `json:"eps_trailing,omitempty"`
	DividendYield   *float64        `json:"dividend_yield,omitempty"`
	Beta            *float64        `json:"beta,omitempty"`
	Bars            []OHLCVBar      `json:"ohlcv_bars"` // oldest first
}

// Closes returns the close series of the OHLCV bars, oldest first
func (p *PriceSnapshot) Closes() []float64 {
	closes := make([]float64, 0, len(p.Bars))
	for _, b := range p.Bars {
		closes = append(closes, b.Close)
	}
	return closes
}

// CurrencyPrefix returns the display prefix for the snapshot's currency
func (p *PriceSnapshot) CurrencyPrefix() string {
	if p.Currency == "CAD" {
		return "C$"
	}
	return "$"
}
