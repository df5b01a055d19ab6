package model

import "time"

// PriceBar represents a single candlestick bar.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MarketSnapshot is the current quote for an instrument.
type MarketSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// VolatilityProfile summarizes the volatility regime over a lookback window.
// Volatilities are annualized decimals (0.18 = 18%). Trend is the slope of the
// volatility series in percentage points per bar.
type VolatilityProfile struct {
	ImpliedVolatility    float64 `json:"implied_volatility"`
	HistoricalVolatility float64 `json:"historical_volatility"`
	Trend                float64 `json:"trend"`
	Percentile           float64 `json:"percentile"` // 0 ~ 100
}
