package collector

import (
	"context"
	"math"
	"time"

	"OptionSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without explicit Bars get a generated series drifting around Prices.
type MockFetcher struct {
	Prices map[string]float64
	Bars   map[string][]model.PriceBar
	Now    func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.PriceBar, error) {
	if bars, ok := m.Bars[symbol]; ok {
		return trimBars(bars, days), nil
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return nil, nil
	}
	return generateMockBars(price, days, m.now()), nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (model.MarketSnapshot, bool, error) {
	price, ok := m.Prices[symbol]
	if !ok {
		bars := m.Bars[symbol]
		if len(bars) == 0 {
			return model.MarketSnapshot{}, false, nil
		}
		last := bars[len(bars)-1]
		return model.MarketSnapshot{Symbol: symbol, Price: last.Close, Volume: last.Volume, Timestamp: m.now()}, true, nil
	}
	return model.MarketSnapshot{Symbol: symbol, Price: price, Volume: 1000000, Timestamp: m.now()}, true, nil
}

func generateMockBars(basePrice float64, count int, now time.Time) []model.PriceBar {
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		// small drift plus a weekly wobble so realized volatility is non-zero
		p := basePrice * (1 + float64(i-count)*0.0005 + 0.004*math.Sin(float64(i)))
		bars[i] = model.PriceBar{
			Time:   now.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
