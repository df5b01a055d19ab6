// Package collector supplies quotes, bar history and volatility profiles from
// a market data provider.
package collector

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"OptionSentinel/internal/calculator"
	"OptionSentinel/internal/model"
)

// Volatility profile windows.
const (
	RealizedWindow = 20
	TrendPoints    = 5
)

// Collector adapts a Fetcher to the engine's market data and volatility
// collaborators. It keeps no state between calls.
type Collector struct {
	Fetcher Fetcher
	// ImpliedIndex maps an underlying to the index quoting its implied
	// volatility in percentage points, e.g. SPX -> VIX.
	ImpliedIndex map[string]string
	log          zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, impliedIndex map[string]string, logger zerolog.Logger) *Collector {
	if impliedIndex == nil {
		impliedIndex = map[string]string{}
	}
	return &Collector{
		Fetcher:      fetcher,
		ImpliedIndex: impliedIndex,
		log:          logger.With().Str("component", "collector").Str("provider", fetcher.Name()).Logger(),
	}
}

func (c *Collector) CurrentSnapshot(ctx context.Context, symbol string) (model.MarketSnapshot, bool, error) {
	snap, ok, err := c.Fetcher.FetchQuote(ctx, symbol)
	if err != nil || !ok {
		return snap, ok, err
	}
	if snap.Price <= 0 {
		return model.MarketSnapshot{}, false, fmt.Errorf("%w: %s quote %.4f", model.ErrInvalidPriceData, symbol, snap.Price)
	}
	return snap, true, nil
}

func (c *Collector) RecentBars(ctx context.Context, symbol string, count int) ([]model.PriceBar, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, count)
	if err != nil {
		return nil, err
	}
	return trimBars(bars, count), nil
}

// Profile builds the volatility regime of symbol over lookbackDays.
//
// Historical volatility is the latest 20-bar realized volatility. When an
// implied volatility index is configured, implied volatility, percentile and
// trend come from that index; otherwise the realized series stands in for
// implied volatility.
func (c *Collector) Profile(ctx context.Context, symbol string, lookbackDays int) (model.VolatilityProfile, bool, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, lookbackDays+RealizedWindow+1)
	if err != nil {
		return model.VolatilityProfile{}, false, err
	}
	if len(bars) == 0 {
		return model.VolatilityProfile{}, false, nil
	}

	realized, err := calculator.RealizedVolatilitySeries(bars, RealizedWindow)
	if err != nil {
		return model.VolatilityProfile{}, false, err
	}
	realized = lastN(realized, lookbackDays)
	hv := realized[len(realized)-1]

	series, iv := realized, hv
	if index, ok := c.ImpliedIndex[symbol]; ok {
		implied, current, err := c.impliedSeries(ctx, index, lookbackDays)
		if err != nil {
			return model.VolatilityProfile{}, false, err
		}
		if len(implied) > 0 {
			series, iv = implied, current
		} else {
			c.log.Warn().Str("symbol", symbol).Str("index", index).Msg("implied volatility index unavailable, using realized volatility")
		}
	}

	profile := model.VolatilityProfile{
		ImpliedVolatility:    iv,
		HistoricalVolatility: hv,
		Trend:                calculator.Slope(lastN(series, TrendPoints)) * 100,
		Percentile:           calculator.PercentileRank(series, iv),
	}
	c.log.Debug().
		Str("symbol", symbol).
		Float64("iv", profile.ImpliedVolatility).
		Float64("hv", profile.HistoricalVolatility).
		Float64("trend", profile.Trend).
		Float64("percentile", profile.Percentile).
		Msg("volatility profile")
	return profile, true, nil
}

// impliedSeries reads an index quoted in percentage points as decimals.
func (c *Collector) impliedSeries(ctx context.Context, index string, lookbackDays int) ([]float64, float64, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, index, lookbackDays)
	if err != nil {
		return nil, 0, fmt.Errorf("implied volatility %s: %w", index, err)
	}
	series := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 {
			series = append(series, b.Close/100)
		}
	}
	if len(series) == 0 {
		return nil, 0, nil
	}

	current := series[len(series)-1]
	snap, ok, err := c.Fetcher.FetchQuote(ctx, index)
	if err != nil {
		return nil, 0, fmt.Errorf("implied volatility %s: %w", index, err)
	}
	if ok && snap.Price > 0 {
		current = snap.Price / 100
	}
	return series, current, nil
}

func lastN(values []float64, n int) []float64 {
	if n > 0 && len(values) > n {
		return values[len(values)-n:]
	}
	return values
}
