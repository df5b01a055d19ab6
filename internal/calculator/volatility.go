package calculator

import (
	"fmt"
	"math"

	"OptionSentinel/internal/model"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252

// RealizedVolatilitySeries returns the rolling annualized standard deviation of
// daily log returns, one point per bar once window returns are available.
func RealizedVolatilitySeries(bars []model.PriceBar, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("realized volatility window must be >= 2, got %d", window)
	}
	if len(bars) < window+1 {
		return nil, fmt.Errorf("%w: realized volatility(%d) needs %d bars, got %d", model.ErrInsufficientHistory, window, window+1, len(bars))
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev <= 0 || cur <= 0 {
			return nil, fmt.Errorf("%w: non-positive close at bar %d", model.ErrInvalidPriceData, i)
		}
		returns = append(returns, math.Log(cur/prev))
	}

	series := make([]float64, 0, len(returns)-window+1)
	for end := window; end <= len(returns); end++ {
		series = append(series, stdDev(returns[end-window:end])*math.Sqrt(TradingDaysPerYear))
	}
	return series, nil
}

// PercentileRank returns the share of values strictly below current, scaled to 0 ~ 100.
func PercentileRank(values []float64, current float64) float64 {
	if len(values) == 0 {
		return 50
	}
	below := 0
	for _, v := range values {
		if v < current {
			below++
		}
	}
	return float64(below) / float64(len(values)) * 100
}

// Slope returns the least-squares slope of data against its index.
func Slope(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range data {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := float64(n)*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denominator
}

// sample standard deviation
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sq := 0.0
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
