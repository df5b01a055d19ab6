package calculator

import (
	"fmt"
	"math"

	"OptionSentinel/internal/model"
)

// BandMultiplier is the number of standard deviations between the middle and outer bands.
const BandMultiplier = 2.0

// CalculateBollingerBands computes the bands over the trailing period closes
// using the population standard deviation.
func CalculateBollingerBands(bars []model.PriceBar, period int) (model.BollingerBands, error) {
	closes := extractCloses(bars)
	middle, err := CalculateSMA(closes, period)
	if err != nil {
		return model.BollingerBands{}, fmt.Errorf("bollinger bands: %w", err)
	}

	squareSum := 0.0
	for _, c := range closes[len(closes)-period:] {
		diff := c - middle
		squareSum += diff * diff
	}
	stdDev := math.Sqrt(squareSum / float64(period))

	return model.BollingerBands{
		Upper:     middle + BandMultiplier*stdDev,
		Middle:    middle,
		Lower:     middle - BandMultiplier*stdDev,
		Bandwidth: 2 * BandMultiplier * stdDev,
	}, nil
}
