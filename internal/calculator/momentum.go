package calculator

import (
	"errors"
	"fmt"
	"math"

	"OptionSentinel/internal/model"
)

// CalculateMomentum scores volume-weighted price change over the trailing lookback bars:
//
//	(price - oldestClose) / oldestClose * sqrt(volume / avgVolume) * 100
//
// A non-positive average volume clamps the volume ratio to zero.
func CalculateMomentum(bars []model.PriceBar, snap model.MarketSnapshot, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, errors.New("lookback must be positive")
	}
	if len(bars) < lookback {
		return 0, fmt.Errorf("%w: momentum(%d) needs %d bars, got %d", model.ErrInsufficientHistory, lookback, lookback, len(bars))
	}

	window := bars[len(bars)-lookback:]
	base := window[0].Close
	if base <= 0 {
		return 0, fmt.Errorf("%w: oldest close %.4f", model.ErrInvalidPriceData, base)
	}
	priceChange := (snap.Price - base) / base

	volumeRatio := 0.0
	if avgVolume := mean(extractVolumes(window)); avgVolume > 0 {
		volumeRatio = math.Max(snap.Volume/avgVolume, 0)
	}

	return priceChange * math.Sqrt(volumeRatio) * 100, nil
}
