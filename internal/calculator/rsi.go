package calculator

import (
	"errors"
	"fmt"

	"OptionSentinel/internal/model"
)

// CalculateRSI computes RSI over the trailing period+1 bars using a single-window
// average of gains and losses. Requires at least period+1 bars.
// A window with no losses reads 100.
func CalculateRSI(bars []model.PriceBar, period int) (model.RSIResult, error) {
	if period <= 0 {
		return model.RSIResult{}, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return model.RSIResult{}, fmt.Errorf("%w: RSI(%d) needs %d bars, got %d", model.ErrInsufficientHistory, period, period+1, len(bars))
	}

	closes := extractCloses(bars[len(bars)-period-1:])

	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change // make positive
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	res := model.RSIResult{AvgGain: avgGain, AvgLoss: avgLoss}
	if avgLoss == 0 {
		res.Value = 100.0
		return res, nil
	}
	rs := avgGain / avgLoss
	res.Value = 100.0 - 100.0/(1.0+rs)
	return res, nil
}
