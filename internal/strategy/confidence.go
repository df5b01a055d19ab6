package strategy

import (
	"math"

	"OptionSentinel/internal/model"
)

// Confidence bounds.
const (
	BaseConfidence = 0.5
	MaxConfidence  = 0.95
)

// Confidence scores a candidate from momentum strength, volatility rank and
// trend alignment. The result lies in [0.5, 0.95].
func Confidence(momentum float64, profile model.VolatilityProfile, dir model.Direction) float64 {
	score := BaseConfidence

	if !math.IsNaN(momentum) {
		score += math.Min(0.3, math.Abs(momentum)/10.0)
	}

	// Directional bets want cheap volatility, neutral ones want it rich.
	cheap := profile.Percentile < 50
	if dir == model.Neutral {
		cheap = profile.Percentile > 50
	}
	if cheap {
		score += 0.2
	} else {
		score += 0.1
	}

	if trendAligned(profile.Trend, dir) {
		score += 0.25
	}

	return math.Max(BaseConfidence, math.Min(MaxConfidence, score))
}

func trendAligned(trend float64, dir model.Direction) bool {
	switch dir {
	case model.Bullish:
		return trend > 0
	case model.Bearish:
		return trend < 0
	default:
		return math.Abs(trend) < 0.5
	}
}
