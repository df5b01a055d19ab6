package strategy

import (
	"fmt"

	"OptionSentinel/internal/model"
)

// Rule thresholds.
const (
	BreakoutMomentum   = 2.0
	BreakoutMaxVolRank = 30.0

	OversoldRSI        = 25.0
	OverboughtRSI      = 75.0
	ReversionDistance  = 1.5
	SpreadProfitTarget = 0.70

	CheapVolRatio = 0.8
	RichVolRatio  = 1.3
)

// Candidate is a selector's request for a strategy kind. It carries no strikes
// or expiry; the Assembler resolves those.
type Candidate struct {
	Family       model.Family
	Kind         model.StrategyKind
	ProfitTarget float64
}

// Direction returns the market bias of the requested kind.
func (c Candidate) Direction() model.Direction { return c.Kind.Direction() }

// SelectMomentumBreakout buys direction when momentum is strong and
// volatility is cheap relative to its history:
//
//	momentum > 2 and rank < 30  -> LONG_CALL
//	momentum < -2 and rank < 30 -> LONG_PUT
func SelectMomentumBreakout(momentum, volRank float64) (Candidate, bool) {
	if volRank >= BreakoutMaxVolRank {
		return Candidate{}, false
	}
	switch {
	case momentum > BreakoutMomentum:
		return Candidate{Family: model.MomentumBreakout, Kind: model.LongCall}, true
	case momentum < -BreakoutMomentum:
		return Candidate{Family: model.MomentumBreakout, Kind: model.LongPut}, true
	}
	return Candidate{}, false
}

// DistanceFromMean returns how many bandwidths price sits from the middle band.
// A zero bandwidth (flat window) has no defined distance.
func DistanceFromMean(price float64, bands model.BollingerBands) (float64, error) {
	if bands.Bandwidth <= 0 {
		return 0, fmt.Errorf("%w: zero bollinger bandwidth", model.ErrInsufficientHistory)
	}
	return (price - bands.Middle) / bands.Bandwidth, nil
}

// SelectMeanReversion fades stretched moves with debit spreads:
//
//	rsi < 25 and distance < -1.5 -> CALL_SPREAD
//	rsi > 75 and distance > 1.5  -> PUT_SPREAD
func SelectMeanReversion(price float64, bands model.BollingerBands, rsi model.RSIResult) (Candidate, bool, error) {
	distance, err := DistanceFromMean(price, bands)
	if err != nil {
		return Candidate{}, false, err
	}
	switch {
	case rsi.Value < OversoldRSI && distance < -ReversionDistance:
		return Candidate{Family: model.MeanReversion, Kind: model.CallSpread, ProfitTarget: SpreadProfitTarget}, true, nil
	case rsi.Value > OverboughtRSI && distance > ReversionDistance:
		return Candidate{Family: model.MeanReversion, Kind: model.PutSpread, ProfitTarget: SpreadProfitTarget}, true, nil
	}
	return Candidate{}, false, nil
}

// SelectVolatilityExpansion trades the implied/historical volatility ratio:
//
//	ratio < 0.8 and trend rising  -> STRADDLE
//	ratio > 1.3 and trend falling -> IRON_CONDOR
func SelectVolatilityExpansion(profile model.VolatilityProfile) (Candidate, bool, error) {
	if profile.HistoricalVolatility <= 0 {
		return Candidate{}, false, fmt.Errorf("%w: historical volatility %.4f", model.ErrInvalidVolatilityData, profile.HistoricalVolatility)
	}
	ratio := profile.ImpliedVolatility / profile.HistoricalVolatility
	switch {
	case ratio < CheapVolRatio && profile.Trend > 0:
		return Candidate{Family: model.VolatilityExpansion, Kind: model.Straddle}, true, nil
	case ratio > RichVolRatio && profile.Trend < 0:
		return Candidate{Family: model.VolatilityExpansion, Kind: model.IronCondor}, true, nil
	}
	return Candidate{}, false, nil
}
