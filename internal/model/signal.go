package model

import "time"

// StrategyKind names the options structure a selector asks for.
type StrategyKind string

const (
	LongCall   StrategyKind = "LONG_CALL"
	LongPut    StrategyKind = "LONG_PUT"
	CallSpread StrategyKind = "CALL_SPREAD"
	PutSpread  StrategyKind = "PUT_SPREAD"
	Straddle   StrategyKind = "STRADDLE"
	IronCondor StrategyKind = "IRON_CONDOR"
)

// Direction is the market bias behind a strategy.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// Direction returns the bias a strategy kind expresses.
func (k StrategyKind) Direction() Direction {
	switch k {
	case LongCall, CallSpread:
		return Bullish
	case LongPut, PutSpread:
		return Bearish
	default:
		return Neutral
	}
}

// Family identifies one selector rule set.
type Family string

const (
	MomentumBreakout    Family = "MOMENTUM_BREAKOUT"
	MeanReversion       Family = "MEAN_REVERSION"
	VolatilityExpansion Family = "VOLATILITY_EXPANSION"
)

// Families lists the rule sets in evaluation precedence order.
var Families = []Family{MomentumBreakout, MeanReversion, VolatilityExpansion}

// Leg is one contract in a strategy. Quantity is signed: +1 long, -1 short.
type Leg struct {
	Contract OptionsContract `json:"contract"`
	Quantity int             `json:"quantity"`
}

// OptionsStrategy is the final output of the strategy engine.
// Monetary values are per unit of the underlying.
type OptionsStrategy struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Kind               StrategyKind `json:"kind"`
	Family             Family       `json:"family"`
	Direction          Direction    `json:"direction"`
	Underlying         string       `json:"underlying"`
	SpotPrice          float64      `json:"spot_price"`
	Legs               []Leg        `json:"legs"`
	MaxRisk            float64      `json:"max_risk"`
	MaxProfit          float64      `json:"max_profit"`
	MaxProfitUnbounded bool         `json:"max_profit_unbounded"`
	Breakevens         []float64    `json:"breakevens"`
	ProfitTarget       float64      `json:"profit_target"` // fraction of max profit, 0 when none
	Greeks             Greeks       `json:"greeks"`
	Confidence         float64      `json:"confidence"` // 0.5 ~ 0.95
	CreatedAt          time.Time    `json:"created_at"`
}
