package pricing

import (
	"fmt"
	"time"

	"OptionSentinel/internal/model"
)

const hoursPerYear = 365 * 24

// Calculator computes contract Greeks against a snapshot with Black-Scholes.
// It is stateless and safe for concurrent use.
type Calculator struct {
	Rate float64
}

// NewCalculator creates a Calculator using the given annual risk-free rate.
func NewCalculator(rate float64) *Calculator {
	return &Calculator{Rate: rate}
}

// YearsBetween returns the time from t to expiry in years, 0 if already past.
func YearsBetween(t, expiry time.Time) float64 {
	years := expiry.Sub(t).Hours() / hoursPerYear
	if years < 0 {
		return 0
	}
	return years
}

// Greeks uses the chain's implied volatility when published, otherwise it
// solves for one from the contract premium.
func (c *Calculator) Greeks(contract model.OptionsContract, snap model.MarketSnapshot) (model.Greeks, error) {
	isCall := contract.Right == model.Call
	T := YearsBetween(snap.Timestamp, contract.Expiry)

	sigma := contract.ImpliedVolatility
	if sigma <= 0 && T > 0 {
		iv, err := ImpliedVol(isCall, snap.Price, contract.Strike, T, c.Rate, contract.Premium)
		if err != nil {
			return model.Greeks{}, fmt.Errorf("greeks %s: %w", contract.Symbol, err)
		}
		sigma = iv
	}

	s := BlackScholesGreeks(isCall, snap.Price, contract.Strike, T, c.Rate, sigma)
	return model.Greeks{Delta: s.Delta, Gamma: s.Gamma, Theta: s.Theta, Vega: s.Vega}, nil
}
