package model

import "time"

// Right is the option right.
type Right string

const (
	Call Right = "CALL"
	Put  Right = "PUT"
)

// OptionsContract is a listed option as returned by the chain.
type OptionsContract struct {
	Symbol            string    `json:"symbol"` // OCC-style ticker
	Underlying        string    `json:"underlying"`
	Strike            float64   `json:"strike"`
	Expiry            time.Time `json:"expiry"`
	Right             Right     `json:"right"`
	Premium           float64   `json:"premium"`
	ImpliedVolatility float64   `json:"implied_volatility"` // 0 when the chain does not publish one
}

// Greeks holds per-unit option sensitivities. Theta is per calendar day,
// Vega per one volatility point.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// Add returns g + qty*o.
func (g Greeks) Add(o Greeks, qty float64) Greeks {
	return Greeks{
		Delta: g.Delta + qty*o.Delta,
		Gamma: g.Gamma + qty*o.Gamma,
		Theta: g.Theta + qty*o.Theta,
		Vega:  g.Vega + qty*o.Vega,
	}
}
