// Package pricing implements Black-Scholes pricing, Greeks and implied
// volatility for European options.
package pricing

import (
	"errors"
	"math"
)

const sqrt2Pi = 2.5066282746310002

// ErrNoConvergence is returned when the implied volatility solver gives up.
var ErrNoConvergence = errors.New("implied vol did not converge")

// BlackScholesPrice calculates the price of a European option.
//
// Parameters:
//   - isCall: true for call option, false for put option
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// If time to expiry or volatility is non-positive the intrinsic value is returned.
func BlackScholesPrice(isCall bool, S, K, T, r, sigma float64) float64 {
	if T <= 0 || sigma <= 0 {
		if isCall {
			return math.Max(0, S-K)
		}
		return math.Max(0, K-S)
	}

	d1, d2 := d1d2(S, K, T, r, sigma)
	if isCall {
		return S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2)
	}
	return K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1)
}

// BlackScholesVega returns dPrice/dSigma (per 1.00 of volatility).
// Returns 0 if T or sigma is non-positive.
func BlackScholesVega(S, K, T, r, sigma float64) float64 {
	if T <= 0 || sigma <= 0 {
		return 0
	}
	d1, _ := d1d2(S, K, T, r, sigma)
	return S * normPDF(d1) * math.Sqrt(T)
}

// Sensitivities holds raw Black-Scholes Greeks. Theta is per calendar day and
// Vega per volatility point.
type Sensitivities struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// BlackScholesGreeks computes delta, gamma, theta and vega.
// At or past expiry only delta survives, as the intrinsic step.
func BlackScholesGreeks(isCall bool, S, K, T, r, sigma float64) Sensitivities {
	if T <= 0 || sigma <= 0 {
		var delta float64
		switch {
		case isCall && S > K:
			delta = 1
		case !isCall && S < K:
			delta = -1
		}
		return Sensitivities{Delta: delta}
	}

	d1, d2 := d1d2(S, K, T, r, sigma)
	sqrtT := math.Sqrt(T)
	pdf := normPDF(d1)
	discount := math.Exp(-r * T)

	g := Sensitivities{
		Gamma: pdf / (S * sigma * sqrtT),
		Vega:  S * pdf * sqrtT / 100,
	}
	decay := -S * pdf * sigma / (2 * sqrtT)
	if isCall {
		g.Delta = normCDF(d1)
		g.Theta = (decay - r*K*discount*normCDF(d2)) / 365
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = (decay + r*K*discount*normCDF(-d2)) / 365
	}
	return g
}

// ImpliedVol solves for the volatility that reproduces price using Newton-Raphson.
func ImpliedVol(isCall bool, S, K, T, r, price float64) (float64, error) {
	if T <= 0 {
		return 0, errors.New("invalid expiry")
	}
	if price <= 0 || S <= 0 || K <= 0 {
		return 0, errors.New("invalid price inputs")
	}

	// Initial guess: 20%
	sigma := 0.20

	const (
		maxIter = 100
		tol     = 1e-6
	)

	for i := 0; i < maxIter; i++ {
		diff := BlackScholesPrice(isCall, S, K, T, r, sigma) - price
		if math.Abs(diff) < tol {
			return sigma, nil
		}

		vega := BlackScholesVega(S, K, T, r, sigma)
		if vega < 1e-8 {
			break
		}

		sigma -= diff / vega

		// Guardrails
		if sigma <= 0 {
			sigma = 1e-4
		}
		if sigma > 5 {
			sigma = 5
		}
	}

	return 0, ErrNoConvergence
}

func d1d2(S, K, T, r, sigma float64) (float64, float64) {
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	return d1, d1 - sigma*math.Sqrt(T)
}

// normPDF is the standard normal density: exp(-0.5 * x^2) / sqrt(2π)
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// normCDF is the standard normal cumulative distribution via the error function.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
