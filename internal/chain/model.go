// Package chain resolves option contracts for the strategy assembler.
package chain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/pricing"
	"OptionSentinel/internal/strategy"
)

// Premium ticks, CBOE style.
const (
	MinPremium     = 0.05
	lowTick        = 0.05
	highTick       = 0.10
	tickBreakpoint = 3.0
)

// Listing describes which contracts an underlying lists.
type Listing struct {
	Strikes strategy.StrikeLadder
	Weekday time.Weekday
	Weeks   int     // weekly expiries listed ahead
	Range   float64 // strikes listed within this fraction of spot
}

// DefaultListing lists Thursday weeklies eight weeks out on the default
// strike ladder, within 20% of spot.
func DefaultListing() Listing {
	return Listing{
		Strikes: strategy.DefaultStrikeLadder,
		Weekday: time.Thursday,
		Weeks:   8,
		Range:   0.2,
	}
}

func (l Listing) withDefaults() Listing {
	d := DefaultListing()
	if len(l.Strikes) == 0 {
		l.Strikes = d.Strikes
	}
	if l.Weeks <= 0 {
		l.Weeks = d.Weeks
	}
	if l.Range <= 0 {
		l.Range = d.Range
	}
	return l
}

// Lists reports whether the contract is listed as of snap.
func (l Listing) Lists(snap model.MarketSnapshot, strike float64, expiry time.Time) bool {
	l = l.withDefaults()
	if strike <= 0 || !strategy.OnStep(strike, l.Strikes.Step(snap.Price)) {
		return false
	}
	if math.Abs(strike-snap.Price) > l.Range*snap.Price {
		return false
	}
	if expiry.Weekday() != l.Weekday {
		return false
	}
	days := daysBetween(snap.Timestamp, expiry)
	return days >= 0 && days <= 7*l.Weeks
}

// Expiries returns the listed expiries as of asOf, nearest first.
func (l Listing) Expiries(asOf time.Time) []time.Time {
	l = l.withDefaults()
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	first := day.AddDate(0, 0, (int(l.Weekday)-int(day.Weekday())+7)%7)
	out := make([]time.Time, 0, l.Weeks)
	for e := first; daysBetween(day, e) <= 7*l.Weeks; e = e.AddDate(0, 0, 7) {
		out = append(out, e)
	}
	return out
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// ModelChain lists a synthetic chain priced with Black-Scholes at the
// instrument's implied volatility. It holds no state of its own.
type ModelChain struct {
	Market       strategy.MarketData
	Volatility   strategy.VolatilitySource
	Listings     map[string]Listing
	Rate         float64
	LookbackDays int
	log          zerolog.Logger
}

// NewModelChain creates a ModelChain. Symbols without a listing use DefaultListing.
func NewModelChain(market strategy.MarketData, vol strategy.VolatilitySource, listings map[string]Listing, rate float64, lookbackDays int, logger zerolog.Logger) *ModelChain {
	if listings == nil {
		listings = map[string]Listing{}
	}
	return &ModelChain{
		Market:       market,
		Volatility:   vol,
		Listings:     listings,
		Rate:         rate,
		LookbackDays: lookbackDays,
		log:          logger.With().Str("component", "chain").Logger(),
	}
}

func (c *ModelChain) listingFor(symbol string) Listing {
	if l, ok := c.Listings[symbol]; ok {
		return l
	}
	return DefaultListing()
}

func (c *ModelChain) Contract(ctx context.Context, symbol string, strike float64, expiry time.Time, right model.Right) (model.OptionsContract, bool, error) {
	snap, ok, err := c.Market.CurrentSnapshot(ctx, symbol)
	if err != nil {
		return model.OptionsContract{}, false, fmt.Errorf("chain snapshot: %w", err)
	}
	if !ok {
		return model.OptionsContract{}, false, nil
	}
	if !c.listingFor(symbol).Lists(snap, strike, expiry) {
		c.log.Debug().Str("symbol", symbol).Float64("strike", strike).Time("expiry", expiry).Str("right", string(right)).Msg("contract not listed")
		return model.OptionsContract{}, false, nil
	}

	profile, ok, err := c.Volatility.Profile(ctx, symbol, c.LookbackDays)
	if err != nil {
		return model.OptionsContract{}, false, fmt.Errorf("chain volatility: %w", err)
	}
	if !ok {
		return model.OptionsContract{}, false, nil
	}
	sigma := profile.ImpliedVolatility
	if sigma <= 0 {
		sigma = profile.HistoricalVolatility
	}
	if sigma <= 0 {
		return model.OptionsContract{}, false, fmt.Errorf("%w: no volatility to price %s", model.ErrInvalidVolatilityData, symbol)
	}

	T := pricing.YearsBetween(snap.Timestamp, expiry)
	premium := pricing.BlackScholesPrice(right == model.Call, snap.Price, strike, T, c.Rate, sigma)

	return model.OptionsContract{
		Symbol:            OCCSymbol(symbol, expiry, right, strike),
		Underlying:        symbol,
		Strike:            strike,
		Expiry:            expiry,
		Right:             right,
		Premium:           roundPremium(premium),
		ImpliedVolatility: sigma,
	}, true, nil
}

func roundPremium(p float64) float64 {
	tick := lowTick
	if p >= tickBreakpoint {
		tick = highTick
	}
	return math.Max(strategy.RoundToStep(p, tick), MinPremium)
}
