package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"OptionSentinel/internal/model"
)

var testNow = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC) // Monday

type fakeMarket struct {
	snaps map[string]model.MarketSnapshot
	bars  map[string][]model.PriceBar
	err   error
}

func (f *fakeMarket) CurrentSnapshot(_ context.Context, symbol string) (model.MarketSnapshot, bool, error) {
	if f.err != nil {
		return model.MarketSnapshot{}, false, f.err
	}
	s, ok := f.snaps[symbol]
	return s, ok, nil
}

func (f *fakeMarket) RecentBars(_ context.Context, symbol string, count int) ([]model.PriceBar, error) {
	bars := f.bars[symbol]
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

type fakeVolatility struct {
	profiles map[string]model.VolatilityProfile
}

func (f *fakeVolatility) Profile(_ context.Context, symbol string, _ int) (model.VolatilityProfile, bool, error) {
	p, ok := f.profiles[symbol]
	return p, ok, nil
}

// fakeChain lists contracts keyed by right and strike; any expiry is accepted.
type fakeChain struct {
	premiums map[string]float64
}

func chainKey(right model.Right, strike float64) string {
	return fmt.Sprintf("%s-%.2f", right, strike)
}

func (f *fakeChain) Contract(_ context.Context, symbol string, strike float64, expiry time.Time, right model.Right) (model.OptionsContract, bool, error) {
	p, ok := f.premiums[chainKey(right, strike)]
	if !ok {
		return model.OptionsContract{}, false, nil
	}
	return model.OptionsContract{
		Symbol:     fmt.Sprintf("%s-%s-%s-%.0f", symbol, expiry.Format("060102"), right, strike),
		Underlying: symbol,
		Strike:     strike,
		Expiry:     expiry,
		Right:      right,
		Premium:    p,
	}, true, nil
}

// fakeGreeks gives calls delta 0.5 and puts -0.5 with unit gamma.
type fakeGreeks struct{}

func (fakeGreeks) Greeks(c model.OptionsContract, _ model.MarketSnapshot) (model.Greeks, error) {
	delta := 0.5
	if c.Right == model.Put {
		delta = -0.5
	}
	return model.Greeks{Delta: delta, Gamma: 1, Theta: -0.1, Vega: 0.2}, nil
}

func closesToBars(closes []float64, volume float64) []model.PriceBar {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Time:   testNow.AddDate(0, 0, i-len(closes)),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

func linear(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

type fixture struct {
	market *fakeMarket
	vols   *fakeVolatility
	chain  *fakeChain
}

func newFixture() *fixture {
	return &fixture{
		market: &fakeMarket{snaps: map[string]model.MarketSnapshot{}, bars: map[string][]model.PriceBar{}},
		vols:   &fakeVolatility{profiles: map[string]model.VolatilityProfile{}},
		chain:  &fakeChain{premiums: map[string]float64{}},
	}
}

func (f *fixture) set(symbol string, price float64, closes []float64, profile model.VolatilityProfile) {
	f.market.snaps[symbol] = model.MarketSnapshot{Symbol: symbol, Price: price, Volume: 1000, Timestamp: testNow}
	f.market.bars[symbol] = closesToBars(closes, 1000)
	f.vols.profiles[symbol] = profile
}

func (f *fixture) list(right model.Right, strike, premium float64) {
	f.chain.premiums[chainKey(right, strike)] = premium
}

// unitPolicy lists strikes every 1.0 so test prices stay readable.
func unitPolicy() InstrumentPolicy {
	return InstrumentPolicy{Strikes: NewStrikeLadder(StrikeTier{MinPrice: 0, Step: 1})}
}

func (f *fixture) engine(symbols ...string) *Engine {
	cfg := DefaultConfig()
	cfg.Instruments = map[string]InstrumentPolicy{}
	for _, s := range symbols {
		cfg.Instruments[s] = unitPolicy()
	}
	e := NewEngine(Collaborators{Market: f.market, Volatility: f.vols, Chain: f.chain, Greeks: fakeGreeks{}}, cfg, zerolog.Nop())
	e.assembler.NewID = func() string { return "test-id" }
	return e
}
