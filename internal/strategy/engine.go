// Package strategy selects options strategies from technical indicators and
// the volatility regime of an instrument.
//
// Each evaluation is stateless: it reads the snapshot, bar history and
// volatility profile from the injected collaborators, runs one rule set, and
// on a match scores, prices and assembles the strategy. Failures never abort
// the caller; they are reported on the returned Decision.
package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"OptionSentinel/internal/calculator"
	"OptionSentinel/internal/model"
)

// Config holds indicator windows.
type Config struct {
	MomentumLookback       int
	RSIPeriods             int
	BollingerPeriods       int
	VolatilityLookbackDays int
	Instruments            map[string]InstrumentPolicy
}

// DefaultConfig returns the standard indicator windows.
func DefaultConfig() Config {
	return Config{
		MomentumLookback:       10,
		RSIPeriods:             14,
		BollingerPeriods:       20,
		VolatilityLookbackDays: 252,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MomentumLookback <= 0 {
		c.MomentumLookback = d.MomentumLookback
	}
	if c.RSIPeriods <= 0 {
		c.RSIPeriods = d.RSIPeriods
	}
	if c.BollingerPeriods <= 0 {
		c.BollingerPeriods = d.BollingerPeriods
	}
	if c.VolatilityLookbackDays <= 0 {
		c.VolatilityLookbackDays = d.VolatilityLookbackDays
	}
	return c
}

// barsNeeded is the longest window any rule set reads.
func (c Config) barsNeeded() int {
	n := c.MomentumLookback
	if c.RSIPeriods+1 > n {
		n = c.RSIPeriods + 1
	}
	if c.BollingerPeriods > n {
		n = c.BollingerPeriods
	}
	return n
}

// Decision is the outcome of one evaluation.
//
//   - Strategy set: a strategy was produced.
//   - Strategy nil, Reason nil: the rules ran and nothing matched.
//   - Strategy nil, Reason set: the evaluation degraded; Reason wraps one of
//     the model error sentinels or a collaborator failure.
type Decision struct {
	Symbol      string
	Family      model.Family
	Strategy    *model.OptionsStrategy
	Reason      error
	EvaluatedAt time.Time
}

// Found reports whether a strategy was produced.
func (d Decision) Found() bool { return d.Strategy != nil }

// Degraded reports whether the evaluation could not run to completion.
func (d Decision) Degraded() bool { return d.Strategy == nil && d.Reason != nil }

// Decision outcomes.
const (
	OutcomeStrategy = "STRATEGY"
	OutcomeNoSignal = "NO_SIGNAL"
	OutcomeDegraded = "DEGRADED"
)

// Outcome names the decision state.
func (d Decision) Outcome() string {
	switch {
	case d.Found():
		return OutcomeStrategy
	case d.Degraded():
		return OutcomeDegraded
	default:
		return OutcomeNoSignal
	}
}

// Engine evaluates rule sets against live collaborator data. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	deps      Collaborators
	assembler *Assembler
	cfg       Config
	log       zerolog.Logger
}

// NewEngine wires an Engine.
func NewEngine(deps Collaborators, cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		deps:      deps,
		assembler: NewAssembler(deps.Chain, deps.Greeks),
		cfg:       cfg.withDefaults(),
		log:       logger.With().Str("component", "strategy").Logger(),
	}
}

// EvaluateMomentumBreakout runs the momentum breakout rule set.
func (e *Engine) EvaluateMomentumBreakout(ctx context.Context, symbol string) Decision {
	return e.evaluate(ctx, symbol, model.MomentumBreakout)
}

// EvaluateMeanReversion runs the mean reversion rule set.
func (e *Engine) EvaluateMeanReversion(ctx context.Context, symbol string) Decision {
	return e.evaluate(ctx, symbol, model.MeanReversion)
}

// EvaluateVolatilityExpansion runs the volatility expansion rule set.
func (e *Engine) EvaluateVolatilityExpansion(ctx context.Context, symbol string) Decision {
	return e.evaluate(ctx, symbol, model.VolatilityExpansion)
}

// EvaluateFamily runs the named rule set.
func (e *Engine) EvaluateFamily(ctx context.Context, symbol string, family model.Family) Decision {
	return e.evaluate(ctx, symbol, family)
}

// Evaluate runs Momentum Breakout, Mean Reversion and Volatility Expansion in
// that order and returns the first decision carrying a strategy. When none
// match it returns the last decision.
func (e *Engine) Evaluate(ctx context.Context, symbol string) Decision {
	var d Decision
	for _, f := range model.Families {
		d = e.evaluate(ctx, symbol, f)
		if d.Found() {
			return d
		}
	}
	return d
}

// EvaluateAll runs every rule set and returns their decisions in precedence order.
func (e *Engine) EvaluateAll(ctx context.Context, symbol string) []Decision {
	out := make([]Decision, 0, len(model.Families))
	for _, f := range model.Families {
		out = append(out, e.evaluate(ctx, symbol, f))
	}
	return out
}

// inputs is everything one evaluation reads from collaborators.
type inputs struct {
	snap    model.MarketSnapshot
	bars    []model.PriceBar
	profile model.VolatilityProfile
}

func (e *Engine) gather(ctx context.Context, symbol string) (inputs, error) {
	var in inputs

	snap, ok, err := e.deps.Market.CurrentSnapshot(ctx, symbol)
	if err != nil {
		return in, fmt.Errorf("market snapshot: %w", err)
	}
	if !ok {
		return in, fmt.Errorf("%w: %s", model.ErrMissingSnapshot, symbol)
	}
	in.snap = snap

	bars, err := e.deps.Market.RecentBars(ctx, symbol, e.cfg.barsNeeded())
	if err != nil {
		return in, fmt.Errorf("recent bars: %w", err)
	}
	in.bars = bars

	profile, ok, err := e.deps.Volatility.Profile(ctx, symbol, e.cfg.VolatilityLookbackDays)
	if err != nil {
		return in, fmt.Errorf("volatility profile: %w", err)
	}
	if !ok {
		return in, fmt.Errorf("%w: %s", model.ErrMissingProfile, symbol)
	}
	in.profile = profile

	return in, nil
}

func (e *Engine) evaluate(ctx context.Context, symbol string, family model.Family) Decision {
	d := Decision{Symbol: symbol, Family: family, EvaluatedAt: time.Now()}
	logger := e.log.With().Str("symbol", symbol).Str("family", string(family)).Logger()

	degrade := func(err error) Decision {
		d.Reason = err
		logger.Warn().Err(err).Msg("evaluation degraded")
		return d
	}

	if err := ctx.Err(); err != nil {
		return degrade(err)
	}

	in, err := e.gather(ctx, symbol)
	if err != nil {
		return degrade(err)
	}
	if !in.snap.Timestamp.IsZero() {
		d.EvaluatedAt = in.snap.Timestamp
	}

	var (
		cand     Candidate
		matched  bool
		momentum = math.NaN()
	)

	switch family {
	case model.MomentumBreakout:
		momentum, err = calculator.CalculateMomentum(in.bars, in.snap, e.cfg.MomentumLookback)
		if err != nil {
			return degrade(err)
		}
		cand, matched = SelectMomentumBreakout(momentum, in.profile.Percentile)
		logger.Debug().Float64("momentum", momentum).Float64("vol_rank", in.profile.Percentile).Bool("matched", matched).Msg("momentum breakout")

	case model.MeanReversion:
		bands, err := calculator.CalculateBollingerBands(in.bars, e.cfg.BollingerPeriods)
		if err != nil {
			return degrade(err)
		}
		rsi, err := calculator.CalculateRSI(in.bars, e.cfg.RSIPeriods)
		if err != nil {
			return degrade(err)
		}
		cand, matched, err = SelectMeanReversion(in.snap.Price, bands, rsi)
		if err != nil {
			return degrade(err)
		}
		logger.Debug().Float64("rsi", rsi.Value).Float64("middle", bands.Middle).Float64("bandwidth", bands.Bandwidth).Bool("matched", matched).Msg("mean reversion")

	case model.VolatilityExpansion:
		cand, matched, err = SelectVolatilityExpansion(in.profile)
		if err != nil {
			return degrade(err)
		}
		logger.Debug().Float64("iv", in.profile.ImpliedVolatility).Float64("hv", in.profile.HistoricalVolatility).Float64("trend", in.profile.Trend).Bool("matched", matched).Msg("volatility expansion")

	default:
		return degrade(fmt.Errorf("unknown strategy family %q", family))
	}

	if !matched {
		return d
	}

	if math.IsNaN(momentum) {
		if m, err := calculator.CalculateMomentum(in.bars, in.snap, e.cfg.MomentumLookback); err == nil {
			momentum = m
		} else {
			logger.Debug().Err(err).Msg("momentum unavailable for confidence")
		}
	}
	confidence := Confidence(momentum, in.profile, cand.Direction())

	s, err := e.assembler.Assemble(ctx, cand, in.snap, e.policyFor(symbol), confidence)
	if err != nil {
		return degrade(err)
	}
	d.Strategy = &s

	logger.Info().
		Str("strategy", s.Name).
		Float64("confidence", s.Confidence).
		Float64("max_risk", s.MaxRisk).
		Msg("strategy selected")
	return d
}

func (e *Engine) policyFor(symbol string) InstrumentPolicy {
	if p, ok := e.cfg.Instruments[symbol]; ok {
		return p
	}
	return DefaultInstrumentPolicy()
}
