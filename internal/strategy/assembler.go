package strategy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"OptionSentinel/internal/model"
)

// Assembler turns a candidate into a concrete, priced strategy.
type Assembler struct {
	Chain  OptionsChain
	Greeks GreeksCalculator
	NewID  func() string
}

// NewAssembler creates an Assembler that stamps strategies with random UUIDs.
func NewAssembler(chain OptionsChain, greeks GreeksCalculator) *Assembler {
	return &Assembler{Chain: chain, Greeks: greeks, NewID: uuid.NewString}
}

// legPlan is an unresolved leg.
type legPlan struct {
	right  model.Right
	strike float64
	qty    int
}

// Assemble picks expiry and strikes under policy, resolves every leg on the
// chain and computes payoff and aggregate Greeks.
func (a *Assembler) Assemble(ctx context.Context, c Candidate, snap model.MarketSnapshot, policy InstrumentPolicy, confidence float64) (model.OptionsStrategy, error) {
	policy = policy.withDefaults()

	expiry := policy.Expiry.Expiry(snap.Timestamp)
	plans, err := planLegs(c.Kind, snap.Price, policy)
	if err != nil {
		return model.OptionsStrategy{}, err
	}

	legs := make([]model.Leg, 0, len(plans))
	var greeks model.Greeks
	for _, p := range plans {
		contract, ok, err := a.Chain.Contract(ctx, snap.Symbol, p.strike, expiry, p.right)
		if err != nil {
			return model.OptionsStrategy{}, fmt.Errorf("options chain %s %.2f %s: %w", snap.Symbol, p.strike, p.right, err)
		}
		if !ok {
			return model.OptionsStrategy{}, fmt.Errorf("%w: %s %.2f %s %s", model.ErrContractNotFound, snap.Symbol, p.strike, p.right, expiry.Format("2006-01-02"))
		}
		g, err := a.Greeks.Greeks(contract, snap)
		if err != nil {
			return model.OptionsStrategy{}, fmt.Errorf("greeks: %w", err)
		}
		greeks = greeks.Add(g, float64(p.qty))
		legs = append(legs, model.Leg{Contract: contract, Quantity: p.qty})
	}

	s := model.OptionsStrategy{
		Name:         strategyName(c.Kind, snap.Symbol, legs, expiry),
		Kind:         c.Kind,
		Family:       c.Family,
		Direction:    c.Direction(),
		Underlying:   snap.Symbol,
		SpotPrice:    snap.Price,
		Legs:         legs,
		ProfitTarget: c.ProfitTarget,
		Greeks:       greeks,
		Confidence:   confidence,
		CreatedAt:    snap.Timestamp,
	}
	if a.NewID != nil {
		s.ID = a.NewID()
	}
	applyPayoff(&s)
	return s, nil
}

func planLegs(kind model.StrategyKind, price float64, policy InstrumentPolicy) ([]legPlan, error) {
	step := policy.Strikes.Step(price)
	atm := RoundToStep(price, step)

	switch kind {
	case model.LongCall:
		return []legPlan{{model.Call, atm, 1}}, nil
	case model.LongPut:
		return []legPlan{{model.Put, atm, 1}}, nil
	case model.Straddle:
		return []legPlan{{model.Call, atm, 1}, {model.Put, atm, 1}}, nil
	case model.CallSpread, model.PutSpread:
		width, err := policy.SpreadWidth.Width(step, price)
		if err != nil {
			return nil, err
		}
		if kind == model.CallSpread {
			return []legPlan{{model.Call, atm, 1}, {model.Call, atm + width, -1}}, nil
		}
		return []legPlan{{model.Put, atm, 1}, {model.Put, atm - width, -1}}, nil
	case model.IronCondor:
		offset, err := policy.CondorOffset.Width(step, price)
		if err != nil {
			return nil, err
		}
		wing, err := policy.CondorWing.Width(step, price)
		if err != nil {
			return nil, err
		}
		return []legPlan{
			{model.Put, atm - offset - wing, 1},
			{model.Put, atm - offset, -1},
			{model.Call, atm + offset, -1},
			{model.Call, atm + offset + wing, 1},
		}, nil
	}
	return nil, fmt.Errorf("unsupported strategy kind %q", kind)
}

// applyPayoff fills max risk, max profit and breakevens from the resolved legs.
// Leg order follows planLegs.
func applyPayoff(s *model.OptionsStrategy) {
	legs := s.Legs
	premium := func(i int) float64 { return legs[i].Contract.Premium }
	strike := func(i int) float64 { return legs[i].Contract.Strike }

	switch s.Kind {
	case model.LongCall:
		s.MaxRisk = premium(0)
		s.MaxProfitUnbounded = true
		s.Breakevens = []float64{strike(0) + premium(0)}
	case model.LongPut:
		s.MaxRisk = premium(0)
		s.MaxProfit = strike(0) - premium(0)
		s.Breakevens = []float64{strike(0) - premium(0)}
	case model.CallSpread:
		debit := premium(0) - premium(1)
		s.MaxRisk = debit
		s.MaxProfit = strike(1) - strike(0) - debit
		s.Breakevens = []float64{strike(0) + debit}
	case model.PutSpread:
		debit := premium(0) - premium(1)
		s.MaxRisk = debit
		s.MaxProfit = strike(0) - strike(1) - debit
		s.Breakevens = []float64{strike(0) - debit}
	case model.Straddle:
		debit := premium(0) + premium(1)
		s.MaxRisk = debit
		s.MaxProfitUnbounded = true
		s.Breakevens = []float64{strike(0) - debit, strike(0) + debit}
	case model.IronCondor:
		credit := premium(1) + premium(2) - premium(0) - premium(3)
		wing := strike(1) - strike(0)
		if callWing := strike(3) - strike(2); callWing > wing {
			wing = callWing
		}
		s.MaxProfit = credit
		s.MaxRisk = wing - credit
		s.Breakevens = []float64{strike(1) - credit, strike(2) + credit}
	}
}

var kindLabels = map[model.StrategyKind]string{
	model.LongCall:   "Long Call",
	model.LongPut:    "Long Put",
	model.CallSpread: "Bull Call Spread",
	model.PutSpread:  "Bear Put Spread",
	model.Straddle:   "Long Straddle",
	model.IronCondor: "Iron Condor",
}

// strategyName renders e.g. "Bull Call Spread SPX 5800/5850 2025-03-07".
func strategyName(kind model.StrategyKind, symbol string, legs []model.Leg, expiry time.Time) string {
	seen := map[float64]bool{}
	var strikes []float64
	for _, l := range legs {
		if !seen[l.Contract.Strike] {
			seen[l.Contract.Strike] = true
			strikes = append(strikes, l.Contract.Strike)
		}
	}
	sort.Float64s(strikes)
	parts := make([]string, len(strikes))
	for i, k := range strikes {
		parts[i] = strconv.FormatFloat(k, 'f', -1, 64)
	}
	return fmt.Sprintf("%s %s %s %s", kindLabels[kind], symbol, strings.Join(parts, "/"), expiry.Format("2006-01-02"))
}
