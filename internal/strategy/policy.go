package strategy

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"
)

// StrikeTier applies Step to prices strictly above MinPrice.
type StrikeTier struct {
	MinPrice float64 `yaml:"min_price"`
	Step     float64 `yaml:"step"`
}

// StrikeLadder maps an underlying price to the strike increment an instrument lists.
type StrikeLadder []StrikeTier

// DefaultStrikeLadder lists 100-point strikes above 10,000 and 50-point strikes below.
var DefaultStrikeLadder = NewStrikeLadder(StrikeTier{MinPrice: 10000, Step: 100}, StrikeTier{MinPrice: 0, Step: 50})

// NewStrikeLadder returns the tiers ordered from the highest threshold down.
func NewStrikeLadder(tiers ...StrikeTier) StrikeLadder {
	l := make(StrikeLadder, len(tiers))
	copy(l, tiers)
	sort.Slice(l, func(i, j int) bool { return l[i].MinPrice > l[j].MinPrice })
	return l
}

// Validate checks every tier has a positive step.
func (l StrikeLadder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("strike ladder has no tiers")
	}
	for _, t := range l {
		if t.Step <= 0 {
			return fmt.Errorf("strike tier above %.2f: step must be positive", t.MinPrice)
		}
	}
	return nil
}

// Step returns the strike increment for price. Prices below every threshold
// use the lowest tier.
func (l StrikeLadder) Step(price float64) float64 {
	if len(l) == 0 {
		return DefaultStrikeLadder.Step(price)
	}
	for _, t := range l {
		if price > t.MinPrice {
			return t.Step
		}
	}
	return l[len(l)-1].Step
}

// Round snaps price to the nearest listed strike.
func (l StrikeLadder) Round(price float64) float64 {
	return RoundToStep(price, l.Step(price))
}

// RoundToStep rounds v to the nearest multiple of step, halves away from zero.
func RoundToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	s := decimal.NewFromFloat(step)
	return decimal.NewFromFloat(v).Div(s).Round(0).Mul(s).InexactFloat64()
}

// OnStep reports whether v is a whole multiple of step.
func OnStep(v, step float64) bool {
	if step <= 0 {
		return false
	}
	return decimal.NewFromFloat(v).Mod(decimal.NewFromFloat(step)).IsZero()
}

// ExpiryPolicy picks the expiry a strategy is built on.
type ExpiryPolicy interface {
	Expiry(asOf time.Time) time.Time
}

// WeeklyExpiry selects the nearest Weekday at least MinDays after asOf.
// The result is a calendar date at midnight in asOf's location.
type WeeklyExpiry struct {
	Weekday time.Weekday
	MinDays int
}

// Expiry returns the first Weekday on or after asOf plus MinDays.
func (w WeeklyExpiry) Expiry(asOf time.Time) time.Time {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	earliest := day.AddDate(0, 0, w.MinDays)
	offset := (int(w.Weekday) - int(earliest.Weekday()) + 7) % 7
	return earliest.AddDate(0, 0, offset)
}

// WidthRule is an arithmetic expression over `step` and `price` giving a
// strike distance, for example "step * 2" or "price * 0.01".
type WidthRule struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// NewWidthRule parses expression.
func NewWidthRule(expression string) (WidthRule, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return WidthRule{}, fmt.Errorf("parse width rule %q: %w", expression, err)
	}
	for _, v := range expr.Vars() {
		if v != "step" && v != "price" {
			return WidthRule{}, fmt.Errorf("width rule %q: unknown variable %q", expression, v)
		}
	}
	return WidthRule{source: expression, expr: expr}, nil
}

// MustWidthRule is NewWidthRule for package-level defaults.
func MustWidthRule(expression string) WidthRule {
	w, err := NewWidthRule(expression)
	if err != nil {
		panic(err)
	}
	return w
}

func (w WidthRule) String() string { return w.source }

// IsZero reports whether the rule was never set.
func (w WidthRule) IsZero() bool { return w.expr == nil }

// Width evaluates the rule and snaps it onto the strike grid, never below one step.
func (w WidthRule) Width(step, price float64) (float64, error) {
	if w.expr == nil {
		return 2 * step, nil
	}
	result, err := w.expr.Evaluate(map[string]interface{}{"step": step, "price": price})
	if err != nil {
		return 0, fmt.Errorf("evaluate width rule %q: %w", w.source, err)
	}
	raw, ok := result.(float64)
	if !ok || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("width rule %q: non-numeric result %v", w.source, result)
	}
	return math.Max(RoundToStep(raw, step), step), nil
}

// InstrumentPolicy carries the listing conventions of one underlying.
type InstrumentPolicy struct {
	Strikes      StrikeLadder
	Expiry       ExpiryPolicy
	SpreadWidth  WidthRule // vertical spread distance
	CondorOffset WidthRule // iron condor short strikes from ATM
	CondorWing   WidthRule // iron condor long wings beyond the shorts
}

// DefaultInstrumentPolicy is used for symbols without their own configuration.
func DefaultInstrumentPolicy() InstrumentPolicy {
	return InstrumentPolicy{
		Strikes:      DefaultStrikeLadder,
		Expiry:       WeeklyExpiry{Weekday: time.Thursday, MinDays: 2},
		SpreadWidth:  MustWidthRule("step * 2"),
		CondorOffset: MustWidthRule("step * 2"),
		CondorWing:   MustWidthRule("step * 2"),
	}
}

// withDefaults fills unset fields from DefaultInstrumentPolicy.
func (p InstrumentPolicy) withDefaults() InstrumentPolicy {
	d := DefaultInstrumentPolicy()
	if len(p.Strikes) == 0 {
		p.Strikes = d.Strikes
	}
	if p.Expiry == nil {
		p.Expiry = d.Expiry
	}
	if p.SpreadWidth.IsZero() {
		p.SpreadWidth = d.SpreadWidth
	}
	if p.CondorOffset.IsZero() {
		p.CondorOffset = d.CondorOffset
	}
	if p.CondorWing.IsZero() {
		p.CondorWing = d.CondorWing
	}
	return p
}
