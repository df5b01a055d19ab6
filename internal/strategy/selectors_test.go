package strategy

import (
	"errors"
	"testing"

	"OptionSentinel/internal/model"
)

func TestSelectMomentumBreakout(t *testing.T) {
	tests := []struct {
		momentum, rank float64
		kind           model.StrategyKind
		matched        bool
	}{
		{12, 20, model.LongCall, true},
		{2.01, 29.9, model.LongCall, true},
		{-2.01, 10, model.LongPut, true},
		{2.0, 10, "", false},
		{-2.0, 10, "", false},
		{12, 30, "", false},
		{-12, 45, "", false},
		{0.5, 5, "", false},
	}
	for _, tt := range tests {
		c, ok := SelectMomentumBreakout(tt.momentum, tt.rank)
		if ok != tt.matched || c.Kind != tt.kind {
			t.Errorf("momentum %.2f rank %.1f: expected (%q, %v), got (%q, %v)", tt.momentum, tt.rank, tt.kind, tt.matched, c.Kind, ok)
		}
		if ok && c.Family != model.MomentumBreakout {
			t.Errorf("unexpected family %q", c.Family)
		}
	}
}

func TestSelectMeanReversion(t *testing.T) {
	bands := model.BollingerBands{Upper: 102, Middle: 100, Lower: 98, Bandwidth: 4}
	tests := []struct {
		name    string
		price   float64
		rsi     float64
		kind    model.StrategyKind
		matched bool
	}{
		{"oversold stretched", 93.9, 20, model.CallSpread, true},
		{"overbought stretched", 106.1, 80, model.PutSpread, true},
		{"oversold not stretched", 95, 20, "", false},
		{"stretched not oversold", 90, 30, "", false},
		{"overbought boundary", 106, 80, "", false},
		{"neutral", 100, 50, "", false},
	}
	for _, tt := range tests {
		c, ok, err := SelectMeanReversion(tt.price, bands, model.RSIResult{Value: tt.rsi})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if ok != tt.matched || c.Kind != tt.kind {
			t.Errorf("%s: expected (%q, %v), got (%q, %v)", tt.name, tt.kind, tt.matched, c.Kind, ok)
		}
		if ok && c.ProfitTarget != SpreadProfitTarget {
			t.Errorf("%s: expected profit target %.2f, got %.2f", tt.name, SpreadProfitTarget, c.ProfitTarget)
		}
	}
}

func TestSelectMeanReversion_FlatBands(t *testing.T) {
	flat := model.BollingerBands{Upper: 100, Middle: 100, Lower: 100}
	_, ok, err := SelectMeanReversion(90, flat, model.RSIResult{Value: 10})
	if ok || !errors.Is(err, model.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got ok=%v err=%v", ok, err)
	}
}

func TestSelectVolatilityExpansion(t *testing.T) {
	tests := []struct {
		name    string
		profile model.VolatilityProfile
		kind    model.StrategyKind
		matched bool
	}{
		{"cheap and rising", model.VolatilityProfile{ImpliedVolatility: 0.12, HistoricalVolatility: 0.2, Trend: 0.4}, model.Straddle, true},
		{"rich and falling", model.VolatilityProfile{ImpliedVolatility: 0.3, HistoricalVolatility: 0.2, Trend: -0.4}, model.IronCondor, true},
		{"cheap but falling", model.VolatilityProfile{ImpliedVolatility: 0.12, HistoricalVolatility: 0.2, Trend: -0.4}, "", false},
		{"rich but rising", model.VolatilityProfile{ImpliedVolatility: 0.3, HistoricalVolatility: 0.2, Trend: 0.4}, "", false},
		{"fair", model.VolatilityProfile{ImpliedVolatility: 0.2, HistoricalVolatility: 0.2, Trend: 1}, "", false},
	}
	for _, tt := range tests {
		c, ok, err := SelectVolatilityExpansion(tt.profile)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if ok != tt.matched || c.Kind != tt.kind {
			t.Errorf("%s: expected (%q, %v), got (%q, %v)", tt.name, tt.kind, tt.matched, c.Kind, ok)
		}
	}

	for _, hv := range []float64{0, -0.1} {
		_, ok, err := SelectVolatilityExpansion(model.VolatilityProfile{ImpliedVolatility: 0.2, HistoricalVolatility: hv, Trend: 1})
		if ok || !errors.Is(err, model.ErrInvalidVolatilityData) {
			t.Errorf("hv %.1f: expected ErrInvalidVolatilityData, got ok=%v err=%v", hv, ok, err)
		}
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		momentum float64
		rank     float64
		trend    float64
		dir      model.Direction
		want     float64
	}{
		{"floor terms only", 0, 60, -1, model.Bullish, 0.6},
		{"neutral rich calm", 0, 70, 0.2, model.Neutral, 0.95},
		{"neutral cheap trending", 0, 40, 2, model.Neutral, 0.6},
		{"bearish capped", 1, 40, -0.1, model.Bearish, 0.95},
		{"bearish against trend", 1, 60, 0.3, model.Bearish, 0.7},
		{"momentum capped at 0.3", -50, 60, 0, model.Bullish, 0.9},
	}
	for _, tt := range tests {
		got := Confidence(tt.momentum, model.VolatilityProfile{Percentile: tt.rank, Trend: tt.trend}, tt.dir)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s: expected %.3f, got %.3f", tt.name, tt.want, got)
		}
	}
}

func TestConfidence_Bounded(t *testing.T) {
	dirs := []model.Direction{model.Bullish, model.Bearish, model.Neutral}
	for _, m := range []float64{-100, -3, -0.5, 0, 0.5, 3, 100} {
		for _, rank := range []float64{0, 25, 50, 75, 100} {
			for _, trend := range []float64{-5, -0.4, 0, 0.4, 5} {
				for _, dir := range dirs {
					got := Confidence(m, model.VolatilityProfile{Percentile: rank, Trend: trend}, dir)
					if got < 0.5 || got > 0.95 {
						t.Fatalf("confidence out of range: m=%.1f rank=%.0f trend=%.1f dir=%s -> %.3f", m, rank, trend, dir, got)
					}
				}
			}
		}
	}
}
