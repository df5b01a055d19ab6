package pricing

import (
	"math"
	"testing"
	"time"

	"OptionSentinel/internal/model"
)

func TestBlackScholesPrice_PutCallParity(t *testing.T) {
	S, K, T, r, sigma := 100.0, 105.0, 0.5, 0.03, 0.25
	call := BlackScholesPrice(true, S, K, T, r, sigma)
	put := BlackScholesPrice(false, S, K, T, r, sigma)
	parity := S - K*math.Exp(-r*T)
	if math.Abs((call-put)-parity) > 1e-9 {
		t.Errorf("put-call parity violated: call-put=%.6f, expected %.6f", call-put, parity)
	}
}

func TestBlackScholesPrice_IntrinsicFallback(t *testing.T) {
	tests := []struct {
		isCall bool
		S, K   float64
		want   float64
	}{
		{true, 110, 100, 10},
		{true, 90, 100, 0},
		{false, 90, 100, 10},
		{false, 110, 100, 0},
	}
	for _, tt := range tests {
		if got := BlackScholesPrice(tt.isCall, tt.S, tt.K, 0, 0.05, 0.2); got != tt.want {
			t.Errorf("call=%v S=%.0f K=%.0f: expected %.0f, got %.4f", tt.isCall, tt.S, tt.K, tt.want, got)
		}
	}
}

func TestBlackScholesGreeks(t *testing.T) {
	call := BlackScholesGreeks(true, 100, 100, 0.25, 0.02, 0.2)
	put := BlackScholesGreeks(false, 100, 100, 0.25, 0.02, 0.2)

	if call.Delta <= 0.5 || call.Delta >= 0.6 {
		t.Errorf("ATM call delta expected slightly above 0.5, got %.4f", call.Delta)
	}
	if math.Abs((call.Delta-put.Delta)-1) > 1e-12 {
		t.Errorf("call delta - put delta should be 1, got %.6f", call.Delta-put.Delta)
	}
	if call.Gamma <= 0 || math.Abs(call.Gamma-put.Gamma) > 1e-12 {
		t.Errorf("gamma should be positive and equal across rights: %.6f vs %.6f", call.Gamma, put.Gamma)
	}
	if call.Vega <= 0 || math.Abs(call.Vega-put.Vega) > 1e-12 {
		t.Errorf("vega should be positive and equal across rights: %.6f vs %.6f", call.Vega, put.Vega)
	}
	if call.Theta >= 0 {
		t.Errorf("long call theta should be negative, got %.6f", call.Theta)
	}
}

func TestImpliedVol_RoundTrip(t *testing.T) {
	for _, isCall := range []bool{true, false} {
		price := BlackScholesPrice(isCall, 100, 95, 0.1, 0.01, 0.35)
		iv, err := ImpliedVol(isCall, 100, 95, 0.1, 0.01, price)
		if err != nil {
			t.Fatalf("call=%v: unexpected error: %v", isCall, err)
		}
		if math.Abs(iv-0.35) > 1e-4 {
			t.Errorf("call=%v: expected 0.35, got %.6f", isCall, iv)
		}
	}
	if _, err := ImpliedVol(true, 100, 95, 0, 0.01, 5); err == nil {
		t.Error("expected error for expired option")
	}
}

func TestCalculator_Greeks(t *testing.T) {
	now := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 30)
	snap := model.MarketSnapshot{Symbol: "SPX", Price: 5000, Timestamp: now}
	T := YearsBetween(now, expiry)
	premium := BlackScholesPrice(true, 5000, 5000, T, 0.04, 0.18)

	calc := NewCalculator(0.04)
	solved, err := calc.Greeks(model.OptionsContract{Strike: 5000, Expiry: expiry, Right: model.Call, Premium: premium}, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	published, err := calc.Greeks(model.OptionsContract{Strike: 5000, Expiry: expiry, Right: model.Call, Premium: premium, ImpliedVolatility: 0.18}, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(solved.Delta-published.Delta) > 1e-4 || math.Abs(solved.Vega-published.Vega) > 1e-3 {
		t.Errorf("solved and published greeks disagree: %+v vs %+v", solved, published)
	}
}
