package strategy

import (
	"testing"
	"time"
)

func TestStrikeLadder_Default(t *testing.T) {
	tests := []struct {
		price float64
		step  float64
		round float64
	}{
		{10549, 100, 10500},
		{10550, 100, 10600},
		{22517.4, 100, 22500},
		{10000, 50, 10000},
		{9875, 50, 9900},
		{5812, 50, 5800},
		{112, 50, 100},
	}
	for _, tt := range tests {
		if got := DefaultStrikeLadder.Step(tt.price); got != tt.step {
			t.Errorf("price %.1f: expected step %.0f, got %.0f", tt.price, tt.step, got)
		}
		if got := DefaultStrikeLadder.Round(tt.price); got != tt.round {
			t.Errorf("price %.1f: expected strike %.0f, got %.2f", tt.price, tt.round, got)
		}
	}
}

func TestStrikeLadder_CustomTiers(t *testing.T) {
	// unsorted input is ordered by threshold
	l := NewStrikeLadder(StrikeTier{MinPrice: 0, Step: 1}, StrikeTier{MinPrice: 500, Step: 5}, StrikeTier{MinPrice: 100, Step: 2.5})
	tests := []struct {
		price, step, round float64
	}{
		{50.4, 1, 50},
		{101.2, 2.5, 100},
		{102, 2.5, 102.5},
		{581.39, 5, 580},
	}
	for _, tt := range tests {
		if got := l.Step(tt.price); got != tt.step {
			t.Errorf("price %.2f: expected step %.1f, got %.1f", tt.price, tt.step, got)
		}
		if got := l.Round(tt.price); got != tt.round {
			t.Errorf("price %.2f: expected strike %.2f, got %.2f", tt.price, tt.round, got)
		}
	}
	if err := l.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
	if err := NewStrikeLadder(StrikeTier{MinPrice: 0, Step: 0}).Validate(); err == nil {
		t.Error("expected error for zero step")
	}
	if err := NewStrikeLadder().Validate(); err == nil {
		t.Error("expected error for empty ladder")
	}
}

func TestOnStep(t *testing.T) {
	if !OnStep(5850, 50) || OnStep(5825, 50) || !OnStep(102.5, 2.5) {
		t.Error("unexpected OnStep result")
	}
}

func TestWeeklyExpiry(t *testing.T) {
	monday := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		policy WeeklyExpiry
		asOf   time.Time
		want   time.Time
	}{
		{"thursday from monday", WeeklyExpiry{Weekday: time.Thursday, MinDays: 2}, monday, time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)},
		{"thursday too close rolls", WeeklyExpiry{Weekday: time.Thursday, MinDays: 2}, wednesday, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)},
		{"friday same week", WeeklyExpiry{Weekday: time.Friday, MinDays: 0}, wednesday, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)},
		{"same day allowed", WeeklyExpiry{Weekday: time.Monday, MinDays: 0}, monday, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"week out", WeeklyExpiry{Weekday: time.Monday, MinDays: 1}, monday, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := tt.policy.Expiry(tt.asOf); !got.Equal(tt.want) {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	}
}

func TestWidthRule(t *testing.T) {
	tests := []struct {
		expr  string
		step  float64
		price float64
		want  float64
	}{
		{"step * 2", 50, 5800, 100},
		{"price * 0.01", 50, 5123, 50},
		{"price * 0.02", 50, 5123, 100},
		{"step * 0.1", 50, 5800, 50},
		{"step * 3 + 10", 100, 22000, 300},
	}
	for _, tt := range tests {
		w, err := NewWidthRule(tt.expr)
		if err != nil {
			t.Fatalf("%q: unexpected parse error: %v", tt.expr, err)
		}
		got, err := w.Width(tt.step, tt.price)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %.0f, got %.2f", tt.expr, tt.want, got)
		}
	}

	for _, bad := range []string{"step *", "foo * 2"} {
		if _, err := NewWidthRule(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}

	var zero WidthRule
	if got, _ := zero.Width(50, 5800); got != 100 {
		t.Errorf("zero rule: expected two steps, got %.0f", got)
	}
}
