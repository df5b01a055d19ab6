package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/strategy"
)

func sampleStrategy() *model.OptionsStrategy {
	expiry := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	return &model.OptionsStrategy{
		ID:         "id-1",
		Name:       "Bull Call Spread SPX 5800/5900 2025-03-07",
		Kind:       model.CallSpread,
		Family:     model.MeanReversion,
		Direction:  model.Bullish,
		Underlying: "SPX",
		SpotPrice:  5812,
		Legs: []model.Leg{
			{Contract: model.OptionsContract{Underlying: "SPX", Strike: 5800, Expiry: expiry, Right: model.Call, Premium: 40}, Quantity: 1},
			{Contract: model.OptionsContract{Underlying: "SPX", Strike: 5900, Expiry: expiry, Right: model.Call, Premium: 12}, Quantity: -1},
		},
		MaxRisk:      28,
		MaxProfit:    72,
		Breakevens:   []float64{5828},
		ProfitTarget: 0.7,
		Confidence:   0.8,
	}
}

func TestFormatStrategy(t *testing.T) {
	msg := FormatStrategy(sampleStrategy())
	for _, want := range []string{
		"<b>Bull Call Spread SPX 5800/5900 2025-03-07</b>",
		"BUY  1 × CALL 5800.00 2025-03-07 @ 40.00",
		"SELL 1 × CALL 5900.00 2025-03-07 @ 12.00",
		"Max risk: 28.00",
		"Max profit: 72.00",
		"Breakeven: 5828.00",
		"Take profit at 70% of max",
		"Confidence: 80%",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q:\n%s", want, msg)
		}
	}

	s := sampleStrategy()
	s.MaxProfitUnbounded = true
	if !strings.Contains(FormatStrategy(s), "Max profit: unlimited") {
		t.Error("expected unlimited profit")
	}
}

func TestFormatDecision(t *testing.T) {
	degraded := strategy.Decision{Symbol: "SPX", Family: model.MeanReversion, Reason: errors.Join(errors.New("bollinger"), model.ErrInsufficientHistory)}
	if got := FormatDecision(degraded); !strings.Contains(got, "degraded (insufficient history)") {
		t.Errorf("unexpected degraded message %q", got)
	}
	none := strategy.Decision{Symbol: "SPX", Family: model.MomentumBreakout}
	if got := FormatDecision(none); !strings.Contains(got, "no signal") {
		t.Errorf("unexpected no-signal message %q", got)
	}
	found := strategy.Decision{Symbol: "SPX", Strategy: sampleStrategy()}
	if got := FormatDecision(found); !strings.Contains(got, "Bull Call Spread") {
		t.Errorf("unexpected strategy message %q", got)
	}

	scan := FormatScan("SPX", []strategy.Decision{none, degraded})
	if !strings.HasPrefix(scan, "🔎 <b>Scan SPX</b>") || strings.Count(scan, "SPX ") != 2 {
		t.Errorf("unexpected scan %q", scan)
	}
}

func newTestTelegram(url string) *TelegramNotifier {
	tg := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	tg.APIBase = url
	tg.Backoff = time.Millisecond
	return tg
}

func TestTelegramNotifier_Notify(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := newTestTelegram(srv.URL).Notify(context.Background(), sampleStrategy()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["chat_id"] != "42" || got["parse_mode"] != "HTML" || !strings.Contains(got["text"], "Bull Call Spread") {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := newTestTelegram(srv.URL)
	if err := tg.SendWithRetry(context.Background(), "hi", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	calls = -100
	mu.Unlock()

	if err := tg.SendWithRetry(context.Background(), "hi", 2); err == nil || !strings.Contains(err.Error(), "all 3 retries exhausted") {
		t.Errorf("expected exhausted retries, got %v", err)
	}
}

func TestTelegramNotifier_Polling(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	served := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if served {
				w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			served = true
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /help "}},
				{"update_id":8,"message":null}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			replies = append(replies, p["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	tg := newTestTelegram(srv.URL)
	go func() {
		tg.StartPolling(ctx, func(_ context.Context, cmd string) string {
			if cmd == "/help" {
				return HelpText
			}
			return ""
		})
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(replies)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reply")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if replies[0] != HelpText {
		t.Errorf("unexpected reply %q", replies[0])
	}
}

func TestTelegramNotifier_PollingBacksOffOnAPIError(t *testing.T) {
	for _, tt := range []struct {
		name   string
		status int
		body   string
	}{
		{"revoked token", http.StatusUnauthorized, `{"ok":false,"error_code":401,"description":"Unauthorized"}`},
		{"conflicting poller", http.StatusConflict, `{"ok":false,"error_code":409,"description":"Conflict"}`},
		{"ok false with 200", http.StatusOK, `{"ok":false,"description":"Bad Request"}`},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			requests := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				requests++
				mu.Unlock()
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()
			newTestTelegram(srv.URL).StartPolling(ctx, func(context.Context, string) string { return "" })

			mu.Lock()
			defer mu.Unlock()
			if requests != 1 {
				t.Errorf("getUpdates requests = %d, want 1 before the retry wait", requests)
			}
		})
	}
}

func TestGetUpdatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	tg := newTestTelegram(srv.URL)
	updates, err := tg.getUpdates(context.Background(), srv.Client(), 0)
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
	if len(updates) != 0 {
		t.Errorf("updates = %v", updates)
	}
}

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func TestRedisPublisher(t *testing.T) {
	pub := &fakePublisher{}
	p := &RedisPublisher{Client: pub, Channel: "strategies"}
	if err := p.Notify(context.Background(), sampleStrategy()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.channel != "strategies" {
		t.Errorf("unexpected channel %q", pub.channel)
	}
	var decoded model.OptionsStrategy
	if err := json.Unmarshal(pub.payload, &decoded); err != nil {
		t.Fatalf("payload is not a strategy: %v", err)
	}
	if decoded.ID != "id-1" || len(decoded.Legs) != 2 || decoded.Legs[1].Quantity != -1 {
		t.Errorf("unexpected payload %+v", decoded)
	}

	pub.err = errors.New("connection refused")
	if err := p.Notify(context.Background(), sampleStrategy()); err == nil {
		t.Error("expected publish error")
	}
}

type recordingNotifier struct {
	got []*model.OptionsStrategy
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, s *model.OptionsStrategy) error {
	r.got = append(r.got, s)
	return r.err
}

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingNotifier{err: boom}
	b := &recordingNotifier{}
	f := Fanout{{Name: "a", Notifier: a}, {Name: "b", Notifier: b}}

	err := f.Notify(context.Background(), sampleStrategy())
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "a: boom") {
		t.Errorf("expected joined error naming the target, got %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("expected delivery to every notifier despite failure, got %d/%d", len(a.got), len(b.got))
	}

	reports := map[string]error{}
	f.Deliver(context.Background(), sampleStrategy(), func(target string, err error) { reports[target] = err })
	if len(reports) != 2 || reports["a"] != boom || reports["b"] != nil {
		t.Errorf("unexpected reports %v", reports)
	}
}
