package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"OptionSentinel/internal/model"
)

// Fetcher is a raw market data provider.
type Fetcher interface {
	// FetchDailyBars returns up to days daily bars, oldest first.
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error)
	// FetchQuote returns the latest quote. ok is false when the provider does
	// not know the symbol.
	FetchQuote(ctx context.Context, symbol string) (snap model.MarketSnapshot, ok bool, err error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func trimBars(bars []model.PriceBar, count int) []model.PriceBar {
	if count >= 0 && len(bars) > count {
		return bars[len(bars)-count:]
	}
	return bars
}
