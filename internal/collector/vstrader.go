package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"OptionSentinel/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type vsQuote struct {
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

func (f *VsTraderFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), days)
	var raw []vsBar
	found, err := f.get(ctx, endpoint, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if !found {
		return nil, nil
	}
	bars := make([]model.PriceBar, len(raw))
	for i, vb := range raw {
		bars[i] = model.PriceBar{
			Time:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return trimBars(bars, days), nil
}

func (f *VsTraderFetcher) FetchQuote(ctx context.Context, symbol string) (model.MarketSnapshot, bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	var q vsQuote
	found, err := f.get(ctx, endpoint, &q)
	if err != nil {
		return model.MarketSnapshot{}, false, fmt.Errorf("fetch quote: %w", err)
	}
	if !found {
		return model.MarketSnapshot{}, false, nil
	}
	ts := time.Now().UTC()
	if q.Timestamp > 0 {
		ts = time.Unix(q.Timestamp, 0).UTC()
	}
	return model.MarketSnapshot{Symbol: symbol, Price: q.Price, Volume: q.Volume, Timestamp: ts}, true, nil
}

// get decodes a JSON response into out. A 404 reports found=false.
func (f *VsTraderFetcher) get(ctx context.Context, endpoint string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode: %w", err)
	}
	return true, nil
}
