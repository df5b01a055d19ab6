package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"OptionSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX": "^GSPC",
			"NDX": "^NDX",
			"RUT": "^RUT",
			"VIX": "^VIX",
			"VXN": "^VXN",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol              string  `json:"symbol"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				RegularMarketTime   int64   `json:"regularMarketTime"`
				RegularMarketVolume float64 `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(values []interface{}, i int) float64 {
	if i >= len(values) {
		return 0
	}
	return toFloat(values[i])
}

// errYahooNotFound marks a symbol Yahoo does not list.
var errYahooNotFound = errors.New("yahoo: symbol not found")

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, errYahooNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, errYahooNotFound
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, errYahooNotFound
	}
	return &chart, nil
}

func chartBars(chart *yahooChart) []model.PriceBar {
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.PriceBar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars
}

func dailyRange(days int) string {
	switch {
	case days <= 20:
		return "1mo"
	case days <= 60:
		return "3mo"
	case days <= 120:
		return "6mo"
	case days <= 250:
		return "1y"
	case days <= 500:
		return "2y"
	default:
		return "5y"
	}
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error) {
	chart, err := f.fetchChart(ctx, symbol, "1d", dailyRange(days))
	if errors.Is(err, errYahooNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return trimBars(chartBars(chart), days), nil
}

// FetchQuote reads the regular market quote from the chart metadata, falling
// back to the last daily bar.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (model.MarketSnapshot, bool, error) {
	chart, err := f.fetchChart(ctx, symbol, "1d", "5d")
	if errors.Is(err, errYahooNotFound) {
		return model.MarketSnapshot{}, false, nil
	}
	if err != nil {
		return model.MarketSnapshot{}, false, err
	}

	meta := chart.Chart.Result[0].Meta
	snap := model.MarketSnapshot{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		Volume:    meta.RegularMarketVolume,
		Timestamp: time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if snap.Price > 0 && meta.RegularMarketTime > 0 {
		return snap, true, nil
	}

	bars := chartBars(chart)
	if len(bars) == 0 {
		return model.MarketSnapshot{}, false, nil
	}
	last := bars[len(bars)-1]
	return model.MarketSnapshot{Symbol: symbol, Price: last.Close, Volume: last.Volume, Timestamp: last.Time}, true, nil
}
