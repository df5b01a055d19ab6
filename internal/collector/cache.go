package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"OptionSentinel/internal/model"
)

// CachedFetcher memoizes a Fetcher for TTL so that the legs of one evaluation
// share a single quote and bar download.
type CachedFetcher struct {
	Fetcher Fetcher
	TTL     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	quotes  map[string]cachedQuote
	barSets map[string]cachedBars
}

type cachedQuote struct {
	snap    model.MarketSnapshot
	ok      bool
	expires time.Time
}

type cachedBars struct {
	bars    []model.PriceBar
	days    int
	expires time.Time
}

// NewCachedFetcher wraps fetcher. A non-positive ttl disables caching.
func NewCachedFetcher(fetcher Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		Fetcher: fetcher,
		TTL:     ttl,
		now:     time.Now,
		quotes:  map[string]cachedQuote{},
		barSets: map[string]cachedBars{},
	}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() }

func (c *CachedFetcher) FetchQuote(ctx context.Context, symbol string) (model.MarketSnapshot, bool, error) {
	if c.TTL <= 0 {
		return c.Fetcher.FetchQuote(ctx, symbol)
	}
	now := c.now()
	c.mu.Lock()
	q, hit := c.quotes[symbol]
	c.mu.Unlock()
	if hit && now.Before(q.expires) {
		return q.snap, q.ok, nil
	}

	snap, ok, err := c.Fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return snap, ok, err
	}
	c.mu.Lock()
	c.quotes[symbol] = cachedQuote{snap: snap, ok: ok, expires: now.Add(c.TTL)}
	c.mu.Unlock()
	return snap, ok, nil
}

// FetchDailyBars serves any cached download at least days long.
func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error) {
	if c.TTL <= 0 {
		return c.Fetcher.FetchDailyBars(ctx, symbol, days)
	}
	now := c.now()
	c.mu.Lock()
	b, hit := c.barSets[symbol]
	c.mu.Unlock()
	if hit && now.Before(b.expires) && b.days >= days {
		return trimBars(b.bars, days), nil
	}

	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("%s bars: %w", symbol, err)
	}
	c.mu.Lock()
	if cur, ok := c.barSets[symbol]; !ok || !now.Before(cur.expires) || cur.days < days {
		c.barSets[symbol] = cachedBars{bars: bars, days: days, expires: now.Add(c.TTL)}
	}
	c.mu.Unlock()
	return bars, nil
}
