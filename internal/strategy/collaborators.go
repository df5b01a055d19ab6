package strategy

import (
	"context"
	"time"

	"OptionSentinel/internal/model"
)

// MarketData supplies quotes and bar history. Bars are ordered oldest first
// and hold at most count entries.
type MarketData interface {
	CurrentSnapshot(ctx context.Context, symbol string) (model.MarketSnapshot, bool, error)
	RecentBars(ctx context.Context, symbol string, count int) ([]model.PriceBar, error)
}

// VolatilitySource supplies the volatility regime of an instrument.
type VolatilitySource interface {
	Profile(ctx context.Context, symbol string, lookbackDays int) (model.VolatilityProfile, bool, error)
}

// OptionsChain resolves listed contracts.
type OptionsChain interface {
	Contract(ctx context.Context, symbol string, strike float64, expiry time.Time, right model.Right) (model.OptionsContract, bool, error)
}

// GreeksCalculator prices option sensitivities for a contract at a snapshot.
type GreeksCalculator interface {
	Greeks(contract model.OptionsContract, snap model.MarketSnapshot) (model.Greeks, error)
}

// Collaborators bundles everything the engine reads from. Implementations
// must be safe for concurrent use; the engine adds no locking of its own.
type Collaborators struct {
	Market     MarketData
	Volatility VolatilitySource
	Chain      OptionsChain
	Greeks     GreeksCalculator
}
